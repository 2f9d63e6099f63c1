package casestudy

import (
	"encoding/json"

	"destinpq/internal/domain"
	apperrors "destinpq/pkg/errors"
)

type valuesResponse struct {
	Range          string     `json:"range"`
	MajorDimension string     `json:"majorDimension"`
	Values         [][]string `json:"values"`
}

// ParseValues converts a Sheets API v4 values response (first row is the
// header) into case studies, matching headers the same way as the CSV export.
func ParseValues(body []byte) ([]domain.CaseStudy, error) {
	var resp valuesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeParse, "invalid values API JSON", err)
	}
	if len(resp.Values) <= 1 {
		return []domain.CaseStudy{}, nil
	}

	cols := locateColumns(resp.Values[0], csvFields, containsMatch)
	if !cols.hasRequired() {
		return []domain.CaseStudy{}, nil
	}

	rows := make([]row, 0, len(resp.Values)-1)
	for _, values := range resp.Values[1:] {
		rows = append(rows, cols.project(values))
	}
	return foldRows(rows), nil
}

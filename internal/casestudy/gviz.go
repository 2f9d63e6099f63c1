package casestudy

import (
	"encoding/json"
	"strconv"
	"strings"

	"destinpq/internal/domain"
	apperrors "destinpq/pkg/errors"
)

type gvizResponse struct {
	Table *gvizTable `json:"table"`
}

type gvizTable struct {
	Cols []gvizCol `json:"cols"`
	Rows []gvizRow `json:"rows"`
}

type gvizCol struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type gvizRow struct {
	C []*gvizCell `json:"c"`
}

type gvizCell struct {
	V any    `json:"v"`
	F string `json:"f,omitempty"`
}

// StripGvizWrapper removes the JavaScript callback around a gviz response:
// everything up to the first "(" and a trailing ");".
func StripGvizWrapper(text string) string {
	if i := strings.Index(text, "("); i >= 0 {
		text = text[i+1:]
	}
	text = strings.TrimRight(text, " \t\r\n")
	return strings.TrimSuffix(text, ");")
}

// ParseGviz converts a (possibly wrapped) gviz JSON response into case
// studies. Malformed JSON is an error; a response without table.rows and
// table.cols, or without title, client and description columns, yields an
// empty slice.
func ParseGviz(text string) ([]domain.CaseStudy, error) {
	var resp gvizResponse
	if err := json.Unmarshal([]byte(StripGvizWrapper(text)), &resp); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeParse, "invalid gviz JSON", err)
	}
	if resp.Table == nil || resp.Table.Cols == nil || resp.Table.Rows == nil {
		return []domain.CaseStudy{}, nil
	}

	labels := make([]string, len(resp.Table.Cols))
	for i, col := range resp.Table.Cols {
		labels[i] = col.Label
	}
	cols := locateColumns(labels, gvizFields, exactMatch)
	if !cols.hasRequired() {
		return []domain.CaseStudy{}, nil
	}

	rows := make([]row, 0, len(resp.Table.Rows))
	for _, r := range resp.Table.Rows {
		if r.C == nil {
			continue
		}
		fields := make([]string, len(r.C))
		for i, cell := range r.C {
			fields[i] = cell.String()
		}
		rows = append(rows, cols.project(fields))
	}
	return foldRows(rows), nil
}

func (c *gvizCell) String() string {
	if c == nil || c.V == nil {
		return ""
	}
	switch v := c.V.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		if c.F != "" {
			return c.F
		}
		b, _ := json.Marshal(v)
		return string(b)
	}
}

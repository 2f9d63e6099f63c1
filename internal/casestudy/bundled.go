package casestudy

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"destinpq/internal/domain"
)

//go:embed data/case_studies.yaml
var bundledYAML []byte

// Bundled decodes the case studies shipped with the binary.
func Bundled() ([]domain.CaseStudy, error) {
	return DecodeYAML(bundledYAML)
}

// DecodeYAML decodes a YAML list of case studies, filling in the placeholder
// image and rejecting entries without a title.
func DecodeYAML(data []byte) ([]domain.CaseStudy, error) {
	var studies []domain.CaseStudy
	if err := yaml.Unmarshal(data, &studies); err != nil {
		return nil, fmt.Errorf("decode case studies: %w", err)
	}
	for i := range studies {
		cs := &studies[i]
		cs.Title = strings.TrimSpace(cs.Title)
		if cs.Title == "" {
			return nil, fmt.Errorf("decode case studies: entry %d has no title", i)
		}
		if cs.Image == "" {
			cs.Image = domain.PlaceholderImage
		}
		if cs.Results == nil {
			cs.Results = []string{}
		}
	}
	return studies, nil
}

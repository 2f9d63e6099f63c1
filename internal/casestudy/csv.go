package casestudy

import (
	"strings"

	"destinpq/internal/domain"
)

// ParseCSVRow splits one CSV line on commas that are outside double quotes.
// Every quote character toggles the quoted state and is dropped, so an
// escaped quote ("") inside a quoted field is not preserved.
func ParseCSVRow(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(fields, current.String())
}

// ParseCSVToCaseStudies converts a spreadsheet CSV export into case studies.
// It returns an empty slice when the text has no data rows or the title,
// client or description column cannot be found.
func ParseCSVToCaseStudies(text string) []domain.CaseStudy {
	lines := splitLines(text)
	if len(lines) <= 1 {
		return []domain.CaseStudy{}
	}

	cols := locateColumns(ParseCSVRow(lines[0]), csvFields, containsMatch)
	if !cols.hasRequired() {
		return []domain.CaseStudy{}
	}

	rows := make([]row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, cols.project(ParseCSVRow(line)))
	}
	return foldRows(rows)
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := raw[:0]
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// fieldNames lists, per case-study field, the header names to look for in
// order of preference.
type fieldNames struct {
	title, client, description, image, results, date, category []string
}

// csvFields are matched as case-insensitive substrings of the header.
var csvFields = fieldNames{
	title:       []string{"title"},
	client:      []string{"client"},
	description: []string{"description"},
	image:       []string{"image"},
	results:     []string{"results"},
	date:        []string{"date"},
	category:    []string{"category"},
}

// gvizFields are matched against the whole lower-cased column label.
var gvizFields = fieldNames{
	title:       []string{"title"},
	client:      []string{"client name", "client"},
	description: []string{"description"},
	image:       []string{"image path", "image"},
	results:     []string{"results list", "results"},
	date:        []string{"date"},
	category:    []string{"category"},
}

func containsMatch(header, name string) bool { return strings.Contains(header, name) }

func exactMatch(header, name string) bool { return header == name }

func locateColumns(headers []string, names fieldNames, match func(header, name string) bool) columns {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}
	find := func(candidates []string) int {
		for _, name := range candidates {
			for i, h := range lowered {
				if match(h, name) {
					return i
				}
			}
		}
		return -1
	}
	return columns{
		title:       find(names.title),
		client:      find(names.client),
		description: find(names.description),
		image:       find(names.image),
		results:     find(names.results),
		date:        find(names.date),
		category:    find(names.category),
	}
}

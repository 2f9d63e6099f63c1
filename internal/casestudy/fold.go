// Package casestudy resolves case-study records from the published
// spreadsheet. Every source (CSV export, gviz JSON, values API, same-origin
// proxies) funnels its rows through one fold so that records are merged by
// title the same way regardless of transport.
package casestudy

import (
	"strings"

	"destinpq/internal/domain"
)

// columns holds the index of each case-study field in a header row; -1 when
// the column is absent.
type columns struct {
	title, client, description, image, results, date, category int
}

func (c columns) hasRequired() bool {
	return c.title >= 0 && c.client >= 0 && c.description >= 0
}

// row is one spreadsheet row projected onto the case-study columns.
type row struct {
	title, client, description, image, result, date, category string
}

func (c columns) project(fields []string) row {
	get := func(idx int) string {
		if idx < 0 || idx >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[idx])
	}
	return row{
		title:       get(c.title),
		client:      get(c.client),
		description: get(c.description),
		image:       get(c.image),
		result:      cleanResultText(get(c.results)),
		date:        get(c.date),
		category:    get(c.category),
	}
}

// accumulator is the state of the fold: the records built so far, their
// position by title, and the record that untitled rows continue.
type accumulator struct {
	studies []domain.CaseStudy
	byTitle map[string]int
	current int
}

func newAccumulator() *accumulator {
	return &accumulator{byTitle: make(map[string]int), current: -1}
}

// add folds one row. A titled row starts a record or merges into the record
// with the same title; an untitled row continues the current record; untitled
// rows before any titled row are dropped.
func (a *accumulator) add(r row) *accumulator {
	if r.title == "" {
		if a.current >= 0 {
			a.merge(a.current, r)
		}
		return a
	}

	if idx, ok := a.byTitle[r.title]; ok {
		a.current = idx
		a.merge(idx, r)
		return a
	}

	cs := domain.CaseStudy{
		Title:       r.title,
		Client:      r.client,
		Description: r.description,
		Image:       r.image,
		Results:     []string{},
		Date:        r.date,
		Category:    r.category,
	}
	if cs.Image == "" {
		cs.Image = domain.PlaceholderImage
	}
	if r.result != "" {
		cs.Results = append(cs.Results, r.result)
	}
	a.studies = append(a.studies, cs)
	a.current = len(a.studies) - 1
	a.byTitle[r.title] = a.current
	return a
}

// merge never touches title, client or image once a record exists.
func (a *accumulator) merge(idx int, r row) {
	cs := &a.studies[idx]
	if r.result != "" {
		cs.Results = append(cs.Results, r.result)
	}
	if r.description != "" && r.description != cs.Description {
		if cs.Description == "" {
			cs.Description = r.description
		} else {
			cs.Description += " " + r.description
		}
	}
	if r.date != "" {
		cs.Date = r.date
	}
	if r.category != "" {
		cs.Category = r.category
	}
}

func (a *accumulator) result() []domain.CaseStudy {
	if a.studies == nil {
		return []domain.CaseStudy{}
	}
	return a.studies
}

// foldRows reduces projected rows into case studies in first-seen order.
func foldRows(rows []row) []domain.CaseStudy {
	acc := newAccumulator()
	for _, r := range rows {
		acc = acc.add(r)
	}
	return acc.result()
}

// cleanResultText strips one pair of surrounding quotes.
func cleanResultText(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, `"`)
	text = strings.TrimPrefix(text, `'`)
	text = strings.TrimSuffix(text, `"`)
	text = strings.TrimSuffix(text, `'`)
	return strings.TrimSpace(text)
}

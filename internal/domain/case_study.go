package domain

import (
	"time"

	"gorm.io/gorm"
)

// PlaceholderImage is used when a case study has no image
const PlaceholderImage = "/placeholder.svg"

// CaseStudy is a marketing record describing a client engagement
type CaseStudy struct {
	Title       string   `json:"title" yaml:"title"`
	Client      string   `json:"client" yaml:"client"`
	Description string   `json:"description" yaml:"description"`
	Image       string   `json:"image" yaml:"image"`
	Results     []string `json:"results" yaml:"results"`
	Date        string   `json:"date" yaml:"date"`
	Category    string   `json:"category" yaml:"category"`
}

// CaseStudyRecord is a row of the bundled case-study catalog
type CaseStudyRecord struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Position    int        `gorm:"not null;index" json:"position"`
	Title       string     `gorm:"not null;uniqueIndex" json:"title"`
	Client      string     `gorm:"not null" json:"client"`
	Description string     `gorm:"type:text" json:"description"`
	Image       string     `json:"image"`
	Results     []string   `gorm:"serializer:json;type:text" json:"results"`
	Date        string     `json:"date"`
	Category    string     `json:"category"`
	Source      string     `json:"source"` // bundled, or the strategy that produced it
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// TableName specifies the table name for CaseStudyRecord
func (CaseStudyRecord) TableName() string {
	return "case_studies"
}

// BeforeCreate hook
func (r *CaseStudyRecord) BeforeCreate(tx *gorm.DB) error {
	r.CreatedAt = time.Now()
	if r.Image == "" {
		r.Image = PlaceholderImage
	}
	return nil
}

// BeforeUpdate hook
func (r *CaseStudyRecord) BeforeUpdate(tx *gorm.DB) error {
	now := time.Now()
	r.UpdatedAt = &now
	return nil
}

// NewCaseStudyRecord converts a case study into a catalog row
func NewCaseStudyRecord(position int, cs CaseStudy, source string) CaseStudyRecord {
	results := cs.Results
	if results == nil {
		results = []string{}
	}
	return CaseStudyRecord{
		Position:    position,
		Title:       cs.Title,
		Client:      cs.Client,
		Description: cs.Description,
		Image:       cs.Image,
		Results:     results,
		Date:        cs.Date,
		Category:    cs.Category,
		Source:      source,
	}
}

// CaseStudy converts the row back to the wire shape
func (r CaseStudyRecord) CaseStudy() CaseStudy {
	results := r.Results
	if results == nil {
		results = []string{}
	}
	return CaseStudy{
		Title:       r.Title,
		Client:      r.Client,
		Description: r.Description,
		Image:       r.Image,
		Results:     results,
		Date:        r.Date,
		Category:    r.Category,
	}
}

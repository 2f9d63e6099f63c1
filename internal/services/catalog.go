package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"destinpq/internal/domain"
	"destinpq/internal/metrics"
	apperrors "destinpq/pkg/errors"
)

// SourceBundled marks catalog rows seeded from the embedded YAML
const SourceBundled = "bundled"

// CatalogService stores the case-study list served by /api/case-studies
type CatalogService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db *gorm.DB, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{db: db, logger: logger.Named("db")}
}

// List returns the catalog in position order
func (s *CatalogService) List(ctx context.Context) ([]domain.CaseStudy, error) {
	start := time.Now()
	var records []domain.CaseStudyRecord
	err := s.db.WithContext(ctx).Order("position ASC").Find(&records).Error
	metrics.RecordDBQuery("list_case_studies", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list case studies: %w", err)
	}

	studies := make([]domain.CaseStudy, len(records))
	for i, r := range records {
		studies[i] = r.CaseStudy()
	}
	return studies, nil
}

// Count returns the number of catalog rows
func (s *CatalogService) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&domain.CaseStudyRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count case studies: %w", err)
	}
	return n, nil
}

// Replace swaps the whole catalog for studies in one transaction
func (s *CatalogService) Replace(ctx context.Context, studies []domain.CaseStudy, source string) error {
	if len(studies) == 0 {
		return apperrors.New(apperrors.ErrCodeValidation, "refusing to replace catalog with an empty list")
	}

	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.CaseStudyRecord{}).Error; err != nil {
			return err
		}
		records := make([]domain.CaseStudyRecord, len(studies))
		for i, cs := range studies {
			records[i] = domain.NewCaseStudyRecord(i, cs, source)
		}
		return tx.CreateInBatches(&records, 100).Error
	})
	metrics.RecordDBQuery("replace_case_studies", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to replace case studies: %w", err)
	}

	s.logger.Info("case study catalog replaced",
		zap.Int("count", len(studies)),
		zap.String("source", source),
	)
	return nil
}

// SeedIfEmpty writes studies when the catalog has no rows and reports
// whether it did
func (s *CatalogService) SeedIfEmpty(ctx context.Context, studies []domain.CaseStudy) (bool, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := s.Replace(ctx, studies, SourceBundled); err != nil {
		return false, err
	}
	return true, nil
}

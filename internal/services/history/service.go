package history

import (
	"context"
	"fmt"
	"time"

	"github.com/Egham-7/embedding-advisor/internal/models"
	"github.com/Egham-7/embedding-advisor/internal/services/database"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Service persists analyses and lists recent ones
type Service struct {
	db *database.DB
}

// NewService creates a history service. The schema is migrated on creation.
func NewService(db *database.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if err := db.Migrate(); err != nil {
		return nil, err
	}
	return &Service{db: db}, nil
}

// Record stores one analysis
func (s *Service) Record(ctx context.Context, analysis *models.Analysis) error {
	record, err := models.NewAnalysisRecord(analysis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to store analysis: %w", err)
	}
	return nil
}

// Recent returns the newest analyses first. limit is clamped to 1..MaxLimit,
// with DefaultLimit used for non-positive values.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.AnalysisRecord, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	var records []models.AnalysisRecord
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return records, nil
}

// Ping checks the underlying database
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Prune deletes analyses created before cutoff and returns how many were removed
func (s *Service) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.AnalysisRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune analyses: %w", result.Error)
	}
	return result.RowsAffected, nil
}

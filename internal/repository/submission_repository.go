// Package repository provides data access interfaces and implementations
package repository

import (
	"context"

	"go-intents/internal/models"

	"gorm.io/gorm"
)

// SubmissionRepository defines data access for solution submissions
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.SolutionSubmission) error
	Save(ctx context.Context, submission *models.SolutionSubmission) error
	GetByID(ctx context.Context, id string) (*models.SolutionSubmission, error)
	GetByTxHash(ctx context.Context, txHash string) (*models.SolutionSubmission, error)
	ListRecent(ctx context.Context, network string, limit int) ([]*models.SolutionSubmission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new SubmissionRepository instance
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.SolutionSubmission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Save(ctx context.Context, submission *models.SolutionSubmission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*models.SolutionSubmission, error) {
	var submission models.SolutionSubmission
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *submissionRepository) GetByTxHash(ctx context.Context, txHash string) (*models.SolutionSubmission, error) {
	var submission models.SolutionSubmission
	if err := r.db.WithContext(ctx).Where("tx_hash = ?", txHash).First(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// ListRecent returns the newest submissions first; an empty network matches all
func (r *submissionRepository) ListRecent(ctx context.Context, network string, limit int) ([]*models.SolutionSubmission, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if network != "" {
		query = query.Where("network = ?", network)
	}
	var submissions []*models.SolutionSubmission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}

package repository

import (
	"context"

	"portfolio-backend/internal/models"
)

// LogStore persists interaction log rows. Rows are never updated and only
// removed in bulk.
type LogStore interface {
	Insert(ctx context.Context, entry *models.InteractionLogEntry) error
	List(ctx context.Context, limit, offset int) ([]*models.InteractionLogEntry, int, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// FlagStore persists feature flags keyed by their identifier.
type FlagStore interface {
	ListFlags(ctx context.Context) ([]*models.FeatureFlag, error)
	Get(ctx context.Context, key models.FlagKey) (*models.FeatureFlag, error)
	Create(ctx context.Context, flag *models.FeatureFlag) error
	SetValue(ctx context.Context, key models.FlagKey, value bool) error
	SetDescription(ctx context.Context, key models.FlagKey, description *string) error
	Delete(ctx context.Context, key models.FlagKey) error
}

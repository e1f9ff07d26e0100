package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio-backend/internal/models"
)

type FlagRepo struct {
	pool *pgxpool.Pool
}

func NewFlagRepo(pool *pgxpool.Pool) *FlagRepo {
	return &FlagRepo{pool: pool}
}

func (r *FlagRepo) ListFlags(ctx context.Context) ([]*models.FeatureFlag, error) {
	rows, err := r.pool.Query(ctx, "SELECT key, value, description FROM feature_flags ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flags := []*models.FeatureFlag{}
	for rows.Next() {
		f := &models.FeatureFlag{}
		var key string
		if err := rows.Scan(&key, &f.Value, &f.Description); err != nil {
			return nil, err
		}
		f.Key = models.FlagKey(key)
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

func (r *FlagRepo) Get(ctx context.Context, key models.FlagKey) (*models.FeatureFlag, error) {
	f := &models.FeatureFlag{Key: key}
	err := r.pool.QueryRow(ctx, "SELECT value, description FROM feature_flags WHERE key = $1", string(key)).
		Scan(&f.Value, &f.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *FlagRepo) Create(ctx context.Context, f *models.FeatureFlag) error {
	_, err := r.pool.Exec(ctx, "INSERT INTO feature_flags (key, value, description) VALUES ($1, $2, $3)",
		string(f.Key), f.Value, f.Description)
	return err
}

func (r *FlagRepo) SetValue(ctx context.Context, key models.FlagKey, value bool) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO feature_flags (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, string(key), value)
	return err
}

func (r *FlagRepo) SetDescription(ctx context.Context, key models.FlagKey, description *string) error {
	tag, err := r.pool.Exec(ctx, "UPDATE feature_flags SET description = $1 WHERE key = $2", description, string(key))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *FlagRepo) Delete(ctx context.Context, key models.FlagKey) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM feature_flags WHERE key = $1", string(key))
	return err
}

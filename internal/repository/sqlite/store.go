// Package sqlite backs the log and flag stores with a local SQLite file for
// development and single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"portfolio-backend/internal/models"
	"portfolio-backend/internal/repository"
)

var (
	_ repository.LogStore  = (*Store)(nil)
	_ repository.FlagStore = (*Store)(nil)
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, e *models.InteractionLogEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO llm_logs (id, timestamp, user_id, route, prompt, response, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Timestamp.UTC(), e.UserID, e.Route, e.Prompt, e.Response, string(e.Status), e.Error)
	return err
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]*models.InteractionLogEntry, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM llm_logs").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, timestamp, user_id, route, prompt, response, status, error
		FROM llm_logs ORDER BY timestamp DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []*models.InteractionLogEntry{}
	for rows.Next() {
		var (
			id, status string
			ts         time.Time
			userID     sql.NullString
			errMsg     sql.NullString
			e          = &models.InteractionLogEntry{}
		)
		if err := rows.Scan(&id, &ts, &userID, &e.Route, &e.Prompt, &e.Response, &status, &errMsg); err != nil {
			return nil, 0, err
		}
		e.ID, _ = uuid.Parse(id)
		e.Timestamp = ts
		e.Status = models.LogStatus(status)
		if userID.Valid {
			e.UserID = &userID.String
		}
		if errMsg.Valid {
			e.Error = &errMsg.String
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM llm_logs")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) ListFlags(ctx context.Context) ([]*models.FeatureFlag, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value, description FROM feature_flags ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flags := []*models.FeatureFlag{}
	for rows.Next() {
		var (
			key  string
			desc sql.NullString
			f    = &models.FeatureFlag{}
		)
		if err := rows.Scan(&key, &f.Value, &desc); err != nil {
			return nil, err
		}
		f.Key = models.FlagKey(key)
		if desc.Valid {
			f.Description = &desc.String
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

func (s *Store) Get(ctx context.Context, key models.FlagKey) (*models.FeatureFlag, error) {
	var desc sql.NullString
	f := &models.FeatureFlag{Key: key}
	err := s.db.QueryRowContext(ctx, "SELECT value, description FROM feature_flags WHERE key = ?", string(key)).
		Scan(&f.Value, &desc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		f.Description = &desc.String
	}
	return f, nil
}

func (s *Store) Create(ctx context.Context, f *models.FeatureFlag) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO feature_flags (key, value, description) VALUES (?, ?, ?)",
		string(f.Key), f.Value, f.Description)
	return err
}

func (s *Store) SetValue(ctx context.Context, key models.FlagKey, value bool) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO feature_flags (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, string(key), value)
	return err
}

func (s *Store) SetDescription(ctx context.Context, key models.FlagKey, description *string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE feature_flags SET description = ? WHERE key = ?", description, string(key))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key models.FlagKey) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM feature_flags WHERE key = ?", string(key))
	return err
}

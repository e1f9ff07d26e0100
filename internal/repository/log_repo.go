package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio-backend/internal/models"
)

type LogRepo struct {
	pool *pgxpool.Pool
}

func NewLogRepo(pool *pgxpool.Pool) *LogRepo {
	return &LogRepo{pool: pool}
}

func (r *LogRepo) Insert(ctx context.Context, e *models.InteractionLogEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	query := `INSERT INTO llm_logs (id, timestamp, user_id, route, prompt, response, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.Timestamp, e.UserID, e.Route, e.Prompt, e.Response, string(e.Status), e.Error,
	)
	return err
}

// List returns entries newest first along with the total row count.
func (r *LogRepo) List(ctx context.Context, limit, offset int) ([]*models.InteractionLogEntry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM llm_logs").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT id, timestamp, user_id, route, prompt, response, status, error
		FROM llm_logs ORDER BY timestamp DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []*models.InteractionLogEntry{}
	for rows.Next() {
		e := &models.InteractionLogEntry{}
		var status string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.UserID, &e.Route, &e.Prompt, &e.Response, &status, &e.Error); err != nil {
			return nil, 0, err
		}
		e.Status = models.LogStatus(status)
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *LogRepo) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, "DELETE FROM llm_logs")
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

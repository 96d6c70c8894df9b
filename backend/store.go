package backend

import (
	"context"

	"github.com/jackc/apod/backend/data"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is the PostgreSQL storage used by the pipeline and the status server.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// CreateTable ensures the apod table exists and is readable.
func (s *PgStore) CreateTable(ctx context.Context) error {
	err := data.CreateAPODTable(ctx, s.pool)
	if err != nil {
		return err
	}

	_, err = data.LoadAPODTable(ctx, s.pool)
	return err
}

func (s *PgStore) InsertRows(ctx context.Context, rows []data.APODRow) ([]int32, error) {
	return data.InsertAPODRows(ctx, s.pool, rows)
}

func (s *PgStore) Verify(ctx context.Context) (int, error) {
	return data.VerifyAPOD(ctx, s.pool)
}

func (s *PgStore) ListAPOD(ctx context.Context) ([]data.APOD, error) {
	return data.SelectAllAPOD(ctx, s.pool)
}

func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

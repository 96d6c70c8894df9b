package data

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgxutil"
)

// TxDB is a pgxutil.DB that can start a transaction. *pgxpool.Pool, *pgx.Conn and pgx.Tx all satisfy it.
type TxDB interface {
	pgxutil.DB
	Begin(ctx context.Context) (pgx.Tx, error)
}

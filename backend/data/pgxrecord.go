package data

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgxrecord"
)

// LoadAPODTable reads the column metadata of the apod table.
func LoadAPODTable(ctx context.Context, db pgxrecord.DB) (*pgxrecord.Table, error) {
	table := &pgxrecord.Table{
		Name: pgx.Identifier{"apod"},
	}
	err := table.LoadAllColumns(ctx, db)
	if err != nil {
		return nil, err
	}
	table.Finalize()

	return table, nil
}

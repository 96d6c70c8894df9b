package data

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgsql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgxutil"
)

// APODColumns are the columns InsertAPODRows writes, in the order of APODRow.Values.
var APODColumns = []string{"title", "explanation", "url", "date", "media_type", "hdurl", "service_version"}

// APODRow is one Astronomy Picture of the Day record as it is written to the apod table. A field that was absent from
// the API response is NULL.
type APODRow struct {
	Title          pgtype.Text `json:"title"`
	Explanation    pgtype.Text `json:"explanation"`
	URL            pgtype.Text `json:"url"`
	Date           pgtype.Text `json:"date"`
	MediaType      pgtype.Text `json:"media_type"`
	HDURL          pgtype.Text `json:"hdurl"`
	ServiceVersion pgtype.Text `json:"service_version"`
}

// Values returns the fields of r in APODColumns order.
func (r *APODRow) Values() []any {
	return []any{r.Title, r.Explanation, r.URL, r.Date, r.MediaType, r.HDURL, r.ServiceVersion}
}

// APOD is a stored APODRow.
type APOD struct {
	ID int32 `json:"id"`
	APODRow
}

const createAPODTableSQL = `create table if not exists apod (
  id serial primary key,
  title text,
  explanation text,
  url text,
  date date,
  media_type text,
  hdurl text,
  service_version text
)`

// CreateAPODTable creates the apod table unless it already exists.
func CreateAPODTable(ctx context.Context, db pgxutil.DB) error {
	_, err := db.Exec(ctx, createAPODTableSQL)
	return err
}

// InsertAPODRows appends rows to the apod table in a single transaction and returns the ids assigned to them. There is
// no uniqueness check; inserting the same row twice stores it twice.
func InsertAPODRows(ctx context.Context, db TxDB, rows []APODRow) ([]int32, error) {
	ids := make([]int32, 0, len(rows))

	err := pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		for i := range rows {
			id, err := insertAPODRow(ctx, tx, &rows[i])
			if err != nil {
				return fmt.Errorf("insert row %d: %w", i, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func insertAPODRow(ctx context.Context, db pgxutil.DB, row *APODRow) (int32, error) {
	args := pgsql.Args{}

	values := row.Values()
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = args.Use(v).String()
		// The date arrives as text from the API. Let the server parse it so a bad date is rejected by PostgreSQL.
		if APODColumns[i] == "date" {
			placeholders[i] += "::text::date"
		}
	}

	sql := `insert into apod(` + strings.Join(APODColumns, ", ") + `)
values(` + strings.Join(placeholders, ", ") + `)
returning id`

	rows, _ := db.Query(ctx, sql, args.Values()...)
	return pgx.CollectOneRow(rows, pgx.RowTo[int32])
}

const selectAPODSQL = `select
  id,
  title,
  explanation,
  url,
  date::text,
  media_type,
  hdurl,
  service_version
from apod
order by id`

func rowToAPOD(row pgx.CollectableRow) (APOD, error) {
	var a APOD
	err := row.Scan(&a.ID, &a.Title, &a.Explanation, &a.URL, &a.Date, &a.MediaType, &a.HDURL, &a.ServiceVersion)
	return a, err
}

// SelectAllAPOD returns every stored record ordered by id.
func SelectAllAPOD(ctx context.Context, db pgxutil.DB) ([]APOD, error) {
	rows, _ := db.Query(ctx, selectAPODSQL)
	return pgx.CollectRows(rows, rowToAPOD)
}

// VerifyAPOD runs the read-back query over the apod table and returns how many rows it produced. It makes no assertion
// about the content.
func VerifyAPOD(ctx context.Context, db pgxutil.DB) (int, error) {
	rows, err := db.Query(ctx, `select * from apod`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}

	return n, rows.Err()
}

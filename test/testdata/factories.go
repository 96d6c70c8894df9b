package testdata

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgxutil"
	"github.com/stretchr/testify/require"
)

var counter atomic.Int64

type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// APODResponse returns a complete APOD API response body. Keys in overrides replace the defaults; a nil value removes
// the key.
func APODResponse(overrides map[string]any) map[string]any {
	n := counter.Add(1)

	response := map[string]any{
		"title":           fmt.Sprintf("Picture %v", n),
		"explanation":     fmt.Sprintf("Explanation %v", n),
		"url":             fmt.Sprintf("https://apod.nasa.gov/apod/image/%v.jpg", n),
		"date":            "2024-01-01",
		"media_type":      "image",
		"hdurl":           fmt.Sprintf("https://apod.nasa.gov/apod/image/%v_hd.jpg", n),
		"service_version": "v1",
	}

	for k, v := range overrides {
		if v == nil {
			delete(response, k)
		} else {
			response[k] = v
		}
	}

	return response
}

// CreateAPOD inserts a record into the apod table. The table must already exist.
func CreateAPOD(t testing.TB, db DB, ctx context.Context, attrs map[string]any) map[string]any {
	n := counter.Add(1)

	if attrs == nil {
		attrs = make(map[string]any)
	}

	if _, ok := attrs["title"]; !ok {
		attrs["title"] = fmt.Sprintf("Picture %v", n)
	}
	if _, ok := attrs["url"]; !ok {
		attrs["url"] = fmt.Sprintf("https://apod.nasa.gov/apod/image/%v.jpg", n)
	}
	if _, ok := attrs["date"]; !ok {
		attrs["date"] = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if _, ok := attrs["media_type"]; !ok {
		attrs["media_type"] = "image"
	}

	apod, err := pgxutil.InsertRowReturning(ctx, db, "apod", attrs, "*", pgx.RowToMap)
	require.NoError(t, err)

	return apod
}

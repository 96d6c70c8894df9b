package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/apod/backend/data"
	"github.com/jackc/apod/test/testdata"
	"github.com/jackc/apod/test/testutil"
	"github.com/jackc/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var TestDBManager *testdb.Manager

func TestMain(m *testing.M) {
	TestDBManager = testutil.InitTestDBManager(m)
	os.Exit(m.Run())
}

func newAPODServer(t *testing.T, body []byte) *httptest.Server {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "test-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestPipelineLoadsSampleIntoPostgreSQL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool := testutil.AcquirePool(t, ctx, TestDBManager)

	ts := newAPODServer(t, []byte(sampleResponseBody))
	store := NewPgStore(pool)
	pipeline := NewPipeline(newTestFetcher(t, ts.URL), store, nil, discardLogger())

	result, err := pipeline.Run(ctx)
	require.NoError(t, err)
	require.Len(t, result.IDs, 1)
	assert.Equal(t, 1, result.RowCount)

	records, err := store.ListAPOD(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, result.IDs[0], records[0].ID)
	assert.Equal(t, data.APODRow{
		Title:          text("T"),
		Explanation:    text("E"),
		URL:            text("U"),
		Date:           text("2024-01-01"),
		MediaType:      text("image"),
		HDURL:          text("H"),
		ServiceVersion: text("v1"),
	}, records[0].APODRow)
}

func TestPipelineSameDayTwiceStoresTwoRows(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool := testutil.AcquirePool(t, ctx, TestDBManager)

	body, err := json.Marshal(testdata.APODResponse(map[string]any{"hdurl": nil}))
	require.NoError(t, err)
	ts := newAPODServer(t, body)
	store := NewPgStore(pool)
	pipeline := NewPipeline(newTestFetcher(t, ts.URL), store, nil, discardLogger())

	first, err := pipeline.Run(ctx)
	require.NoError(t, err)
	second, err := pipeline.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, second.RowCount)

	records, err := store.ListAPOD(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.IDs[0], records[0].ID)
	assert.Equal(t, second.IDs[0], records[1].ID)
	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.Equal(t, records[0].APODRow, records[1].APODRow)
	assert.False(t, records[0].HDURL.Valid)
}

func TestPipelineFailedFetchLoadsNothing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool := testutil.AcquirePool(t, ctx, TestDBManager)

	ts := newAPODServer(t, []byte(`{"title":`))
	store := NewPgStore(pool)
	pipeline := NewPipeline(newTestFetcher(t, ts.URL), store, nil, discardLogger())

	_, err := pipeline.Run(ctx)
	require.Error(t, err)

	// The table was still created by the first step.
	n, err := store.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

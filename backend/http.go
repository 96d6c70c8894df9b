package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/apod/backend/data"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "gopkg.in/inconshreveable/log15.v2"
)

// RecordReader is the read side of the store used by the status server.
type RecordReader interface {
	Ping(ctx context.Context) error
	ListAPOD(ctx context.Context) ([]data.APOD, error)
}

type environment struct {
	store  RecordReader
	logger log.Logger
}

type EnvHandlerFunc func(w http.ResponseWriter, req *http.Request, env *environment)

func EnvHandler(store RecordReader, logger log.Logger, f EnvHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		env := &environment{store: store, logger: logger}
		f(w, req, env)
	})
}

// NewStatusHandler returns the read-only HTTP interface: /health, /apod and /metrics.
func NewStatusHandler(store RecordReader, logger log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Method("GET", "/health", EnvHandler(store, logger, HealthHandler))
	r.Method("GET", "/apod", EnvHandler(store, logger, ListAPODHandler))
	r.Method("GET", "/metrics", promhttp.Handler())

	return r
}

func HealthHandler(w http.ResponseWriter, req *http.Request, env *environment) {
	if err := env.store.Ping(req.Context()); err != nil {
		env.logger.Error("health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "database unavailable")
		return
	}

	fmt.Fprintln(w, "ok")
}

func ListAPODHandler(w http.ResponseWriter, req *http.Request, env *environment) {
	records, err := env.store.ListAPOD(req.Context())
	if err != nil {
		env.logger.Error("ListAPOD failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, "Unable to list records")
		return
	}
	if records == nil {
		records = []data.APOD{}
	}

	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	if err := encoder.Encode(records); err != nil {
		env.logger.Error("encoding records failed", "error", err)
	}
}

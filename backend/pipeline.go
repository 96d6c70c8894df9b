package backend

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/apod/backend/data"
	log "gopkg.in/inconshreveable/log15.v2"
)

type Source interface {
	Fetch(ctx context.Context) (Response, error)
}

type Store interface {
	CreateTable(ctx context.Context) error
	InsertRows(ctx context.Context, rows []data.APODRow) ([]int32, error)
	Verify(ctx context.Context) (int, error)
}

// Notifier announces records that a run has loaded.
type Notifier interface {
	NotifyLoaded(ctx context.Context, runID string, rows []data.APODRow, ids []int32) error
}

// Step names in execution order.
const (
	StepCreateTable = "create_table"
	StepFetch       = "fetch"
	StepTransform   = "transform"
	StepLoad        = "load"
	StepNotify      = "notify"
	StepVerify      = "verify"
)

type RunResult struct {
	RunID string
	// IDs are the ids assigned to the rows loaded by this run.
	IDs []int32
	// RowCount is the number of rows the verification query returned.
	RowCount int
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// Pipeline is one forward pass from the APOD API to the apod table.
type Pipeline struct {
	source   Source
	store    Store
	notifier Notifier
	logger   log.Logger
}

// NewPipeline builds a pipeline. notifier may be nil.
func NewPipeline(source Source, store Store, notifier Notifier, logger log.Logger) *Pipeline {
	return &Pipeline{source: source, store: store, notifier: notifier, logger: logger}
}

// Run executes every step in order. The first failing step stops the run and is returned as a *StepError; the result
// still carries the run id and whatever earlier steps produced.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{RunID: uuid.NewString()}
	logger := p.logger.New("run", result.RunID)

	var response Response
	var rows []data.APODRow

	steps := []step{
		{StepCreateTable, func(ctx context.Context) error {
			return p.store.CreateTable(ctx)
		}},
		{StepFetch, func(ctx context.Context) (err error) {
			response, err = p.source.Fetch(ctx)
			return err
		}},
		{StepTransform, func(ctx context.Context) (err error) {
			rows, err = Transform(response)
			return err
		}},
		{StepLoad, func(ctx context.Context) (err error) {
			result.IDs, err = p.store.InsertRows(ctx, rows)
			if err == nil {
				apodRowsLoadedTotal.Add(float64(len(result.IDs)))
			}
			return err
		}},
	}
	if p.notifier != nil {
		steps = append(steps, step{StepNotify, func(ctx context.Context) error {
			return p.notifier.NotifyLoaded(ctx, result.RunID, rows, result.IDs)
		}})
	}
	steps = append(steps, step{StepVerify, func(ctx context.Context) (err error) {
		result.RowCount, err = p.store.Verify(ctx)
		if err == nil {
			apodRowsVerified.Set(float64(result.RowCount))
		}
		return err
	}})

	logger.Info("run started")
	for _, s := range steps {
		if err := p.runStep(ctx, logger, s); err != nil {
			pipelineRunsTotal.WithLabelValues("failure").Inc()
			logger.Error("run failed", "step", s.name, "error", err)
			return result, &StepError{Step: s.name, Err: err}
		}
	}
	pipelineRunsTotal.WithLabelValues("success").Inc()
	logger.Info("run succeeded", "ids", result.IDs, "rows", result.RowCount)

	return result, nil
}

func (p *Pipeline) runStep(ctx context.Context, logger log.Logger, s step) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	startTime := time.Now()
	logger.Debug("step started", "step", s.name)
	err := s.run(ctx)
	elapsed := time.Since(startTime)

	status := "success"
	if err != nil {
		status = "failure"
	}
	pipelineStepDuration.WithLabelValues(s.name, status).Observe(elapsed.Seconds())
	logger.Debug("step finished", "step", s.name, "status", status, "elapsed", elapsed)

	return err
}

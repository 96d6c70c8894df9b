package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/apod/backend"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
	log "gopkg.in/inconshreveable/log15.v2"
)

const version = "0.1.0"

func main() {
	app := cli.NewApp()
	app.Name = "apod"
	app.Usage = "Load NASA's Astronomy Picture of the Day into PostgreSQL"
	app.Version = version

	configFlag := cli.StringFlag{
		Name:  "config, c",
		Value: "apod.conf",
		Usage: "path to config file",
	}

	app.Commands = []cli.Command{
		{
			Name:        "run",
			Usage:       "run the pipeline once",
			Description: "create the apod table if needed, fetch today's record, store it and verify",
			Flags:       []cli.Flag{configFlag},
			Action:      Run,
		},
		{
			Name:        "schedule",
			Usage:       "run the pipeline daily",
			Description: "run the pipeline every day at schedule.time (UTC) and serve the status endpoints",
			Flags:       []cli.Flag{configFlag},
			Action:      Schedule,
		},
		{
			Name:   "create-table",
			Usage:  "create the apod table if it does not exist",
			Flags:  []cli.Flag{configFlag},
			Action: CreateTable,
		},
		{
			Name:   "verify",
			Usage:  "count the rows in the apod table",
			Flags:  []cli.Flag{configFlag},
			Action: Verify,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type environment struct {
	config *backend.Config
	logger log.Logger
	pool   *pgxpool.Pool
}

func (env *environment) Close() {
	env.pool.Close()
}

func newEnvironment(ctx context.Context, c *cli.Context) (*environment, error) {
	config, err := backend.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	logger, err := backend.NewLogger(config.Log)
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := backend.NewPool(connectCtx, config.Database, config.Log, logger)
	if err != nil {
		return nil, fmt.Errorf("Unable to create database connection pool: %v", err)
	}

	return &environment{config: config, logger: logger, pool: pool}, nil
}

func newPipeline(env *environment) (*backend.Pipeline, func(), error) {
	fetcher, err := backend.NewFetcher(env.config.NASA, env.logger.New("module", "fetcher"))
	if err != nil {
		return nil, nil, err
	}

	closer := func() {}
	var notifier backend.Notifier
	if env.config.NATS != nil {
		natsNotifier, err := backend.NewNATSNotifier(*env.config.NATS, env.logger.New("module", "nats"))
		if err != nil {
			return nil, nil, err
		}
		notifier = natsNotifier
		closer = natsNotifier.Close
	}

	store := backend.NewPgStore(env.pool)
	pipeline := backend.NewPipeline(fetcher, store, notifier, env.logger.New("module", "pipeline"))

	return pipeline, closer, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func Run(c *cli.Context) error {
	ctx, stop := signalContext()
	defer stop()

	env, err := newEnvironment(ctx, c)
	if err != nil {
		return err
	}
	defer env.Close()

	pipeline, closeNotifier, err := newPipeline(env)
	if err != nil {
		return err
	}
	defer closeNotifier()

	result, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s loaded %v; apod has %d rows\n", result.RunID, result.IDs, result.RowCount)
	return nil
}

func Schedule(c *cli.Context) error {
	ctx, stop := signalContext()
	defer stop()

	env, err := newEnvironment(ctx, c)
	if err != nil {
		return err
	}
	defer env.Close()

	pipeline, closeNotifier, err := newPipeline(env)
	if err != nil {
		return err
	}
	defer closeNotifier()

	g, ctx := errgroup.WithContext(ctx)

	scheduler := backend.NewScheduler(pipeline, env.config.RunAt, env.logger.New("module", "scheduler"))
	g.Go(func() error {
		return scheduler.KeepDaily(ctx)
	})

	if env.config.Server != nil {
		server := &http.Server{
			Addr:              env.config.Server.ListenAddr(),
			Handler:           backend.NewStatusHandler(backend.NewPgStore(env.pool), env.logger.New("module", "http")),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			env.logger.Info("Starting to listen", "address", server.Addr)
			err := server.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func CreateTable(c *cli.Context) error {
	ctx, stop := signalContext()
	defer stop()

	env, err := newEnvironment(ctx, c)
	if err != nil {
		return err
	}
	defer env.Close()

	return backend.NewPgStore(env.pool).CreateTable(ctx)
}

func Verify(c *cli.Context) error {
	ctx, stop := signalContext()
	defer stop()

	env, err := newEnvironment(ctx, c)
	if err != nil {
		return err
	}
	defer env.Close()

	n, err := backend.NewPgStore(env.pool).Verify(ctx)
	if err != nil {
		return err
	}

	fmt.Println(n, "rows")
	return nil
}

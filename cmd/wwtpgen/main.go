package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/prometheus/common/promlog"
	promlogflag "github.com/prometheus/common/promlog/flag"
	"github.com/prometheus/common/version"
	_ "go.uber.org/automaxprocs"

	"github.com/ppanyukov/wwtp-data-gen/pkg/config"
	"github.com/ppanyukov/wwtp-data-gen/pkg/generator"
	"github.com/ppanyukov/wwtp-data-gen/pkg/pipeline"
	"github.com/ppanyukov/wwtp-data-gen/pkg/sink"
	"github.com/ppanyukov/wwtp-data-gen/pkg/source"
)

// Generates synthetic 10 minute wastewater treatment plant data from a
// daily table and appends it to a database, for testing data pipelines.

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitProcessing = 2
	exitDelivery   = 3
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

func realMain(args []string) int {
	// a missing .env is fine, the environment may have it all
	dotenvErr := godotenv.Load()

	app := kingpin.New(filepath.Base(os.Args[0]), "Generates synthetic sub-hourly WWTP sensor data from a daily table.")
	app.Version(version.Print("wwtpgen"))
	app.HelpFlag.Short('h')

	var flags flagValues
	flags.register(app)

	promlogConfig := &promlog.Config{}
	promlogflag.AddFlags(app, promlogConfig)

	if _, err := app.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v, try --help\n", app.Name, err)
		return exitFailure
	}

	logger := promlog.New(promlogConfig)
	logger = log.With(logger, "run_id", uuid.New().String())

	if dotenvErr != nil {
		level.Debug(logger).Log("msg", "no .env file loaded", "err", dotenvErr)
	}

	cfg, err := flags.load()
	if err != nil {
		level.Error(logger).Log("msg", "invalid configuration", "err", err)
		return exitFailure
	}

	level.Info(logger).Log("msg", "starting wwtpgen", "version", version.Info(), "source", cfg.Source, "table", cfg.Table)

	metrics := pipeline.NewMetrics()
	res, err := runPipeline(logger, cfg, metrics)

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			level.Warn(logger).Log("msg", "writing metrics", "err", err)
		}
	}

	if err != nil {
		if kind, ok := pipeline.KindOf(err); ok {
			level.Error(logger).Log("msg", "Failed", "kind", kind, "err", err)
		} else {
			level.Error(logger).Log("msg", "Failed", "err", err)
		}
		return exitCode(err)
	}

	level.Info(logger).Log(
		"msg", "Data processed and written successfully",
		"size_mb", fmt.Sprintf("%.2f", res.SizeMB()),
		"records", res.Records,
		"elapsed", res.Elapsed,
	)
	return exitOK
}

// runPipeline runs the pipeline next to a signal handler which cancels it.
func runPipeline(logger log.Logger, cfg config.Config, metrics *pipeline.Metrics) (pipeline.Result, error) {
	genConfig, err := cfg.Generator()
	if err != nil {
		return pipeline.Result{}, err
	}

	writer, err := sink.New(logger, cfg.Destination)
	if err != nil {
		return pipeline.Result{}, errors.Wrap(err, "sink.New")
	}

	p := &pipeline.Pipeline{
		Logger:    logger,
		Generator: generator.NewGeneratorWithConfig(logger, genConfig),
		Loader:    source.NewLoader(cfg.Source, cfg.S3),
		Writer:    writer,
		Table:     cfg.Table,
		Metrics:   metrics,
	}

	var res pipeline.Result
	var g run.Group
	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			var err error
			res, err = p.Run(ctx)
			return err
		}, func(error) {
			cancel()
		})
	}
	{
		term := make(chan os.Signal, 1)
		signal.Notify(term, os.Interrupt, syscall.SIGTERM)
		cancel := make(chan struct{})
		g.Add(func() error {
			select {
			case sig := <-term:
				level.Warn(logger).Log("msg", "received signal, aborting", "signal", sig)
				return errors.Errorf("received %s", sig)
			case <-cancel:
				return nil
			}
		}, func(error) {
			signal.Stop(term)
			close(cancel)
		})
	}

	return res, g.Run()
}

// exitCode maps a run error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	kind, ok := pipeline.KindOf(err)
	if !ok {
		return exitFailure
	}

	switch kind {
	case pipeline.KindProcessing:
		return exitProcessing
	case pipeline.KindDelivery:
		return exitDelivery
	default:
		return exitFailure
	}
}

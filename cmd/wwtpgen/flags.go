package main

import (
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/ppanyukov/wwtp-data-gen/pkg/config"
)

// flagValues holds the parsed command line. Values only override the
// config file when given, except for source, destination and S3 settings
// which also come from the environment and override whenever non-empty.
type flagValues struct {
	configFile string

	source      string
	destination string

	table    string
	tableSet bool

	seed    int64
	seedSet bool

	noiseStdDev    float64
	noiseStdDevSet bool

	gridInterval    time.Duration
	gridIntervalSet bool

	outputStart    string
	outputStartSet bool

	windowMatchYear    bool
	windowMatchYearSet bool

	s3Endpoint  string
	s3AccessKey string
	s3SecretKey string
	s3UseSSL    bool

	metricsTextfile string
}

// register adds every flag to app.
func (f *flagValues) register(app *kingpin.Application) {
	def := config.Default()

	app.Flag("config.file", "YAML profile with the run settings. Flags override it.").
		PlaceHolder("<path>").StringVar(&f.configFile)

	app.Flag("source", "Daily source table: CSV file path or s3://bucket/key.").
		Envar("DATA_PATH").PlaceHolder("<location>").StringVar(&f.source)
	app.Flag("destination", "Where to append the series: postgres://... or tsdb:///dir.").
		Envar("DB_URL").PlaceHolder("<url>").StringVar(&f.destination)

	app.Flag("table", "Destination table.").
		Default(def.Table).IsSetByUser(&f.tableSet).StringVar(&f.table)
	app.Flag("seed", "Noise generator seed, 0 to 2^32-1.").
		Default("0").IsSetByUser(&f.seedSet).Int64Var(&f.seed)
	app.Flag("noise.stddev", "Standard deviation of the multiplicative noise.").
		Default("0.03").IsSetByUser(&f.noiseStdDevSet).Float64Var(&f.noiseStdDev)
	app.Flag("grid.interval", "Spacing of the generated samples.").
		Default(def.GridInterval.String()).IsSetByUser(&f.gridIntervalSet).DurationVar(&f.gridInterval)
	app.Flag("output.start", "First timestamp of the generated series.").
		Default(def.OutputStart).IsSetByUser(&f.outputStartSet).StringVar(&f.outputStart)
	app.Flag("window.match-year", "Keep only the last month of the last year, not that month of every year.").
		IsSetByUser(&f.windowMatchYearSet).BoolVar(&f.windowMatchYear)

	app.Flag("s3.endpoint", "S3 endpoint for s3:// sources.").
		Envar("S3_ENDPOINT").StringVar(&f.s3Endpoint)
	app.Flag("s3.access-key", "S3 access key.").
		Envar("S3_ACCESS_KEY").StringVar(&f.s3AccessKey)
	app.Flag("s3.secret-key", "S3 secret key.").
		Envar("S3_SECRET_KEY").StringVar(&f.s3SecretKey)
	app.Flag("s3.use-ssl", "Use TLS for S3.").
		Envar("S3_USE_SSL").BoolVar(&f.s3UseSSL)

	app.Flag("metrics.textfile", "Write run metrics to this file for the node_exporter textfile collector.").
		PlaceHolder("<path>").StringVar(&f.metricsTextfile)
}

// load builds the run config: defaults, then the config file, then flags.
func (f *flagValues) load() (config.Config, error) {
	cfg := config.Default()
	if f.configFile != "" {
		c, err := config.LoadFile(f.configFile)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}

	f.apply(&cfg)
	return cfg, cfg.Validate()
}

func (f *flagValues) apply(cfg *config.Config) {
	if f.source != "" {
		cfg.Source = f.source
	}
	if f.destination != "" {
		cfg.Destination = f.destination
	}
	if f.tableSet {
		cfg.Table = f.table
	}
	if f.seedSet {
		cfg.Seed = f.seed
	}
	if f.noiseStdDevSet {
		cfg.NoiseStdDev = f.noiseStdDev
	}
	if f.gridIntervalSet {
		cfg.GridInterval = f.gridInterval
	}
	if f.outputStartSet {
		cfg.OutputStart = f.outputStart
	}
	if f.windowMatchYearSet {
		cfg.WindowMatchYear = f.windowMatchYear
	}

	if f.s3Endpoint != "" {
		cfg.S3.Endpoint = f.s3Endpoint
	}
	if f.s3AccessKey != "" {
		cfg.S3.AccessKey = f.s3AccessKey
	}
	if f.s3SecretKey != "" {
		cfg.S3.SecretKey = f.s3SecretKey
	}
	if f.s3UseSSL {
		cfg.S3.UseSSL = true
	}

	if f.metricsTextfile != "" {
		cfg.MetricsTextfile = f.metricsTextfile
	}
}

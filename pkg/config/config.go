// Package config holds everything one generator run needs.
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ppanyukov/wwtp-data-gen/pkg/generator"
	"github.com/ppanyukov/wwtp-data-gen/pkg/sink"
	"github.com/ppanyukov/wwtp-data-gen/pkg/source"
)

// TimestampLayouts are accepted for OutputStart, tried in order.
var TimestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Config is the configuration of one run.
type Config struct {
	// Source is a CSV file path or s3://bucket/key.
	Source string `yaml:"source"`

	// Destination is the sink descriptor, see package sink.
	Destination string `yaml:"destination"`

	// Table is the relation rows are appended to.
	Table string `yaml:"table"`

	Seed         int64         `yaml:"seed"`
	NoiseStdDev  float64       `yaml:"noiseStdDev"`
	GridInterval time.Duration `yaml:"gridInterval"`

	// OutputStart is kept as text so the file can use any of TimestampLayouts.
	OutputStart     string `yaml:"outputStart"`
	WindowMatchYear bool   `yaml:"windowMatchYear"`

	S3 source.S3Config `yaml:"s3"`

	// MetricsTextfile, if set, receives the run metrics in text format.
	MetricsTextfile string `yaml:"metricsTextfile"`
}

// Default returns a copy of default config. Source and Destination have no
// defaults.
func Default() Config {
	g := generator.DefaultConfig()
	return Config{
		Table:           sink.DefaultTable,
		Seed:            g.Seed,
		NoiseStdDev:     g.NoiseStdDev,
		GridInterval:    g.GridInterval,
		OutputStart:     g.OutputStart.Format("2006-01-02T15:04:05"),
		WindowMatchYear: g.WindowMatchYear,
	}
}

// LoadFile reads a YAML profile over the defaults. Keys missing from the
// file keep their default values.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config file %s", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, errors.Wrapf(err, "parse config file %s", path)
	}

	return cfg, nil
}

// Validate checks the config is complete and consistent.
func (c Config) Validate() error {
	if c.Source == "" {
		return errors.New("source is not set")
	}
	if c.Destination == "" {
		return errors.New("destination is not set")
	}
	if c.Table == "" {
		return errors.New("table is not set")
	}
	if c.Seed < 0 || c.Seed > 1<<32-1 {
		return errors.Errorf("seed must be between 0 and 2^32-1, got %d", c.Seed)
	}

	g, err := c.Generator()
	if err != nil {
		return err
	}
	return g.Validate()
}

// Generator returns the generator part of the config.
func (c Config) Generator() (generator.Config, error) {
	start, err := ParseTimestamp(c.OutputStart)
	if err != nil {
		return generator.Config{}, err
	}

	return generator.Config{
		Seed:            c.Seed,
		NoiseStdDev:     c.NoiseStdDev,
		GridInterval:    c.GridInterval,
		OutputStart:     start,
		WindowMatchYear: c.WindowMatchYear,
	}, nil
}

// ParseTimestamp parses s with the first matching layout. Timestamps
// without zone are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range TimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("cannot parse timestamp %q, want e.g. 2023-06-10T22:00:00", s)
}

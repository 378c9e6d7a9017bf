package generator

import (
	"context"
	"time"

	"github.com/ppanyukov/wwtp-data-gen/pkg/series"
	"github.com/ppanyukov/wwtp-data-gen/pkg/source"
)

// DefaultOutputStart is where the output time axis begins unless configured.
var DefaultOutputStart = time.Date(2023, time.June, 10, 22, 0, 0, 0, time.UTC)

// Config is the configuration for the generator.
type Config struct {
	// Seed of the noise generator. Same seed, same source, same output.
	Seed int64

	// NoiseStdDev scales the standard normal noise draws.
	NoiseStdDev float64

	// GridInterval is the spacing of the regular grid the daily values are
	// spread over, and the spacing of the output time axis.
	GridInterval time.Duration

	// OutputStart is the first timestamp of the output.
	OutputStart time.Time

	// WindowMatchYear restricts the window to the year of the last
	// timestamp as well as its month.
	WindowMatchYear bool
}

// DefaultConfig returns a copy of default config.
func DefaultConfig() Config {
	return Config{
		Seed:            0,
		NoiseStdDev:     0.03,
		GridInterval:    10 * time.Minute,
		OutputStart:     DefaultOutputStart,
		WindowMatchYear: false,
	}
}

// Generator turns a daily source table into a synthetic sub-hourly series.
type Generator interface {
	// Generate loads the source and runs every stage. Errors are
	// always *DataProcessingError.
	Generate(ctx context.Context, loader source.Loader) (*series.Frame, error)
}

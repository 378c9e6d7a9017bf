package generator

import (
	"context"
	"sort"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"github.com/ppanyukov/wwtp-data-gen/pkg/randval"
	"github.com/ppanyukov/wwtp-data-gen/pkg/series"
	"github.com/ppanyukov/wwtp-data-gen/pkg/source"
)

// NewGenerator creates generator with default config.
func NewGenerator(logger log.Logger) Generator {
	return NewGeneratorWithConfig(logger, DefaultConfig())
}

// NewGeneratorWithConfig creates generator with the given config.
func NewGeneratorWithConfig(logger log.Logger, config Config) Generator {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &generatorT{
		logger: logger,
		config: config,
	}
}

// generatorT is implementation of Generator.
type generatorT struct {
	logger log.Logger
	config Config
}

func (g *generatorT) Generate(ctx context.Context, loader source.Loader) (*series.Frame, error) {
	if err := g.config.Validate(); err != nil {
		return nil, newError(InvalidConfig, err)
	}

	table, err := loader.Load(ctx)
	if err != nil {
		if errors.Cause(err) == source.ErrMalformed {
			return nil, newError(MalformedValue, err)
		}
		return nil, newError(SourceUnavailable, err)
	}
	level.Debug(g.logger).Log("msg", "source loaded", "rows", table.Len(), "columns", len(table.Columns))

	daily, err := Index(table)
	if err != nil {
		return nil, err
	}

	// one noise source per call, nothing shared between runs
	noise := randval.NewNormalVal(randval.Config{
		Mean:   0,
		StdDev: g.config.NoiseStdDev,
		Seed:   g.config.Seed,
	})

	out, err := Transform(daily, g.config, noise)
	if err != nil {
		return nil, err
	}

	level.Debug(g.logger).Log(
		"msg", "series generated",
		"daily_rows", daily.Len(),
		"output_rows", out.Len(),
		"mint", out.First(),
		"maxt", out.Last(),
	)
	return out, nil
}

// Validate checks the config values the stages depend on.
func (c Config) Validate() error {
	if c.GridInterval <= 0 {
		return errors.Errorf("grid interval must be positive, got %s", c.GridInterval)
	}
	if c.NoiseStdDev < 0 {
		return errors.Errorf("noise standard deviation must not be negative, got %v", c.NoiseStdDev)
	}
	if c.OutputStart.IsZero() {
		return errors.New("output start is not set")
	}
	return nil
}

// Index builds the daily series: one row per date made of the year, month
// and day columns, sorted by date.
func Index(table *source.Table) (*series.Frame, error) {
	if table.Len() == 0 {
		return nil, newError(EmptySeries, errors.New("source table has no rows"))
	}

	type dated struct {
		date time.Time
		row  []float64
	}

	rows := make([]dated, table.Len())
	for i := range table.Rows {
		date, err := civilDate(table.Years[i], table.Months[i], table.Days[i])
		if err != nil {
			return nil, newError(MalformedDate, errors.Wrapf(err, "row %d", i+1))
		}
		rows[i] = dated{date: date, row: table.Rows[i]}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].date.Before(rows[j].date)
	})

	index := make([]time.Time, len(rows))
	values := make([][]float64, len(rows))
	for i, r := range rows {
		if i > 0 && r.date.Equal(index[i-1]) {
			return nil, newError(DuplicateDate, errors.Errorf("date %s appears more than once", r.date.Format("2006-01-02")))
		}
		index[i] = r.date
		values[i] = r.row
	}

	f, err := series.NewFrame(index, table.Columns, values)
	if err != nil {
		return nil, newError(MalformedValue, err)
	}
	return f, nil
}

// civilDate returns midnight UTC of the given day, failing on anything
// time.Date would have to normalise, like February 30.
func civilDate(year, month, day int) (time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, errors.Errorf("month %d out of range", month)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	y, m, d := t.Date()
	if y != year || int(m) != month || d != day {
		return time.Time{}, errors.Errorf("%04d-%02d-%02d is not a calendar date", year, month, day)
	}
	return t, nil
}

// Transform runs the stages after loading: regularise onto the grid,
// forward fill, perturb with the given noise, window to the last month and
// relabel onto the output time axis.
func Transform(daily *series.Frame, config Config, noise randval.ValSeq) (*series.Frame, error) {
	if err := config.Validate(); err != nil {
		return nil, newError(InvalidConfig, err)
	}

	grid, err := series.Regularize(daily, config.GridInterval)
	if err != nil {
		return nil, newError(EmptySeries, errors.Wrap(err, "series.Regularize"))
	}

	filled := series.DropUnresolved(series.ForwardFill(grid))
	if filled.Len() == 0 {
		return nil, newError(EmptySeries, errors.New("no row has a value in every column"))
	}

	noisy := series.Perturb(filled, noise)

	window, err := series.WindowLastMonth(noisy, config.WindowMatchYear)
	if err != nil {
		return nil, newError(EmptySeries, errors.Wrap(err, "series.WindowLastMonth"))
	}

	out, err := series.Relabel(window, config.OutputStart, config.GridInterval)
	if err != nil {
		return nil, newError(InvalidConfig, errors.Wrap(err, "series.Relabel"))
	}
	return out, nil
}

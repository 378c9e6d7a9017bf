package sink

import (
	"context"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/prometheus/model/labels"
	"github.com/prometheus/prometheus/model/timestamp"
	"github.com/prometheus/prometheus/storage"
	"github.com/prometheus/prometheus/tsdb"

	"github.com/ppanyukov/wwtp-data-gen/pkg/series"
)

// MetricPrefix is prepended to sanitised column names to make metric names.
const MetricPrefix = "wwtp_"

// NewBlockWriter creates writer producing Prometheus TSDB blocks in dir.
func NewBlockWriter(logger log.Logger, dir string) (Writer, error) {
	if dir == "" {
		return nil, errors.New("tsdb output directory is not set")
	}

	return &blockWriterT{
		logger: logger,
		dir:    dir,
	}, nil
}

// blockWriterT is implementation of Writer for TSDB blocks.
type blockWriterT struct {
	// logger is given to us as arg
	logger log.Logger

	// dir is output directory, given to us as arg
	dir string
}

func (w *blockWriterT) Name() string {
	return "tsdb://" + w.dir
}

// Write puts every column of f into one block as its own series, labelled
// with the table name.
func (w *blockWriterT) Write(ctx context.Context, table string, f *series.Frame) error {
	if f.Len() == 0 {
		return errors.New("nothing to write")
	}

	mint := timestamp.FromTime(f.First())
	maxt := timestamp.FromTime(f.Last())

	// The head only accepts samples within its chunk range, make sure the
	// whole frame fits.
	blockSize := max(tsdb.DefaultBlockDuration, 2*(maxt-mint+1))

	writer, err := tsdb.NewBlockWriter(w.logger, w.dir, blockSize)
	if err != nil {
		return errors.Wrap(err, "tsdb.NewBlockWriter")
	}
	defer writer.Close()

	app := writer.Appender(ctx)
	sampleCount := 0
	for j, column := range f.Columns {
		lbls := labels.FromStrings(labels.MetricName, MetricName(column), "table", table)

		var ref storage.SeriesRef
		for i, ts := range f.Index {
			if ref, err = app.Append(ref, lbls, timestamp.FromTime(ts), f.Rows[i][j]); err != nil {
				app.Rollback()
				return errors.Wrapf(err, "append %s", lbls)
			}
			sampleCount++
		}
	}

	if err := app.Commit(); err != nil {
		return errors.Wrap(err, "appender.Commit")
	}

	id, err := writer.Flush(ctx)
	if err != nil {
		return errors.Wrap(err, "flush block")
	}

	level.Info(w.logger).Log(
		"msg", "block written",
		"dir", w.dir,
		"block", id,
		"series_count", len(f.Columns),
		"sample_count", sampleCount,
		"mint", timestamp.Time(mint).Format(time.RFC3339),
		"maxt", timestamp.Time(maxt).Format(time.RFC3339),
	)
	return nil
}

// MetricName turns a column name like "Average Inflow" into a valid metric
// name, wwtp_average_inflow.
func MetricName(column string) string {
	var b strings.Builder
	b.WriteString(MetricPrefix)

	underscore := true
	for _, r := range strings.ToLower(column) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			underscore = false
		case !underscore:
			b.WriteByte('_')
			underscore = true
		}
	}

	return strings.TrimSuffix(b.String(), "_")
}

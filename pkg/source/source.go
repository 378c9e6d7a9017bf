// Package source reads the daily-grain source table.
//
// The table is a CSV file with integer year, month and day columns plus
// any number of numeric sensor columns. It is read either from the local
// filesystem or, for locations of the form s3://bucket/key, from an S3
// compatible object store.
package source

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// Names of the date triple columns.
const (
	YearColumn  = "year"
	MonthColumn = "month"
	DayColumn   = "day"
)

// ErrMalformed is the cause of every error about table contents, as opposed
// to errors reaching the table.
var ErrMalformed = errors.New("malformed source table")

// S3Config holds the object store connection settings.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	UseSSL    bool   `yaml:"useSSL"`
}

// Table is the raw source table: the date triple and the sensor values of
// each row, in file order.
type Table struct {
	Years   []int
	Months  []int
	Days    []int
	Columns []string

	// Rows[i] holds one value per entry of Columns; missing cells are NaN.
	Rows [][]float64
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Loader gives the generator its source table.
type Loader interface {
	Load(ctx context.Context) (*Table, error)
}

// NewLoader creates a loader for the given location.
func NewLoader(location string, s3 S3Config) Loader {
	return &loaderT{location: location, s3: s3}
}

// loaderT implements Loader.
type loaderT struct {
	location string
	s3       S3Config
}

func (l *loaderT) Load(ctx context.Context) (*Table, error) {
	r, err := Open(ctx, l.location, l.s3)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return ReadTable(r)
}

// Open opens the source location for reading.
func Open(ctx context.Context, location string, s3 S3Config) (io.ReadCloser, error) {
	if location == "" {
		return nil, errors.New("source location is not set")
	}

	if bucket, key, ok := parseS3(location); ok {
		return openS3(ctx, s3, bucket, key)
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", location)
	}
	return f, nil
}

func parseS3(location string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(location, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

func openS3(ctx context.Context, cfg S3Config, bucket, key string) (io.ReadCloser, error) {
	if cfg.Endpoint == "" {
		return nil, errors.Errorf("s3 endpoint is not set, cannot read s3://%s/%s", bucket, key)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "minio.New")
	}

	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "get object s3://%s/%s", bucket, key)
	}

	// GetObject is lazy, Stat makes missing objects fail here rather than
	// half way through parsing.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, errors.Wrapf(err, "stat object s3://%s/%s", bucket, key)
	}

	return obj, nil
}

// ReadTable parses a CSV source table.
func ReadTable(r io.Reader) (*Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.WithTypes(map[string]series.Type{
			YearColumn:  series.Int,
			MonthColumn: series.Int,
			DayColumn:   series.Int,
		}),
	)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "dataframe.ReadCSV")
	}

	names := df.Names()
	for _, required := range []string{YearColumn, MonthColumn, DayColumn} {
		if !contains(names, required) {
			return nil, errors.Wrapf(ErrMalformed, "column %q is missing", required)
		}
	}

	table := &Table{}
	var err error
	if table.Years, err = df.Col(YearColumn).Int(); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "column %q: %v", YearColumn, err)
	}
	if table.Months, err = df.Col(MonthColumn).Int(); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "column %q: %v", MonthColumn, err)
	}
	if table.Days, err = df.Col(DayColumn).Int(); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "column %q: %v", DayColumn, err)
	}

	var values [][]float64
	for _, name := range names {
		if name == YearColumn || name == MonthColumn || name == DayColumn {
			continue
		}

		col := df.Col(name)
		switch col.Type() {
		case series.Float, series.Int:
		default:
			return nil, errors.Wrapf(ErrMalformed, "column %q is not numeric", name)
		}

		table.Columns = append(table.Columns, name)
		values = append(values, col.Float())
	}

	if len(table.Columns) == 0 {
		return nil, errors.Wrap(ErrMalformed, "no sensor columns")
	}

	table.Rows = make([][]float64, df.Nrow())
	for i := range table.Rows {
		row := make([]float64, len(values))
		for j, col := range values {
			row[j] = col[i]
		}
		table.Rows[i] = row
	}

	return table, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

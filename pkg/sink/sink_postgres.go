package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/ppanyukov/wwtp-data-gen/pkg/series"
)

// IndexColumn is the name of the timestamp column.
const IndexColumn = "index"

// DefaultConnectTimeout bounds connecting when the descriptor sets no
// connect_timeout of its own.
const DefaultConnectTimeout = 10 * time.Second

// NewPostgresWriter creates writer appending to Postgres tables.
func NewPostgresWriter(logger log.Logger, connString string) (Writer, error) {
	config, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "pgx.ParseConfig")
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}

	return &postgresWriterT{
		logger: logger,
		config: config,
	}, nil
}

// postgresWriterT is implementation of Writer for Postgres.
type postgresWriterT struct {
	logger log.Logger
	config *pgx.ConnConfig
}

func (w *postgresWriterT) Name() string {
	return fmt.Sprintf("postgres://%s@%s:%d/%s", w.config.User, w.config.Host, w.config.Port, w.config.Database)
}

func (w *postgresWriterT) Write(ctx context.Context, table string, f *series.Frame) error {
	if f.Len() == 0 {
		return errors.New("nothing to write")
	}

	conn, err := pgx.ConnectConfig(ctx, w.config)
	if err != nil {
		return errors.Wrap(err, "pgx.ConnectConfig")
	}
	defer func() {
		// ctx may be cancelled by now, closing must still happen
		if err := conn.Close(context.Background()); err != nil {
			level.Warn(w.logger).Log("msg", "closing postgres connection", "err", err)
		}
	}()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	// no-op once committed
	defer tx.Rollback(context.Background())

	if _, err := tx.Exec(ctx, createTableSQL(table, f.Columns)); err != nil {
		return errors.Wrapf(err, "create table %s", table)
	}
	if _, err := tx.Exec(ctx, createIndexSQL(table)); err != nil {
		return errors.Wrapf(err, "create index on %s", table)
	}

	columns := append([]string{IndexColumn}, f.Columns...)
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromSlice(f.Len(), func(i int) ([]any, error) {
		row := make([]any, 0, len(columns))
		row = append(row, f.Index[i])
		for _, v := range f.Rows[i] {
			row = append(row, v)
		}
		return row, nil
	}))
	if err != nil {
		return errors.Wrapf(err, "copy into %s", table)
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit")
	}

	level.Info(w.logger).Log("msg", "rows appended", "table", table, "rows", copied, "columns", len(columns))
	return nil
}

// createTableSQL returns the statement creating table with a timestamp
// index column and a double precision column per sensor, if missing. An
// existing table is left as it is, so a mismatch fails the copy.
func createTableSQL(table string, columns []string) string {
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, pgx.Identifier{IndexColumn}.Sanitize()+" timestamp without time zone")
	for _, c := range columns {
		defs = append(defs, pgx.Identifier{c}.Sanitize()+" double precision")
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pgx.Identifier{table}.Sanitize(), strings.Join(defs, ", "))
}

func createIndexSQL(table string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		pgx.Identifier{"ix_" + table + "_" + IndexColumn}.Sanitize(),
		pgx.Identifier{table}.Sanitize(),
		pgx.Identifier{IndexColumn}.Sanitize(),
	)
}

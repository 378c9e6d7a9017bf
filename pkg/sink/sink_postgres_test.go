package sink

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"
)

// PostgresWriterTestSuite needs a scratch database, given by
// WWTPGEN_TEST_DB_URL, and is skipped without one.
type PostgresWriterTestSuite struct {
	suite.Suite
	connString string
	table      string
}

func TestPostgresWriterSuite(t *testing.T) {
	connString := os.Getenv("WWTPGEN_TEST_DB_URL")
	if connString == "" {
		t.Skip("WWTPGEN_TEST_DB_URL is not set")
	}
	suite.Run(t, &PostgresWriterTestSuite{connString: connString})
}

func (s *PostgresWriterTestSuite) SetupTest() {
	s.table = fmt.Sprintf("wwtp_data_test_%d", time.Now().UnixNano())
}

func (s *PostgresWriterTestSuite) TearDownTest() {
	s.exec("DROP TABLE IF EXISTS " + pgx.Identifier{s.table}.Sanitize())
}

func (s *PostgresWriterTestSuite) exec(sql string) {
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, s.connString)
	s.Require().NoError(err)
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, sql)
	s.Require().NoError(err)
}

func (s *PostgresWriterTestSuite) count() int {
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, s.connString)
	s.Require().NoError(err)
	defer conn.Close(ctx)

	var n int
	s.Require().NoError(conn.QueryRow(ctx, "SELECT count(*) FROM "+pgx.Identifier{s.table}.Sanitize()).Scan(&n))
	return n
}

func (s *PostgresWriterTestSuite) TestWriteAppends() {
	w, err := NewPostgresWriter(log.NewNopLogger(), s.connString)
	s.Require().NoError(err)

	f := testFrame(s.T())
	s.Require().NoError(w.Write(context.Background(), s.table, f))
	s.Require().NoError(w.Write(context.Background(), s.table, f))

	s.Equal(2*f.Len(), s.count())
}

func (s *PostgresWriterTestSuite) TestWriteSchemaMismatch() {
	s.exec("CREATE TABLE " + pgx.Identifier{s.table}.Sanitize() + ` ("index" timestamp, "other" double precision)`)

	w, err := NewPostgresWriter(log.NewNopLogger(), s.connString)
	s.Require().NoError(err)

	s.Error(w.Write(context.Background(), s.table, testFrame(s.T())))
	s.Equal(0, s.count())
}

func (s *PostgresWriterTestSuite) TestWriteUnreachable() {
	w, err := NewPostgresWriter(log.NewNopLogger(), "postgres://wwtp@127.0.0.1:1/none?connect_timeout=1")
	s.Require().NoError(err)

	s.Error(w.Write(context.Background(), s.table, testFrame(s.T())))
}

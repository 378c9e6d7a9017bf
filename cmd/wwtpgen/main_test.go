package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppanyukov/wwtp-data-gen/pkg/generator"
	"github.com/ppanyukov/wwtp-data-gen/pkg/pipeline"
)

func parseFlags(t *testing.T, args ...string) *flagValues {
	t.Helper()

	app := kingpin.New("wwtpgen", "")
	var flags flagValues
	flags.register(app)

	_, err := app.Parse(args)
	require.NoError(t, err)
	return &flags
}

func Test_flagValues_load(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("source: from-file.csv\nseed: 9\ntable: fixtures\ngridInterval: 5m\n"), 0o644))

	flags := parseFlags(t,
		"--config.file", profile,
		"--destination", "postgres://localhost/db",
		"--seed", "11",
	)

	cfg, err := flags.load()
	require.NoError(t, err)

	assert.Equal(t, "from-file.csv", cfg.Source)
	assert.Equal(t, "postgres://localhost/db", cfg.Destination)
	assert.Equal(t, int64(11), cfg.Seed, "flag beats file")
	assert.Equal(t, "fixtures", cfg.Table, "file beats flag default")
	assert.Equal(t, 5*time.Minute, cfg.GridInterval)
	assert.Equal(t, 0.03, cfg.NoiseStdDev)
}

func Test_flagValues_load_noFile(t *testing.T) {
	flags := parseFlags(t,
		"--source", "data.csv",
		"--destination", "tsdb:///tmp/blocks",
		"--window.match-year",
		"--output.start", "2024-02-01 00:00:00",
	)

	cfg, err := flags.load()
	require.NoError(t, err)
	assert.Equal(t, "wwtp_data", cfg.Table)
	assert.True(t, cfg.WindowMatchYear)

	g, err := cfg.Generator()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), g.OutputStart)
}

func Test_flagValues_load_invalid(t *testing.T) {
	_, err := parseFlags(t, "--source", "data.csv").load()
	assert.Error(t, err, "destination missing")

	_, err = parseFlags(t, "--source", "data.csv", "--destination", "postgres://x/db", "--grid.interval", "0s").load()
	assert.Error(t, err)
}

func Test_exitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitFailure, exitCode(errors.New("received interrupt")))
	assert.Equal(t, exitProcessing, exitCode(&pipeline.Error{
		Kind: pipeline.KindProcessing,
		Err:  &generator.DataProcessingError{Reason: generator.MalformedDate, Err: errors.New("2023-02-30")},
	}))
	assert.Equal(t, exitDelivery, exitCode(errors.Wrap(&pipeline.Error{Kind: pipeline.KindDelivery, Err: errors.New("refused")}, "run")))
}

func Test_realMain_processingFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.csv")
	blocks := t.TempDir()

	code := realMain([]string{"--source", missing, "--destination", "tsdb://" + blocks, "--log.level", "error"})
	assert.Equal(t, exitProcessing, code)

	entries, err := os.ReadDir(blocks)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing written")
}

func Test_realMain_tsdb(t *testing.T) {
	dir := t.TempDir()
	csv := filepath.Join(dir, "daily.csv")
	require.NoError(t, os.WriteFile(csv, []byte("year,month,day,flow\n2023,1,1,10\n2023,1,2,20\n2023,1,3,30\n"), 0o644))

	blocks := filepath.Join(dir, "blocks")
	metrics := filepath.Join(dir, "wwtpgen.prom")

	code := realMain([]string{
		"--source", csv,
		"--destination", "tsdb://" + blocks,
		"--metrics.textfile", metrics,
		"--log.level", "error",
	})
	require.Equal(t, exitOK, code)

	entries, err := os.ReadDir(blocks)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = os.Stat(metrics)
	assert.NoError(t, err)
}

package source

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Average Outflow,Average Inflow,Ammonia,year,month,day
2.941,2.589,27.0,2014,1,1
2.936,2.961,25.0,2014,1,2
2.928,3.225,,2014,1,3
`

func Test_ReadTable(t *testing.T) {
	table, err := ReadTable(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"Average Outflow", "Average Inflow", "Ammonia"}, table.Columns)
	assert.Equal(t, []int{2014, 2014, 2014}, table.Years)
	assert.Equal(t, []int{1, 1, 1}, table.Months)
	assert.Equal(t, []int{1, 2, 3}, table.Days)

	assert.Equal(t, []float64{2.941, 2.589, 27.0}, table.Rows[0])
	assert.Equal(t, 3.225, table.Rows[2][1])
	assert.True(t, math.IsNaN(table.Rows[2][2]))
}

func Test_ReadTable_intSensorColumn(t *testing.T) {
	table, err := ReadTable(strings.NewReader("year,month,day,count\n2020,5,1,7\n2020,5,2,9\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{7}, {9}}, table.Rows)
}

func Test_ReadTable_malformed(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"missing day column", "year,month,flow\n2020,1,3.5\n"},
		{"text sensor column", "year,month,day,site\n2020,1,1,north\n2020,1,2,south\n"},
		{"no sensor columns", "year,month,day\n2020,1,1\n"},
		{"missing year value", "year,month,day,flow\n,1,1,3.5\n2020,1,2,3.6\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTable(strings.NewReader(tt.csv))
			require.Error(t, err)
			assert.Equal(t, ErrMalformed, errors.Cause(err))
		})
	}
}

func Test_loaderT_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wwtp.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	table, err := NewLoader(path, S3Config{}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}

func Test_Open_errors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, "", S3Config{})
	assert.Error(t, err)

	_, err = Open(ctx, filepath.Join(t.TempDir(), "does-not-exist.csv"), S3Config{})
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))

	_, err = Open(ctx, "s3://bucket/data.csv", S3Config{})
	assert.Error(t, err)
}

func Test_parseS3(t *testing.T) {
	tests := []struct {
		location string
		bucket   string
		key      string
		ok       bool
	}{
		{"s3://fixtures/wwtp/melbourne.csv", "fixtures", "wwtp/melbourne.csv", true},
		{"s3://fixtures/", "", "", false},
		{"s3://", "", "", false},
		{"/data/melbourne.csv", "", "", false},
	}

	for _, tt := range tests {
		bucket, key, ok := parseS3(tt.location)
		assert.Equal(t, tt.ok, ok, tt.location)
		assert.Equal(t, tt.bucket, bucket, tt.location)
		assert.Equal(t, tt.key, key, tt.location)
	}
}

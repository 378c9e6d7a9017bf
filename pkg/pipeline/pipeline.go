// Package pipeline runs the generator and hands its output to the sink,
// turning every failure into an *Error of a known Kind.
package pipeline

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/ppanyukov/wwtp-data-gen/pkg/generator"
	"github.com/ppanyukov/wwtp-data-gen/pkg/sink"
	"github.com/ppanyukov/wwtp-data-gen/pkg/source"
)

// Pipeline is one load, generate and write run.
type Pipeline struct {
	Logger    log.Logger
	Generator generator.Generator
	Loader    source.Loader
	Writer    sink.Writer
	Table     string

	// Metrics is optional.
	Metrics *Metrics
}

// Result describes what a run wrote.
type Result struct {
	Records int
	Columns int
	Bytes   int64
	Elapsed time.Duration
}

// SizeMB returns Bytes in mebibytes.
func (r Result) SizeMB() float64 {
	return float64(r.Bytes) / (1024 * 1024)
}

// Run generates the series and writes it. The writer is only called once
// the series has been generated in full.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	logger := p.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	start := time.Now()
	var res Result

	fail := func(kind Kind, err error) (Result, error) {
		res.Elapsed = time.Since(start)
		if p.Metrics != nil {
			p.Metrics.observeFailure(kind, res)
		}
		return res, &Error{Kind: kind, Err: err}
	}

	level.Debug(logger).Log("msg", "generating series")
	out, err := p.Generator.Generate(ctx, p.Loader)
	if err != nil {
		return fail(KindProcessing, err)
	}
	res.Records = out.Len()
	res.Columns = len(out.Columns)
	res.Bytes = out.SizeBytes()

	level.Debug(logger).Log("msg", "writing series", "destination", p.Writer.Name(), "table", p.Table, "records", res.Records)
	if err := p.Writer.Write(ctx, p.Table, out); err != nil {
		return fail(KindDelivery, err)
	}

	res.Elapsed = time.Since(start)
	if p.Metrics != nil {
		p.Metrics.observeSuccess(res)
	}
	return res, nil
}

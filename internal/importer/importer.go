package importer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"trendseed/cli/internal/backend"
	apperr "trendseed/cli/internal/errors"
	"trendseed/cli/internal/source"

	"golang.org/x/time/rate"
)

// RowError describes one row that could not be imported.
type RowError struct {
	Line        int
	SubCategory string
	Err         error
}

func (e *RowError) Error() string {
	if e.SubCategory == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.SubCategory, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Outcome is the result of one processed row.
type Outcome string

const (
	Imported Outcome = "imported"
	Failed   Outcome = "failed"
	Skipped  Outcome = "skipped"
)

// RowEvent is reported after every row.
type RowEvent struct {
	Line    int
	Record  Record
	Outcome Outcome
	// Err is set when Outcome is Failed.
	Err *RowError
}

// Result aggregates an import run.
type Result struct {
	Imported int
	Failed   int
	Skipped  int
	Failures []*RowError
	// Stopped is the read or context error that ended the loop early, if any.
	Stopped error
}

// Processed returns the number of rows that reached the backend or failed parsing.
func (r Result) Processed() int { return r.Imported + r.Failed }

// Importer posts rows to a collection.
type Importer struct {
	api        backend.API
	collection string
	limiter    *rate.Limiter
	onRow      func(RowEvent)
}

// Option configures an Importer.
type Option func(*Importer)

// WithRate caps record creation at perSecond requests per second. Zero or less
// means unlimited.
func WithRate(perSecond float64) Option {
	return func(im *Importer) {
		if perSecond > 0 {
			im.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithOnRow registers a callback invoked after every row.
func WithOnRow(fn func(RowEvent)) Option {
	return func(im *Importer) { im.onRow = fn }
}

// New returns an Importer for collection.
func New(api backend.API, collection string, opts ...Option) *Importer {
	im := &Importer{
		api:        api,
		collection: collection,
		limiter:    rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

func (im *Importer) emit(ev RowEvent) {
	if im.onRow != nil {
		im.onRow(ev)
	}
}

// Run reads every remaining row of r and creates one record per valid row.
// Row-level failures are collected in the result and never end the run. A
// terminal read error or a canceled context stops the loop and is kept in
// Result.Stopped.
func (im *Importer) Run(ctx context.Context, token string, r source.Reader) Result {
	var res Result
	for {
		if err := ctx.Err(); err != nil {
			res.Stopped = err
			return res
		}

		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			return res
		}
		if err != nil {
			if apperr.IsKind(err, apperr.RowImport) {
				im.fail(&res, RowEvent{Line: row.Line}, err)
				continue
			}
			res.Stopped = apperr.Wrap(apperr.Source, "read source", err)
			return res
		}

		if row.Empty() {
			res.Skipped++
			im.emit(RowEvent{Line: row.Line, Outcome: Skipped})
			continue
		}

		rec, err := ParseRow(row)
		if err != nil {
			im.fail(&res, RowEvent{Line: row.Line}, err)
			continue
		}

		if err := im.limiter.Wait(ctx); err != nil {
			res.Stopped = err
			return res
		}

		ev := RowEvent{Line: row.Line, Record: rec}
		if _, err := im.api.CreateRecord(ctx, token, im.collection, rec); err != nil {
			im.fail(&res, ev, apperr.Wrap(apperr.RowImport, "create record", err))
			continue
		}
		res.Imported++
		ev.Outcome = Imported
		im.emit(ev)
	}
}

func (im *Importer) fail(res *Result, ev RowEvent, err error) {
	rerr := &RowError{Line: ev.Line, SubCategory: ev.Record.SubCategory, Err: err}
	res.Failed++
	res.Failures = append(res.Failures, rerr)
	ev.Outcome = Failed
	ev.Err = rerr
	im.emit(ev)
}

package batch

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/star/emmproc/internal/geomag"
	"github.com/star/emmproc/internal/metrics"
	"github.com/star/emmproc/internal/model"
	"github.com/star/emmproc/internal/query"
)

// ModelSelector returns the time-adjusted model for a decimal year.
type ModelSelector interface {
	SelectFor(decimalYear float64) *model.Model
	MinYear() float64
	MaxYear() float64
}

// FieldEvaluator computes field elements and gradients from a model.
type FieldEvaluator interface {
	Evaluate(m *model.Model, p geomag.Point) geomag.Elements
	Gradient(m *model.Model, p geomag.Point) geomag.Gradient
}

// Summary describes a finished run.
type Summary struct {
	Processed int  // records evaluated and written
	Warnings  int  // soft out-of-range warnings
	Aborted   bool // a hard record error stopped the run
	Line      int  // input line of the failing record when Aborted
}

// Report writes the end-of-run console summary.
func (s Summary) Report(w io.Writer) {
	fmt.Fprintf(w, "\n Processed %d lines\n\n", s.Processed)
	if s.Aborted {
		fmt.Fprint(w, "Terminated prematurely due to argument error in coordinate file\n\n")
	}
}

// RecordError wraps the hard error that stopped a run.
type RecordError struct {
	Line   int // 1-based input line, 0 for a command line query
	Tokens []string
	Err    error
}

func (e *RecordError) Error() string {
	if e.Line == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Driver evaluates query records one at a time, in input order.
type Driver struct {
	selector  ModelSelector
	evaluator FieldEvaluator
	gradient  bool
	logger    *slog.Logger
}

// NewDriver creates a Driver. With gradient set, each output line also
// carries the nine spatial derivative columns.
func NewDriver(selector ModelSelector, evaluator FieldEvaluator, gradient bool, logger *slog.Logger) *Driver {
	return &Driver{
		selector:  selector,
		evaluator: evaluator,
		gradient:  gradient,
		logger:    logger,
	}
}

// RunFile processes a batch input of one five-token record per line and
// writes the header and one result line per record to out. Blank lines are
// skipped and tokens past the fifth are ignored. The first hard record
// error stops the run; lines already written are kept.
func (d *Driver) RunFile(in io.Reader, out io.Writer) (Summary, error) {
	var sum Summary
	w := bufio.NewWriter(out)

	if err := WriteHeader(w, d.gradient); err != nil {
		return sum, fmt.Errorf("writing header: %w", err)
	}

	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) > query.NumTokens {
			fields = fields[:query.NumTokens]
		}

		q, err := query.Parse(fields, query.ModeBatch)
		if err != nil {
			d.logger.Error("record rejected, terminating batch",
				"line", line,
				"tokens", strings.Join(fields, " "),
				"error", err,
			)
			metrics.RecordError(query.Kind(err))
			sum.Aborted = true
			sum.Line = line
			if ferr := w.Flush(); ferr != nil {
				return sum, fmt.Errorf("writing output: %w", ferr)
			}
			return sum, &RecordError{Line: line, Tokens: fields, Err: err}
		}

		year := q.Date.Start
		if d.checkDate(year, line) {
			sum.Warnings++
		}
		if err := d.emit(w, q.Tokens, q, year); err != nil {
			return sum, fmt.Errorf("writing output: %w", err)
		}
		sum.Processed++
		metrics.RecordProcessed("batch")
	}
	if err := scanner.Err(); err != nil {
		return sum, fmt.Errorf("reading input: %w", err)
	}

	if err := w.Flush(); err != nil {
		return sum, fmt.Errorf("writing output: %w", err)
	}
	return sum, nil
}

// RunQuery evaluates one command line query of one to five tokens. A date
// range produces one line per date.
func (d *Driver) RunQuery(tokens []string, out io.Writer) (Summary, error) {
	var sum Summary

	q, err := query.Parse(tokens, query.ModeSingle)
	if err != nil {
		metrics.RecordError(query.Kind(err))
		sum.Aborted = true
		return sum, &RecordError{Tokens: tokens, Err: err}
	}

	w := bufio.NewWriter(out)
	if err := WriteHeader(w, d.gradient); err != nil {
		return sum, fmt.Errorf("writing header: %w", err)
	}

	echo := make([]string, len(q.Tokens))
	copy(echo, q.Tokens)
	for i, n := 0, q.Date.Count(); i < n; i++ {
		year := q.Date.At(i)
		if q.Date.Range {
			echo[0] = strconv.FormatFloat(year, 'f', -1, 64)
		}
		if d.checkDate(year, 0) {
			sum.Warnings++
		}
		if err := d.emit(w, echo, q, year); err != nil {
			return sum, fmt.Errorf("writing output: %w", err)
		}
		sum.Processed++
		metrics.RecordProcessed("single")
	}

	if err := w.Flush(); err != nil {
		return sum, fmt.Errorf("writing output: %w", err)
	}
	return sum, nil
}

// checkDate logs a warning when year falls outside the model's validity
// window and reports whether it did.
func (d *Driver) checkDate(year float64, line int) bool {
	min, max := d.selector.MinYear(), d.selector.MaxYear()
	if year >= min && year <= max {
		return false
	}
	d.logger.Warn("date out of range",
		"line", line,
		"date", year,
		"expected_min", min,
		"expected_max", max,
	)
	metrics.RecordRangeWarning("date")
	return true
}

// emit selects the model for year, evaluates q and writes one line.
func (d *Driver) emit(w io.Writer, echo []string, q query.Query, year float64) error {
	start := time.Now()

	m := d.selector.SelectFor(year)
	p := geomag.Point{
		LatDeg:   q.Lat,
		LonDeg:   q.Lon,
		HeightKm: q.Altitude.Km,
		AboveMSL: q.HeightRef == query.MeanSeaLevel,
	}
	el := d.evaluator.Evaluate(m, p)

	var grad *geomag.Gradient
	if d.gradient {
		g := d.evaluator.Gradient(m, p)
		grad = &g
	}
	metrics.ObserveEvaluation(time.Since(start))

	return writeRecord(w, echo, el, grad)
}

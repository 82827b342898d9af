package query

import (
	"fmt"
	"math"
	"strings"

	"github.com/star/emmproc/internal/transform"
)

// DefaultRangeStep is the step in years used when a range omits one.
const DefaultRangeStep = 1.0

// Date is a decoded date token: a single decimal year, or a range of
// decimal years walked from Start to End by Step.
type Date struct {
	Start float64
	End   float64
	Step  float64
	Range bool
}

// MaxRangeDates bounds the number of dates a range may expand to.
const MaxRangeDates = math.MaxInt32

// Count returns how many decimal years the date covers.
func (d Date) Count() int {
	if !d.Range {
		return 1
	}
	return int(rangeSteps(d.Start, d.End, d.Step)) + 1
}

// At returns the i-th decimal year of the date, 0 <= i < Count().
// Index-based stepping avoids accumulating rounding error.
func (d Date) At(i int) float64 {
	if !d.Range {
		return d.Start
	}
	return d.Start + float64(i)*d.Step
}

// rangeSteps is the number of whole steps from start to end.
func rangeSteps(start, end, step float64) float64 {
	return math.Floor((end-start)/step + 1e-9)
}

// ParseDate decodes a date token.
//
//	2013.7              decimal year
//	2013,7,1            year,month,day
//	2012.0-2015.0[-0.5] range of decimal years with optional step
//	2012,1,1-2013,1,1   range of calendar dates
//
// Text that does not start with a number decodes to 0 and is rejected.
func ParseDate(tok string) (Date, error) {
	fail := func(err error) (Date, error) {
		return Date{}, parseErr("date", tok, err)
	}

	dash := strings.IndexByte(tok, '-')
	if dash < 0 {
		v, err := dateValue(tok)
		if err != nil {
			return fail(err)
		}
		if v == 0 {
			return fail(ErrUnrecognizedDate)
		}
		return Date{Start: v, End: v}, nil
	}

	startTok := tok[:dash]
	endTok := tok[dash+1:]
	step := DefaultRangeStep
	if i := strings.IndexByte(endTok, '-'); i >= 0 {
		step = leadingFloat(endTok[i+1:])
		endTok = endTok[:i]
	}

	start, err := dateValue(startTok)
	if err != nil {
		return fail(err)
	}
	if start == 0 {
		return fail(ErrUnrecognizedDate)
	}
	end, err := dateValue(endTok)
	if err != nil {
		return fail(err)
	}
	if end < start {
		return fail(fmt.Errorf("%w: range end %g before start %g", ErrUnrecognizedDate, end, start))
	}
	if !(step > 0) || math.IsInf(step, 0) {
		return fail(fmt.Errorf("%w: invalid range step %g", ErrUnrecognizedDate, step))
	}
	if n := rangeSteps(start, end, step); math.IsInf(n, 0) || n >= MaxRangeDates {
		return fail(fmt.Errorf("%w: range step %g gives too many dates", ErrUnrecognizedDate, step))
	}

	return Date{Start: start, End: end, Step: step, Range: true}, nil
}

// dateValue decodes one side of a date token.
func dateValue(s string) (float64, error) {
	if strings.IndexByte(s, ',') < 0 {
		v := leadingFloat(s)
		if math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %s", ErrUnrecognizedDate, s)
		}
		return v, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) < 3 {
		return 0, fmt.Errorf("%w: %q is not year,month,day", ErrUnrecognizedDate, s)
	}
	y := leadingInt(parts[0])
	m := leadingInt(parts[1])
	d := leadingInt(parts[2])
	v, err := transform.DecimalYear(y, m, d)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnrecognizedDate, err)
	}
	return v, nil
}

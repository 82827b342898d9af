package model

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// ErrMalformedModelFile is returned when a coefficient file cannot be decoded.
var ErrMalformedModelFile = errors.New("malformed model file")

// cofTerm is one data line of a coefficient file.
type cofTerm struct {
	n, m int
	a, b float64
}

// cofFile is the decoded content of one coefficient file.
type cofFile struct {
	epoch float64
	name  string
	nMax  int
	terms []cofTerm
}

// readCOF decodes a coefficient file: a header line "<epoch> <name> ..."
// followed by "n m a b [...]" lines, terminated by EOF or a 9999 line.
func readCOF(r io.Reader) (cofFile, error) {
	var f cofFile
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	header := false
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if !header {
			epoch, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return f, fmt.Errorf("%w: line %d: invalid epoch %q", ErrMalformedModelFile, lineNo, fields[0])
			}
			f.epoch = epoch
			if len(fields) > 1 {
				f.name = fields[1]
			}
			header = true
			continue
		}

		if strings.HasPrefix(fields[0], "9999") {
			break
		}
		if len(fields) < 4 {
			return f, fmt.Errorf("%w: line %d: expected at least 4 columns, got %d", ErrMalformedModelFile, lineNo, len(fields))
		}

		n, errN := strconv.Atoi(fields[0])
		m, errM := strconv.Atoi(fields[1])
		a, errA := strconv.ParseFloat(fields[2], 64)
		b, errB := strconv.ParseFloat(fields[3], 64)
		if err := errors.Join(errN, errM, errA, errB); err != nil {
			return f, fmt.Errorf("%w: line %d: %v", ErrMalformedModelFile, lineNo, err)
		}
		if n < 0 || m < 0 || m > n {
			return f, fmt.Errorf("%w: line %d: invalid degree/order %d/%d", ErrMalformedModelFile, lineNo, n, m)
		}

		if n > f.nMax {
			f.nMax = n
		}
		f.terms = append(f.terms, cofTerm{n: n, m: m, a: a, b: b})
	}
	if err := scanner.Err(); err != nil {
		return f, fmt.Errorf("reading model data: %w", err)
	}
	if !header {
		return f, fmt.Errorf("%w: missing header", ErrMalformedModelFile)
	}

	return f, nil
}

// Parse decodes a main field file and its secular variation companion
// into a Model sized to the main field degree.
func Parse(main, secVar io.Reader, logger *slog.Logger) (*Model, error) {
	mf, err := readCOF(main)
	if err != nil {
		return nil, fmt.Errorf("main field: %w", err)
	}
	sv, err := readCOF(secVar)
	if err != nil {
		return nil, fmt.Errorf("secular variation: %w", err)
	}

	if sv.nMax > mf.nMax {
		return nil, fmt.Errorf("%w: secular variation degree %d exceeds main field degree %d", ErrMalformedModelFile, sv.nMax, mf.nMax)
	}
	if sv.epoch != mf.epoch {
		logger.Warn("secular variation epoch differs from main field epoch",
			"model", mf.name,
			"main_epoch", mf.epoch,
			"sv_epoch", sv.epoch,
		)
	}

	m := NewModel(mf.nMax)
	m.Name = mf.name
	m.Epoch = mf.epoch
	m.NMaxSecVar = sv.nMax

	for _, t := range mf.terms {
		i := Index(t.n, t.m)
		m.G[i] = t.a
		m.H[i] = t.b
	}
	for _, t := range sv.terms {
		i := Index(t.n, t.m)
		m.GDot[i] = t.a
		m.HDot[i] = t.b
	}

	return m, nil
}

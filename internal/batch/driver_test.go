package batch

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/star/emmproc/internal/geomag"
	"github.com/star/emmproc/internal/model"
	"github.com/star/emmproc/internal/query"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

type fakeSelector struct {
	min, max float64
	years    []float64
	m        *model.Model
}

func (f *fakeSelector) SelectFor(year float64) *model.Model {
	f.years = append(f.years, year)
	return f.m
}

func (f *fakeSelector) MinYear() float64 { return f.min }
func (f *fakeSelector) MaxYear() float64 { return f.max }

type fakeEvaluator struct {
	el     geomag.Elements
	grad   geomag.Gradient
	points []geomag.Point
}

func (f *fakeEvaluator) Evaluate(m *model.Model, p geomag.Point) geomag.Elements {
	f.points = append(f.points, p)
	return f.el
}

func (f *fakeEvaluator) Gradient(m *model.Model, p geomag.Point) geomag.Gradient {
	return f.grad
}

var sampleElements = geomag.Elements{
	Decl: 12.5, Incl: -45.25,
	H: 20000, X: 19500, Y: 4300, Z: -20100, F: 28400,
	DeclDot: 0.1, InclDot: -0.05,
	HDot: 10, XDot: -12.5, YDot: 30, ZDot: -40, FDot: 25,
}

const sampleLine = "2013.7 E F30000 -70.3 -30.8    12d 30m   -45d 15m   20000.0  19500.0   4300.0 -20100.0  28400.0     6.0      -3.0         10.0    -12.5     30.0    -40.0     25.0"

func newTestDriver(gradient bool) (*Driver, *fakeSelector, *fakeEvaluator) {
	sel := &fakeSelector{min: 2000, max: 2021, m: model.NewModel(2)}
	ev := &fakeEvaluator{
		el: sampleElements,
		grad: geomag.Gradient{
			North: geomag.Vector{X: 1.5, Y: -2, Z: 3},
			East:  geomag.Vector{X: 4, Y: 5, Z: 6},
			Down:  geomag.Vector{X: 7, Y: 8, Z: -9.5},
		},
	}
	return NewDriver(sel, ev, gradient, testLogger()), sel, ev
}

func TestRunFileFormatsRecord(t *testing.T) {
	d, sel, ev := newTestDriver(false)
	var out bytes.Buffer

	sum, err := d.RunFile(strings.NewReader("2013.7 E F30000 -70.3 -30.8\n"), &out)
	if err != nil {
		t.Fatalf("RunFile failed: %v", err)
	}
	if sum.Processed != 1 || sum.Aborted || sum.Warnings != 0 {
		t.Errorf("summary = %+v, want 1 processed", sum)
	}

	want := header + "\n" + sampleLine + "\n"
	if out.String() != want {
		t.Errorf("output mismatch\n got: %q\nwant: %q", out.String(), want)
	}

	if len(sel.years) != 1 || sel.years[0] != 2013.7 {
		t.Errorf("selected years = %v, want [2013.7]", sel.years)
	}
	p := ev.points[0]
	if p.AboveMSL {
		t.Error("E reference evaluated above mean sea level")
	}
	if math.Abs(p.HeightKm-9.144) > 1e-3 || p.LatDeg != -70.3 || p.LonDeg != -30.8 {
		t.Errorf("point = %+v", p)
	}
}

func TestRunFileStopsOnBadRecord(t *testing.T) {
	const good = "2013.7 E F30000 -70.3 -30.8\n"
	tests := []struct {
		name    string
		bad     string
		wantErr error
	}{
		{"height reference", "2013.7 X K0 0 0\n", query.ErrUnrecognizedHeightReference},
		{"date", "abcd E F30000 -70.3 -30.8\n", query.ErrUnrecognizedDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, sel, _ := newTestDriver(false)
			var out bytes.Buffer

			in := good + good + tt.bad + good
			sum, err := d.RunFile(strings.NewReader(in), &out)
			if err == nil {
				t.Fatalf("expected error for bad record %q", tt.bad)
			}

			var recErr *RecordError
			if !errors.As(err, &recErr) {
				t.Fatalf("error %v is not a RecordError", err)
			}
			if recErr.Line != 3 {
				t.Errorf("RecordError.Line = %d, want 3", recErr.Line)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v does not wrap %v", err, tt.wantErr)
			}

			if sum.Processed != 2 || !sum.Aborted || sum.Line != 3 {
				t.Errorf("summary = %+v, want 2 processed, aborted at line 3", sum)
			}
			if len(sel.years) != 2 {
				t.Errorf("selector called %d times, want 2", len(sel.years))
			}

			lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
			if len(lines) != 3 {
				t.Errorf("got %d output lines, want header plus 2 records", len(lines))
			}

			var report bytes.Buffer
			sum.Report(&report)
			want := "\n Processed 2 lines\n\nTerminated prematurely due to argument error in coordinate file\n\n"
			if report.String() != want {
				t.Errorf("report = %q, want %q", report.String(), want)
			}
		})
	}
}

func TestRunFileRejectsRange(t *testing.T) {
	d, sel, _ := newTestDriver(false)

	sum, err := d.RunFile(strings.NewReader("2012-2014 M K0 0 0\n"), io.Discard)
	if !errors.Is(err, query.ErrRangeNotAllowedInBatch) {
		t.Fatalf("RunFile error = %v, want ErrRangeNotAllowedInBatch", err)
	}
	if sum.Processed != 0 || sum.Line != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if len(sel.years) != 0 {
		t.Error("model selected for a rejected range record")
	}
}

func TestRunFileShortRecord(t *testing.T) {
	d, _, _ := newTestDriver(false)

	_, err := d.RunFile(strings.NewReader("2013.7 M K0\n"), io.Discard)
	if !errors.Is(err, query.ErrMissingToken) {
		t.Fatalf("RunFile error = %v, want ErrMissingToken", err)
	}
}

func TestRunFileDateOutOfRange(t *testing.T) {
	d, sel, _ := newTestDriver(false)
	var out bytes.Buffer

	sum, err := d.RunFile(strings.NewReader("1990.5 M K0 0 0\n2030 M K0 0 0\n2010 M K0 0 0\n"), &out)
	if err != nil {
		t.Fatalf("RunFile failed: %v", err)
	}
	if sum.Processed != 3 || sum.Warnings != 2 {
		t.Errorf("summary = %+v, want 3 processed with 2 warnings", sum)
	}
	if len(sel.years) != 3 || sel.years[0] != 1990.5 {
		t.Errorf("selected years = %v", sel.years)
	}
}

func TestRunFileSkipsBlankLines(t *testing.T) {
	d, _, _ := newTestDriver(false)

	in := "\n2013.7 E F30000 -70.3 -30.8 trailing ignored\n   \n2013.7 Q K0 0 0\n"
	sum, err := d.RunFile(strings.NewReader(in), io.Discard)

	var recErr *RecordError
	if !errors.As(err, &recErr) {
		t.Fatalf("RunFile error = %v, want RecordError", err)
	}
	if recErr.Line != 4 {
		t.Errorf("RecordError.Line = %d, want 4", recErr.Line)
	}
	if sum.Processed != 1 {
		t.Errorf("Processed = %d, want 1", sum.Processed)
	}
}

func TestRunFileGradient(t *testing.T) {
	d, _, _ := newTestDriver(true)
	var out bytes.Buffer

	if _, err := d.RunFile(strings.NewReader("2013.7 E F30000 -70.3 -30.8\n"), &out); err != nil {
		t.Fatalf("RunFile failed: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if n := len(strings.Fields(lines[0])); n != 30 {
		t.Errorf("gradient header has %d columns, want 30", n)
	}
	want := sampleLine + "      1.5     -2.0      3.0      4.0      5.0      6.0      7.0      8.0     -9.5"
	if lines[1] != want {
		t.Errorf("record mismatch\n got: %q\nwant: %q", lines[1], want)
	}
}

func TestWriteRecordNaN(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		tokens []string
		el     geomag.Elements
		want   string
	}{
		{
			name:   "pole",
			tokens: []string{"2015", "M", "K0", "90", "0"},
			el: geomag.Elements{
				Decl: nan, Incl: 89.5, H: 150, X: nan, Y: nan, Z: 55000, F: 55000.2,
				DeclDot: nan, InclDot: 0.01, HDot: -3, XDot: nan, YDot: nan, ZDot: 20, FDot: 19.9,
			},
			want: "2015 M K0 90 0  NaN          89d 30m     150.0      NaN      NaN  55000.0  55000.2      NaN      0.6         -3.0      NaN      NaN     20.0     19.9\n",
		},
		{
			name:   "declination only",
			tokens: []string{"2015", "M", "K0", "89,59,59", "0,0,0"},
			el: geomag.Elements{
				Decl: nan, Incl: 0.5, H: 150, X: 149, Y: 17, Z: 55000, F: 55000.2,
				DeclDot: nan, InclDot: 0.01, HDot: -3, XDot: 2, YDot: 1, ZDot: 20, FDot: 19.9,
			},
			want: "2015 M K0 89,59,59 0,0,0  NaN           0d 30m     150.0    149.0     17.0  55000.0  55000.2      NaN      0.6         -3.0      2.0      1.0     20.0     19.9\n",
		},
		{
			name:   "negative minutes under one degree",
			tokens: []string{"2015", "M", "K0", "0", "0"},
			el:     geomag.Elements{Decl: -0.5, Incl: 0.25, H: 1, X: 2, Y: 3, Z: 4, F: 5},
			want:   "2015 M K0 0 0     0d -30m     0d 15m       1.0      2.0      3.0      4.0      5.0     0.0       0.0          0.0      0.0      0.0      0.0      0.0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeRecord(&buf, tt.tokens, tt.el, nil); err != nil {
				t.Fatalf("writeRecord failed: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("got  %q\nwant %q", buf.String(), tt.want)
			}
		})
	}
}

func TestRunQueryRange(t *testing.T) {
	d, sel, _ := newTestDriver(false)
	var out bytes.Buffer

	sum, err := d.RunQuery([]string{"2019-2023", "M", "K0", "10", "20"}, &out)
	if err != nil {
		t.Fatalf("RunQuery failed: %v", err)
	}
	if sum.Processed != 5 || sum.Warnings != 2 {
		t.Errorf("summary = %+v, want 5 processed with 2 warnings", sum)
	}

	wantYears := []float64{2019, 2020, 2021, 2022, 2023}
	if len(sel.years) != len(wantYears) {
		t.Fatalf("selected years = %v, want %v", sel.years, wantYears)
	}
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")[1:]
	for i, y := range wantYears {
		if sel.years[i] != y {
			t.Errorf("year %d = %v, want %v", i, sel.years[i], y)
		}
		if !strings.HasPrefix(lines[i], strings.Fields(lines[i])[0]+" M K0 10 20 ") {
			t.Errorf("line %d echo = %q", i, lines[i])
		}
	}
	if !strings.HasPrefix(lines[0], "2019 ") || !strings.HasPrefix(lines[4], "2023 ") {
		t.Errorf("range echo: first %q last %q", lines[0], lines[4])
	}
}

func TestRunQueryDefaults(t *testing.T) {
	d, _, ev := newTestDriver(false)
	var out bytes.Buffer

	if _, err := d.RunQuery([]string{"2013.5"}, &out); err != nil {
		t.Fatalf("RunQuery failed: %v", err)
	}
	lines := strings.Split(out.String(), "\n")
	if !strings.HasPrefix(lines[1], "2013.5 M K0 0 0 ") {
		t.Errorf("echo = %q, want defaults filled in", lines[1])
	}
	p := ev.points[0]
	if !p.AboveMSL || p.HeightKm != 0 || p.LatDeg != 0 || p.LonDeg != 0 {
		t.Errorf("default point = %+v", p)
	}
}

func TestRunQueryParseError(t *testing.T) {
	d, _, _ := newTestDriver(false)
	var out bytes.Buffer

	sum, err := d.RunQuery([]string{"2013.5", "M", "K2000"}, &out)
	if !errors.Is(err, query.ErrAltitudeOutOfRange) {
		t.Fatalf("RunQuery error = %v, want ErrAltitudeOutOfRange", err)
	}
	if !sum.Aborted || out.Len() != 0 {
		t.Errorf("summary = %+v, output %q", sum, out.String())
	}

	// A step too small to enumerate is rejected before any output.
	sum, err = d.RunQuery([]string{"2000-2001-1e-300"}, &out)
	if !errors.Is(err, query.ErrUnrecognizedDate) {
		t.Fatalf("RunQuery error = %v, want ErrUnrecognizedDate", err)
	}
	if !sum.Aborted || out.Len() != 0 {
		t.Errorf("tiny step: summary = %+v, output %q", sum, out.String())
	}
}

func TestSummaryReport(t *testing.T) {
	var buf bytes.Buffer
	Summary{Processed: 2}.Report(&buf)
	if buf.String() != "\n Processed 2 lines\n\n" {
		t.Errorf("report = %q", buf.String())
	}

	buf.Reset()
	Summary{Processed: 2, Aborted: true, Line: 3}.Report(&buf)
	if !strings.Contains(buf.String(), "Terminated prematurely") {
		t.Errorf("aborted report = %q", buf.String())
	}
}

func TestProgressCountsBytes(t *testing.T) {
	data := strings.Repeat("2013.7 M K0 0 0\n", 10)
	pr := NewProgress(int64(len(data)), io.Discard)

	d, _, _ := newTestDriver(false)
	sum, err := d.RunFile(pr.Reader(strings.NewReader(data)), io.Discard)
	pr.Stop()
	if err != nil {
		t.Fatalf("RunFile failed: %v", err)
	}
	if sum.Processed != 10 {
		t.Errorf("Processed = %d, want 10", sum.Processed)
	}
	if pr.BytesRead() != len(data) {
		t.Errorf("progress read %d bytes, want %d", pr.BytesRead(), len(data))
	}
}

package batch

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/star/emmproc/internal/geomag"
)

const (
	header = "Date Coord-System Altitude Latitude Longitude D_deg D_min I_deg I_min H_nT X_nT Y_nT Z_nT F_nT dD/dt_min dI/dt_min dH/dt_nT dX/dt_nT dY/dt_nT dZ/dt_nT dF/dt_nT"

	gradientHeader = " dX/dx_nt dY/dx_nt dZ/dx_nt dX/dy_nt dY/dy_nt dZ/dy_nt dX/dz_nt dY/dz_nt dZ/dz_nt"
)

// WriteHeader writes the column header line.
func WriteHeader(w io.Writer, gradient bool) error {
	h := header
	if gradient {
		h += gradientHeader
	}
	_, err := fmt.Fprintln(w, h)
	return err
}

// degMin splits an angle into whole degrees and minutes. Minutes carry the
// sign only when the whole degrees are zero.
func degMin(angle float64) (int, float64) {
	deg := int(angle)
	min := (angle - float64(deg)) * 60
	if deg != 0 {
		min = math.Abs(min)
	}
	return deg, min
}

// writeRecord writes the echoed tokens followed by the field columns and,
// when g is non-nil, the nine gradient columns. Rates of D and I are
// written in minutes per year.
func writeRecord(w io.Writer, tokens []string, el geomag.Elements, g *geomag.Gradient) error {
	var sb strings.Builder

	for _, tok := range tokens {
		sb.WriteString(tok)
		sb.WriteByte(' ')
	}

	ideg, imin := degMin(el.Incl)
	switch {
	case !math.IsNaN(el.Decl):
		ddeg, dmin := degMin(el.Decl)
		fmt.Fprintf(&sb, " %4dd %2.0fm  %4dd %2.0fm  %8.1f %8.1f %8.1f %8.1f %8.1f",
			ddeg, dmin, ideg, imin, el.H, el.X, el.Y, el.Z, el.F)
	case math.IsNaN(el.X):
		fmt.Fprintf(&sb, " NaN        %4dd %2.0fm  %8.1f      NaN      NaN %8.1f %8.1f",
			ideg, imin, el.H, el.Z, el.F)
	default:
		fmt.Fprintf(&sb, " NaN        %4dd %2.0fm  %8.1f %8.1f %8.1f %8.1f %8.1f",
			ideg, imin, el.H, el.X, el.Y, el.Z, el.F)
	}

	ddot := 60 * el.DeclDot
	idot := 60 * el.InclDot
	switch {
	case !math.IsNaN(ddot):
		fmt.Fprintf(&sb, " %7.1f   %7.1f     %8.1f %8.1f %8.1f %8.1f %8.1f",
			ddot, idot, el.HDot, el.XDot, el.YDot, el.ZDot, el.FDot)
	case math.IsNaN(el.XDot):
		fmt.Fprintf(&sb, "      NaN  %7.1f     %8.1f      NaN      NaN %8.1f %8.1f",
			idot, el.HDot, el.ZDot, el.FDot)
	default:
		fmt.Fprintf(&sb, "      NaN  %7.1f     %8.1f %8.1f %8.1f %8.1f %8.1f",
			idot, el.HDot, el.XDot, el.YDot, el.ZDot, el.FDot)
	}

	if g != nil {
		for _, v := range []float64{
			g.North.X, g.North.Y, g.North.Z,
			g.East.X, g.East.Y, g.East.Z,
			g.Down.X, g.Down.Y, g.Down.Z,
		} {
			fmt.Fprintf(&sb, " %8.1f", v)
		}
	}
	sb.WriteByte('\n')

	_, err := io.WriteString(w, sb.String())
	return err
}

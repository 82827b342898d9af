package geomag

import (
	"math"

	"github.com/star/emmproc/internal/model"
	"github.com/star/emmproc/internal/transform"
)

// gradientStepKm is the half-width of the central difference stencil.
const gradientStepKm = 0.1

// Gradient returns the spatial derivatives of the X, Y and Z components at
// p in nT/km, by central differences along geodetic north, east and down.
// The stencil points are placed in ECEF so each sits exactly
// gradientStepKm from p. The east derivative is NaN on the geographic axis.
func (e *Evaluator) Gradient(m *model.Model, p Point) Gradient {
	h := e.EllipsoidHeight(p)
	center := transform.GeodeticToECEF(p.LatDeg, p.LonDeg, h)
	north, east, down := transform.LocalFrame(p.LatDeg, p.LonDeg)

	var g Gradient
	g.North = e.centralDifference(m, center, north)
	if center.AxisDistance() < gradientStepKm {
		nan := math.NaN()
		g.East = Vector{X: nan, Y: nan, Z: nan}
	} else {
		g.East = e.centralDifference(m, center, east)
	}
	g.Down = e.centralDifference(m, center, down)
	return g
}

// centralDifference differentiates the field at center along the unit
// vector dir.
func (e *Evaluator) centralDifference(m *model.Model, center, dir transform.ECEF) Vector {
	plus := e.fieldAt(m, center.Offset(dir, gradientStepKm))
	minus := e.fieldAt(m, center.Offset(dir, -gradientStepKm))

	const span = 2 * gradientStepKm
	return Vector{
		X: (plus.X - minus.X) / span,
		Y: (plus.Y - minus.Y) / span,
		Z: (plus.Z - minus.Z) / span,
	}
}

func (e *Evaluator) fieldAt(m *model.Model, q transform.ECEF) Vector {
	gp := transform.ECEFToGeodetic(q)
	b, _ := e.field(m, gp.LatDeg, gp.LonDeg, gp.HeightKm)
	return b
}

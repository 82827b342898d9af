package geomag

import (
	"log/slog"
	"math"

	"github.com/star/emmproc/internal/model"
	"github.com/star/emmproc/internal/transform"
)

const (
	deg2rad = math.Pi / 180.0
	rad2deg = 180.0 / math.Pi

	// poleEpsilon is the sin(colatitude) below which a point is treated as
	// lying on the geographic axis.
	poleEpsilon = 1e-10
)

// Evaluator computes field elements from a time-adjusted model.
// It keeps Legendre work buffers between calls and is not safe for
// concurrent use.
type Evaluator struct {
	geoid  *Geoid
	logger *slog.Logger

	leg        *legendre
	cosM, sinM []float64

	warnedGeoid bool
}

// NewEvaluator creates an Evaluator. geoid may be nil, in which case
// heights above mean sea level are used as ellipsoid heights.
func NewEvaluator(geoid *Geoid, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		geoid:  geoid,
		logger: logger,
	}
}

// EllipsoidHeight returns the height of p above the WGS-84 ellipsoid in km.
func (e *Evaluator) EllipsoidHeight(p Point) float64 {
	if !p.AboveMSL {
		return p.HeightKm
	}
	if e.geoid == nil {
		if !e.warnedGeoid {
			e.logger.Warn("no geoid grid loaded, treating mean sea level heights as ellipsoid heights")
			e.warnedGeoid = true
		}
		return p.HeightKm
	}
	return p.HeightKm + e.geoid.Height(p.LatDeg, p.LonDeg)/1000.0
}

// Evaluate computes the field elements and their secular variation at p.
// At the geographic poles declination and the X/Y components are undefined
// and reported as NaN.
func (e *Evaluator) Evaluate(m *model.Model, p Point) Elements {
	h := e.EllipsoidHeight(p)
	b, bDot := e.field(m, p.LatDeg, p.LonDeg, h)
	el := elements(b, bDot)

	if math.Abs(p.LatDeg) >= 90 {
		nan := math.NaN()
		el.Decl, el.X, el.Y = nan, nan, nan
		el.DeclDot, el.XDot, el.YDot = nan, nan, nan
	}
	return el
}

func elements(b, bDot Vector) Elements {
	h := math.Hypot(b.X, b.Y)
	f := math.Sqrt(h*h + b.Z*b.Z)

	el := Elements{
		Decl: math.Atan2(b.Y, b.X) * rad2deg,
		Incl: math.Atan2(b.Z, h) * rad2deg,
		H:    h,
		X:    b.X,
		Y:    b.Y,
		Z:    b.Z,
		F:    f,
		XDot: bDot.X,
		YDot: bDot.Y,
		ZDot: bDot.Z,
	}

	el.HDot = (b.X*bDot.X + b.Y*bDot.Y) / h
	el.FDot = (b.X*bDot.X + b.Y*bDot.Y + b.Z*bDot.Z) / f
	el.DeclDot = rad2deg * (b.X*bDot.Y - b.Y*bDot.X) / (h * h)
	el.InclDot = rad2deg * (h*bDot.Z - b.Z*el.HDot) / (f * f)

	return el
}

// field sums the spherical harmonic expansion at a geodetic position
// (height above the ellipsoid in km) and returns the field vector and its
// secular variation in the geodetic north/east/down frame.
func (e *Evaluator) field(m *model.Model, latDeg, lonDeg, heightKm float64) (Vector, Vector) {
	sph := transform.GeodeticToSpherical(latDeg, lonDeg, heightKm)
	e.prepare(m.NMax, sph.LambdaDeg*deg2rad)

	phi := sph.PhiDeg * deg2rad
	x := math.Sin(phi) // cos(colatitude)
	s := math.Cos(phi) // sin(colatitude)
	e.leg.compute(x, s)
	pole := s < poleEpsilon

	ratio := transform.GeomagneticRadius / sph.RKm
	rn := ratio * ratio

	var b, bDot Vector
	for n := 1; n <= m.NMax; n++ {
		rn *= ratio // (a/r)^(n+2)
		sv := n <= m.NMaxSecVar

		var xs, ys, zs, xd, yd, zd float64
		for k := 0; k <= n; k++ {
			idx := model.Index(n, k)
			p := e.leg.p[idx]
			dp := e.leg.dp[idx]

			// P/sin(colatitude), with its limit on the axis.
			var pOverS float64
			switch {
			case !pole:
				pOverS = p / s
			case k == 1:
				pOverS = dp / x
			}

			gc := m.G[idx]*e.cosM[k] + m.H[idx]*e.sinM[k]
			gs := m.G[idx]*e.sinM[k] - m.H[idx]*e.cosM[k]
			xs += gc * dp
			ys += float64(k) * gs * pOverS
			zs += gc * p

			if sv {
				gcd := m.GDot[idx]*e.cosM[k] + m.HDot[idx]*e.sinM[k]
				gsd := m.GDot[idx]*e.sinM[k] - m.HDot[idx]*e.cosM[k]
				xd += gcd * dp
				yd += float64(k) * gsd * pOverS
				zd += gcd * p
			}
		}

		b.X += rn * xs
		b.Y += rn * ys
		b.Z -= float64(n+1) * rn * zs
		bDot.X += rn * xd
		bDot.Y += rn * yd
		bDot.Z -= float64(n+1) * rn * zd
	}

	psi := phi - latDeg*deg2rad
	return rotate(b, psi), rotate(bDot, psi)
}

// rotate turns a vector from the geocentric spherical frame into the
// geodetic frame; psi is geocentric minus geodetic latitude.
func rotate(v Vector, psi float64) Vector {
	sin, cos := math.Sincos(psi)
	return Vector{
		X: v.X*cos - v.Z*sin,
		Y: v.Y,
		Z: v.X*sin + v.Z*cos,
	}
}

// prepare sizes the work buffers for degree nMax and fills the
// longitude harmonics.
func (e *Evaluator) prepare(nMax int, lambda float64) {
	if e.leg == nil || e.leg.nMax != nMax {
		e.leg = newLegendre(nMax)
		e.cosM = make([]float64, nMax+1)
		e.sinM = make([]float64, nMax+1)
	}
	for k := 0; k <= nMax; k++ {
		e.sinM[k], e.cosM[k] = math.Sincos(float64(k) * lambda)
	}
}

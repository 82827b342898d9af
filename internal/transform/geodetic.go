package transform

import "math"

// WGS-84 ellipsoid parameters in kilometers.
const (
	wgs84A  = 6378.137              // semi-major axis
	wgs84B  = 6356.7523142          // semi-minor axis
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared

	// GeomagneticRadius is the reference radius of the spherical harmonic
	// expansion, in km.
	GeomagneticRadius = 6371.2
)

const (
	deg2rad = math.Pi / 180.0
	rad2deg = 180.0 / math.Pi
)

// Spherical holds a geocentric position.
type Spherical struct {
	LambdaDeg float64 // longitude
	PhiDeg    float64 // geocentric latitude
	RKm       float64 // distance from Earth's center
}

// GeodeticToSpherical converts geodetic latitude/longitude (degrees) and
// height above the WGS-84 ellipsoid (km) to geocentric spherical coordinates.
func GeodeticToSpherical(latDeg, lonDeg, heightKm float64) Spherical {
	// Only the meridian plane matters; longitude passes through unchanged.
	p := GeodeticToECEF(latDeg, 0, heightKm)
	r := math.Sqrt(p.X*p.X + p.Z*p.Z)
	return Spherical{
		LambdaDeg: lonDeg,
		PhiDeg:    math.Asin(p.Z/r) * rad2deg,
		RKm:       r,
	}
}

// PrimeVerticalRadius returns the ellipsoid's radius of curvature in the
// prime vertical at geodetic latitude latDeg, in km.
func PrimeVerticalRadius(latDeg float64) float64 {
	s := math.Sin(latDeg * deg2rad)
	return wgs84A / math.Sqrt(1-wgs84E2*s*s)
}

// ECEF holds an Earth-centered, Earth-fixed position in km.
type ECEF struct {
	X, Y, Z float64
}

// GeodeticToECEF converts geodetic coordinates (degrees, km above the
// ellipsoid) to ECEF kilometers.
func GeodeticToECEF(latDeg, lonDeg, heightKm float64) ECEF {
	lat := latDeg * deg2rad
	lon := lonDeg * deg2rad
	N := PrimeVerticalRadius(latDeg)

	return ECEF{
		X: (N + heightKm) * math.Cos(lat) * math.Cos(lon),
		Y: (N + heightKm) * math.Cos(lat) * math.Sin(lon),
		Z: (N*(1-wgs84E2) + heightKm) * math.Sin(lat),
	}
}

// Offset returns p moved km along the unit vector dir.
func (p ECEF) Offset(dir ECEF, km float64) ECEF {
	return ECEF{
		X: p.X + km*dir.X,
		Y: p.Y + km*dir.Y,
		Z: p.Z + km*dir.Z,
	}
}

// AxisDistance returns the distance from the rotation axis in km.
func (p ECEF) AxisDistance() float64 {
	return math.Hypot(p.X, p.Y)
}

// LocalFrame returns the unit north, east and down vectors of the geodetic
// frame at latDeg, lonDeg, in ECEF axes.
func LocalFrame(latDeg, lonDeg float64) (north, east, down ECEF) {
	sinLat, cosLat := math.Sincos(latDeg * deg2rad)
	sinLon, cosLon := math.Sincos(lonDeg * deg2rad)

	north = ECEF{X: -sinLat * cosLon, Y: -sinLat * sinLon, Z: cosLat}
	east = ECEF{X: -sinLon, Y: cosLon}
	down = ECEF{X: -cosLat * cosLon, Y: -cosLat * sinLon, Z: -sinLat}
	return north, east, down
}

// GeodeticPoint holds a geodetic position (degrees, km above the ellipsoid).
type GeodeticPoint struct {
	LatDeg, LonDeg, HeightKm float64
}

// ECEFToGeodetic converts ECEF kilometers back to geodetic coordinates
// using the iterative Bowring method.
func ECEFToGeodetic(p ECEF) GeodeticPoint {
	lon := math.Atan2(p.Y, p.X)
	rho := math.Sqrt(p.X*p.X + p.Y*p.Y)

	lat := math.Atan2(p.Z, rho*(1-wgs84E2))
	for i := 0; i < 5; i++ {
		s := math.Sin(lat)
		N := wgs84A / math.Sqrt(1-wgs84E2*s*s)
		lat = math.Atan2(p.Z+wgs84E2*N*s, rho)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var h float64
	if math.Abs(cosLat) > 1e-10 {
		h = rho/cosLat - N
	} else {
		h = math.Abs(p.Z) - wgs84B
	}

	return GeodeticPoint{
		LatDeg:   lat * rad2deg,
		LonDeg:   lon * rad2deg,
		HeightKm: h,
	}
}

package geomag

// Point is a query location. HeightKm is above mean sea level when
// AboveMSL is set, otherwise above the WGS-84 ellipsoid.
type Point struct {
	LatDeg   float64
	LonDeg   float64
	HeightKm float64
	AboveMSL bool
}

// Elements holds the magnetic field elements and their yearly rates.
// Angles are in degrees, intensities in nT.
type Elements struct {
	Decl, Incl    float64
	H, X, Y, Z, F float64

	DeclDot, InclDot             float64 // deg/yr
	HDot, XDot, YDot, ZDot, FDot float64 // nT/yr
}

// Vector is a field vector in the local geodetic north/east/down frame.
type Vector struct {
	X, Y, Z float64
}

// Gradient holds the spatial derivatives of the field vector in nT/km
// along geodetic north, east and down.
type Gradient struct {
	North Vector
	East  Vector
	Down  Vector
}

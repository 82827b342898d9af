package query

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// HeightReference says what an altitude is measured from.
type HeightReference int

const (
	MeanSeaLevel HeightReference = iota
	Ellipsoid
)

func (h HeightReference) String() string {
	if h == Ellipsoid {
		return "ellipsoid"
	}
	return "mean sea level"
}

// Unit is the length unit of an altitude token.
type Unit int

const (
	Kilometers Unit = iota
	Meters
	Feet
)

// FeetPerKilometer converts kilometers to feet.
const FeetPerKilometer = 3280.0839895

// Altitude bounds in kilometers, scaled into the token's unit before the
// comparison.
const (
	MinAltitudeKm = -10.0
	MaxAltitudeKm = 1000.0
)

func (u Unit) String() string {
	switch u {
	case Meters:
		return "m"
	case Feet:
		return "ft"
	default:
		return "km"
	}
}

// perKilometer returns how many of u make one kilometer.
func (u Unit) perKilometer() float64 {
	switch u {
	case Meters:
		return 1000
	case Feet:
		return FeetPerKilometer
	default:
		return 1
	}
}

// Altitude is a decoded altitude token.
type Altitude struct {
	Unit      Unit
	Magnitude float64 // in Unit
	Km        float64
}

// ParseHeightReference decodes the first character of tok: M for mean sea
// level, E for the WGS-84 ellipsoid.
func ParseHeightReference(tok string) (HeightReference, error) {
	switch firstUpper(tok) {
	case 'M':
		return MeanSeaLevel, nil
	case 'E':
		return Ellipsoid, nil
	}
	return 0, parseErr("height reference", tok, ErrUnrecognizedHeightReference)
}

// ParseAltitude decodes an altitude token such as K10.5, M1389.24 or
// F30000. A leading character other than K, M or F leaves the unit at
// kilometers; the magnitude always starts at the second character.
func ParseAltitude(tok string) (Altitude, error) {
	a := Altitude{Unit: Kilometers}
	switch firstUpper(tok) {
	case 'M':
		a.Unit = Meters
	case 'F':
		a.Unit = Feet
	}

	if len(tok) < 2 {
		return a, parseErr("altitude", tok, fmt.Errorf("%w: no magnitude", ErrAltitudeOutOfRange))
	}
	a.Magnitude = leadingFloat(tok[1:])

	scale := a.Unit.perKilometer()
	lo, hi := MinAltitudeKm*scale, MaxAltitudeKm*scale
	if a.Magnitude < lo || a.Magnitude > hi {
		return a, parseErr("altitude", tok, fmt.Errorf("%w: %g %s not in [%g, %g]", ErrAltitudeOutOfRange, a.Magnitude, a.Unit, lo, hi))
	}

	a.Km = a.Magnitude / scale
	return a, nil
}

// ParseCoordinates decodes a latitude/longitude pair. Both must be decimal
// degrees or both deg,min[,sec].
func ParseCoordinates(latTok, lonTok string) (lat, lon float64, err error) {
	latDMS := strings.Contains(latTok, ",")
	lonDMS := strings.Contains(lonTok, ",")

	if latDMS != lonDMS {
		return 0, 0, parseErr("latitude/longitude", latTok+" "+lonTok,
			fmt.Errorf("%w: latitude and longitude must use the same notation", ErrUnrecognizedCoordinateFormat))
	}
	if latDMS {
		return ParseDMS(latTok), ParseDMS(lonTok), nil
	}
	return leadingFloat(latTok), leadingFloat(lonTok), nil
}

// ParseDMS converts a "deg,min[,sec]" token to decimal degrees. The sign
// is taken from degrees, or from minutes when degrees are zero, or from
// seconds when both are zero.
func ParseDMS(tok string) float64 {
	parts := strings.SplitN(tok, ",", 3)
	deg := leadingInt(parts[0])
	var min, sec int
	if len(parts) > 1 {
		min = leadingInt(parts[1])
	}
	if len(parts) > 2 {
		sec = leadingInt(parts[2])
	}
	return DMSToDecimal(deg, min, sec)
}

// DMSToDecimal combines degrees, minutes and seconds into decimal degrees.
func DMSToDecimal(deg, min, sec int) float64 {
	v := math.Abs(float64(deg)) + math.Abs(float64(min))/60.0 + math.Abs(float64(sec))/3600.0

	negative := deg < 0 || (deg == 0 && (min < 0 || (min == 0 && sec < 0)))
	if negative {
		return -v
	}
	return v
}

func firstUpper(tok string) rune {
	if tok == "" {
		return 0
	}
	return unicode.ToUpper(rune(tok[0]))
}

package query

import (
	"errors"
	"fmt"
)

// Hard per-record errors. Callers match them with errors.Is.
var (
	ErrUnrecognizedDate             = errors.New("unrecognized date")
	ErrRangeNotAllowedInBatch       = errors.New("date ranges not allowed for file option")
	ErrUnrecognizedHeightReference  = errors.New("unrecognized height reference")
	ErrAltitudeOutOfRange           = errors.New("altitude out of range")
	ErrUnrecognizedCoordinateFormat = errors.New("unrecognized coordinate format")
	ErrMissingToken                 = errors.New("missing token")
)

// ParseError reports which token of a record was rejected.
type ParseError struct {
	Field string // date, height-reference, altitude, latitude/longitude, record
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Field, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErr(field, token string, err error) *ParseError {
	return &ParseError{Field: field, Token: token, Err: err}
}

// Kind returns a short label for err suitable for metrics, or "other".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrUnrecognizedDate):
		return "unrecognized_date"
	case errors.Is(err, ErrRangeNotAllowedInBatch):
		return "range_not_allowed"
	case errors.Is(err, ErrUnrecognizedHeightReference):
		return "unrecognized_height_reference"
	case errors.Is(err, ErrAltitudeOutOfRange):
		return "altitude_out_of_range"
	case errors.Is(err, ErrUnrecognizedCoordinateFormat):
		return "unrecognized_coordinate_format"
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	default:
		return "other"
	}
}

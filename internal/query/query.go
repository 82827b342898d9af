package query

import "fmt"

// Mode selects the token rules Parse applies.
type Mode int

const (
	// ModeBatch requires all five tokens and rejects date ranges.
	ModeBatch Mode = iota
	// ModeSingle accepts one to five tokens and fills in defaults.
	ModeSingle
)

// NumTokens is the number of positional tokens in a full record.
const NumTokens = 5

// Query is one decoded record.
type Query struct {
	Date      Date
	HeightRef HeightReference
	Altitude  Altitude
	Lat, Lon  float64

	// Tokens are the raw input tokens, echoed in the output.
	Tokens []string
}

// DateInRange reports whether every date the query covers lies within
// [min, max].
func (q Query) DateInRange(min, max float64) bool {
	return q.Date.Start >= min && q.Date.End <= max
}

// defaultTokens fill in omitted trailing tokens in single query mode:
// mean sea level, 0 km, 0 degrees latitude and longitude.
var defaultTokens = [NumTokens]string{"", "M", "K0", "0", "0"}

// Parse decodes the positional tokens date, height reference, altitude,
// latitude and longitude. Tokens past the fifth are ignored.
func Parse(tokens []string, mode Mode) (Query, error) {
	if len(tokens) == 0 {
		return Query{}, parseErr("record", "", fmt.Errorf("%w: date is required", ErrMissingToken))
	}
	if mode == ModeBatch && len(tokens) < NumTokens {
		return Query{}, parseErr("record", "", fmt.Errorf("%w: got %d of %d tokens", ErrMissingToken, len(tokens), NumTokens))
	}

	var toks [NumTokens]string
	for i := range toks {
		if i < len(tokens) {
			toks[i] = tokens[i]
		} else {
			toks[i] = defaultTokens[i]
		}
	}
	q := Query{Tokens: toks[:]}

	var err error
	if q.Date, err = ParseDate(toks[0]); err != nil {
		return q, err
	}
	if mode == ModeBatch && q.Date.Range {
		return q, parseErr("date", toks[0], ErrRangeNotAllowedInBatch)
	}
	if q.HeightRef, err = ParseHeightReference(toks[1]); err != nil {
		return q, err
	}
	if q.Altitude, err = ParseAltitude(toks[2]); err != nil {
		return q, err
	}
	if q.Lat, q.Lon, err = ParseCoordinates(toks[3], toks[4]); err != nil {
		return q, err
	}

	return q, nil
}

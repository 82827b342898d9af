package model

import "fmt"

// Model holds one set of spherical harmonic coefficients and their
// secular variation rates. Coefficient arrays are triangular and indexed
// by Index(n, m).
type Model struct {
	Name       string
	Epoch      float64
	NMax       int // main field degree
	NMaxSecVar int // secular variation degree, <= NMax

	G, H       []float64 // main field (nT)
	GDot, HDot []float64 // secular variation (nT/yr)
}

// NumTerms returns the coefficient array length for degree nMax.
func NumTerms(nMax int) int {
	return (nMax + 1) * (nMax + 2) / 2
}

// Index returns the position of the degree n, order m coefficient.
func Index(n, m int) int {
	return n*(n+1)/2 + m
}

// NewModel allocates a zeroed model able to hold degree nMax.
func NewModel(nMax int) *Model {
	size := NumTerms(nMax)
	return &Model{
		NMax:       nMax,
		NMaxSecVar: nMax,
		G:          make([]float64, size),
		H:          make([]float64, size),
		GDot:       make([]float64, size),
		HDot:       make([]float64, size),
	}
}

// Capacity returns the highest degree the coefficient arrays can hold.
func (m *Model) Capacity() int {
	n := 0
	for NumTerms(n+1) <= len(m.G) {
		n++
	}
	return n
}

// CopyFrom overwrites m with the coefficients of src without reallocating.
// Terms above src.NMax are zeroed.
func (m *Model) CopyFrom(src *Model) error {
	need := NumTerms(src.NMax)
	if need > len(m.G) {
		return fmt.Errorf("model %s degree %d exceeds buffer degree %d", src.Name, src.NMax, m.Capacity())
	}

	m.Name = src.Name
	m.Epoch = src.Epoch
	m.NMax = src.NMax
	m.NMaxSecVar = src.NMaxSecVar

	copy(m.G, src.G[:need])
	copy(m.H, src.H[:need])
	copy(m.GDot, src.GDot[:need])
	copy(m.HDot, src.HDot[:need])
	clear(m.G[need:])
	clear(m.H[need:])
	clear(m.GDot[need:])
	clear(m.HDot[need:])

	return nil
}

// Clone returns an independent copy of m sized to its own degree.
func (m *Model) Clone() *Model {
	return m.Truncate(m.NMax, m.NMaxSecVar)
}

// Truncate returns a copy of m limited to degree nMax for the main field
// and nMaxSecVar for the secular variation. Terms m does not carry are zero.
func (m *Model) Truncate(nMax, nMaxSecVar int) *Model {
	c := NewModel(nMax)
	c.Name = m.Name
	c.Epoch = m.Epoch
	c.NMaxSecVar = min(nMaxSecVar, nMax)

	n := NumTerms(min(nMax, m.NMax))
	copy(c.G, m.G[:n])
	copy(c.H, m.H[:n])

	n = NumTerms(min(c.NMaxSecVar, m.NMaxSecVar, m.NMax))
	copy(c.GDot, m.GDot[:n])
	copy(c.HDot, m.HDot[:n])
	return c
}

package temporal

import (
	"fmt"

	"github.com/star/emmproc/internal/metrics"
	"github.com/star/emmproc/internal/model"
)

// Selector picks the model for a query date and time-adjusts it.
//
// It owns two scratch models sized once to the repository's scratch
// degree: the selected copy of a repository entry and the time-adjusted
// result. Both are overwritten on every call, so a Selector must not be
// shared between goroutines.
type Selector struct {
	repo     *model.Repository
	selected *model.Model
	timed    *model.Model
	loaded   int // repository index held in selected, -1 if none
}

// NewSelector allocates the scratch models for repo.
func NewSelector(repo *model.Repository) *Selector {
	n := repo.ScratchNMax()
	return &Selector{
		repo:     repo,
		selected: model.NewModel(n),
		timed:    model.NewModel(n),
		loaded:   -1,
	}
}

// MinYear returns the start of the repository's validity window.
func (s *Selector) MinYear() float64 {
	return s.repo.MinYear()
}

// MaxYear returns the end of the repository's validity window.
func (s *Selector) MaxYear() float64 {
	return s.repo.MaxYear()
}

// SelectFor returns the model time-adjusted to decimalYear. Dates outside
// the table clamp to the first or trailing model. The returned model is
// only valid until the next call.
func (s *Selector) SelectFor(decimalYear float64) *model.Model {
	idx := s.repo.IndexFor(decimalYear)
	copied := idx != s.loaded
	if copied {
		if err := s.selected.CopyFrom(s.repo.At(idx)); err != nil {
			// Scratch buffers are sized from the repository itself.
			panic(fmt.Sprintf("temporal: %v", err))
		}
		s.loaded = idx
	}
	metrics.RecordModelSelection(copied)

	Adjust(s.selected, decimalYear, s.timed)
	return s.timed
}

// Adjust writes src's coefficients linearly extrapolated to decimalYear into
// dst. Terms up to src.NMaxSecVar move at their secular variation rate; the
// rest are copied unchanged. dst must hold at least src.NMax.
func Adjust(src *model.Model, decimalYear float64, dst *model.Model) {
	dt := decimalYear - src.Epoch
	size := model.NumTerms(src.NMax)
	svSize := model.NumTerms(src.NMaxSecVar)

	dst.Name = src.Name
	dst.Epoch = src.Epoch
	dst.NMax = src.NMax
	dst.NMaxSecVar = src.NMaxSecVar

	for i := 0; i < size; i++ {
		if i < svSize {
			dst.G[i] = src.G[i] + dt*src.GDot[i]
			dst.H[i] = src.H[i] + dt*src.HDot[i]
		} else {
			dst.G[i] = src.G[i]
			dst.H[i] = src.H[i]
		}
		dst.GDot[i] = src.GDot[i]
		dst.HDot[i] = src.HDot[i]
	}
	clear(dst.G[size:])
	clear(dst.H[size:])
	clear(dst.GDot[size:])
	clear(dst.HDot[size:])
}

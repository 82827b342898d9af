package model

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
)

// ErrMissingModelFile is returned when a main or secular variation file
// for a configured epoch cannot be opened.
var ErrMissingModelFile = errors.New("missing model file")

// validityHorizon is how many years past the trailing epoch a model set
// is considered valid.
const validityHorizon = 5.0

// LoadConfig describes which coefficient files make up a repository.
type LoadConfig struct {
	MinYear     int    // first epoch year
	Epochs      int    // annual models plus the trailing model
	MainPattern string // fmt pattern taking the year, e.g. "EMM%d.COF"
	SVPattern   string // fmt pattern taking the year, e.g. "EMM%dSV.COF"
}

// DefaultLoadConfig returns the EMM2000 through EMM2015 file set.
func DefaultLoadConfig() LoadConfig {
	return LoadConfig{
		MinYear:     2000,
		Epochs:      16,
		MainPattern: "EMM%d.COF",
		SVPattern:   "EMM%dSV.COF",
	}
}

// Repository is the ordered, read-only set of per-epoch models.
// The last entry is the synthetic trailing model.
type Repository struct {
	models      []*Model
	minYear     float64
	maxYear     float64
	scratchNMax int
}

// Load reads one main and one secular variation file per epoch from fsys.
// The last configured year becomes the trailing model with epoch
// MinYear+Epochs-1. Any missing file fails the whole load.
func Load(fsys fs.FS, cfg LoadConfig, logger *slog.Logger) (*Repository, error) {
	if cfg.Epochs < 1 {
		return nil, fmt.Errorf("epoch count must be positive, got %d", cfg.Epochs)
	}

	models := make([]*Model, 0, cfg.Epochs)
	for i := 0; i < cfg.Epochs; i++ {
		year := cfg.MinYear + i
		m, err := loadEpoch(fsys, cfg, year, logger)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded model", "year", year, "name", m.Name, "n_max", m.NMax, "n_max_sv", m.NMaxSecVar)
		models = append(models, m)
	}

	repo, err := NewRepository(models)
	if err != nil {
		return nil, err
	}

	logger.Info("model repository loaded",
		"epochs", len(models),
		"min_year", repo.minYear,
		"max_year", repo.maxYear,
		"n_max", repo.NMax(),
		"scratch_n_max", repo.ScratchNMax(),
	)

	return repo, nil
}

func loadEpoch(fsys fs.FS, cfg LoadConfig, year int, logger *slog.Logger) (*Model, error) {
	mainName := fmt.Sprintf(cfg.MainPattern, year)
	svName := fmt.Sprintf(cfg.SVPattern, year)

	main, err := fsys.Open(mainName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingModelFile, mainName, err)
	}
	defer main.Close()

	sv, err := fsys.Open(svName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingModelFile, svName, err)
	}
	defer sv.Close()

	m, err := Parse(main, sv, logger)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", mainName, err)
	}
	if m.Name == "" {
		m.Name = fmt.Sprintf("EMM%d", year)
	}
	return m, nil
}

// NewRepository builds a repository from already decoded models. The last
// model is treated as the trailing model: its epoch is realigned and its
// coefficients are cut to the first model's degrees.
func NewRepository(models []*Model) (*Repository, error) {
	if len(models) == 0 {
		return nil, errors.New("repository needs at least one model")
	}
	ms := make([]*Model, len(models))
	copy(ms, models)

	scratch := 0
	for _, m := range ms {
		scratch = max(scratch, m.NMax)
	}

	// The trailing model always sits exactly len-1 years after the first
	// so that index arithmetic stays a plain subtraction.
	last := len(ms) - 1
	trailing := ms[last].Truncate(ms[0].NMax, ms[0].NMaxSecVar)
	trailing.Epoch = ms[0].Epoch + float64(last)
	ms[last] = trailing

	return &Repository{
		models:      ms,
		minYear:     ms[0].Epoch,
		maxYear:     trailing.Epoch + validityHorizon,
		scratchNMax: scratch,
	}, nil
}

// Len returns the number of models including the trailing one.
func (r *Repository) Len() int {
	return len(r.models)
}

// At returns the model at index i. Callers must not modify it.
func (r *Repository) At(i int) *Model {
	return r.models[i]
}

// MinYear returns the epoch of the first model.
func (r *Repository) MinYear() float64 {
	return r.minYear
}

// MaxYear returns the end of the validity window.
func (r *Repository) MaxYear() float64 {
	return r.maxYear
}

// NMax returns the main field degree of the first model, which is also
// the degree of the trailing model.
func (r *Repository) NMax() int {
	return r.models[0].NMax
}

// ScratchNMax returns the degree scratch buffers must hold: the highest
// degree among the loaded files, normally that of the last one.
func (r *Repository) ScratchNMax() int {
	return r.scratchNMax
}

// IndexFor maps a decimal year to a model index, clamped to the table.
func (r *Repository) IndexFor(decimalYear float64) int {
	i := math.Floor(decimalYear) - r.minYear
	last := len(r.models) - 1
	switch {
	case !(i >= 0):
		return 0
	case i > float64(last):
		return last
	}
	return int(i)
}

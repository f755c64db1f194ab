package app

import (
	"math"

	"curve-editor/internal/edit"
	"curve-editor/internal/laplacian"
	"curve-editor/internal/sketch"
)

// Preference keys.
const (
	prefBias          = "solver.bias"
	prefReuse         = "solver.reuseFactorization"
	prefSensitivity   = "edit.sensitivity"
	prefSegmentLength = "edit.segmentLength"
	prefPeeling       = "edit.peeling"
	prefMaxPoints     = "sketch.maxPoints"
)

// Preferences is the key-value store the configuration is persisted in.
// *prefs.Prefs satisfies it.
type Preferences interface {
	FloatWithFallback(key string, fallback float64) float64
	SetFloat(key string, val float64)
	Bool(key string, fallback bool) bool
	SetBool(key string, val bool)
}

// Config holds the user-tunable editor settings.
type Config struct {
	Bias               float64 // fixed-point constraint weight
	Sensitivity        float64 // pick radius, normalized device units
	SegmentLength      float64 // stroke spacing and peeling radius unit
	MaxPoints          int     // stroke length cap
	Peeling            bool
	ReuseFactorization bool
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Bias:          laplacian.DefaultBias,
		Sensitivity:   edit.DefaultSensitivity,
		SegmentLength: edit.DefaultSegmentLength,
		MaxPoints:     sketch.DefaultMaxPoints,
	}
}

// LoadConfig reads the settings from p. Missing or non-positive values fall
// back to the defaults.
func LoadConfig(p Preferences) Config {
	def := DefaultConfig()
	cfg := Config{
		Bias:               positive(p.FloatWithFallback(prefBias, def.Bias), def.Bias),
		Sensitivity:        positive(p.FloatWithFallback(prefSensitivity, def.Sensitivity), def.Sensitivity),
		SegmentLength:      positive(p.FloatWithFallback(prefSegmentLength, def.SegmentLength), def.SegmentLength),
		MaxPoints:          int(positive(p.FloatWithFallback(prefMaxPoints, float64(def.MaxPoints)), float64(def.MaxPoints))),
		Peeling:            p.Bool(prefPeeling, def.Peeling),
		ReuseFactorization: p.Bool(prefReuse, def.ReuseFactorization),
	}
	if cfg.MaxPoints < 2 {
		cfg.MaxPoints = def.MaxPoints
	}
	return cfg
}

// Store writes the settings to p. The caller saves p.
func (c Config) Store(p Preferences) {
	p.SetFloat(prefBias, c.Bias)
	p.SetFloat(prefSensitivity, c.Sensitivity)
	p.SetFloat(prefSegmentLength, c.SegmentLength)
	p.SetFloat(prefMaxPoints, float64(c.MaxPoints))
	p.SetBool(prefPeeling, c.Peeling)
	p.SetBool(prefReuse, c.ReuseFactorization)
}

// Policy returns the drag policy the settings select.
func (c Config) Policy() edit.Policy {
	if c.Peeling {
		return edit.Peeling
	}
	return edit.NoPeeling
}

func positive(v, fallback float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

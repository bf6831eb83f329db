package octagon

import (
	"os"

	"github.com/benbjohnson/immutable"
	"gopkg.in/yaml.v2"
)

// floatComparer orders widening thresholds.
type floatComparer struct{}

func (floatComparer) Compare(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Config tunes a Domain. The zero value is a usable default: rational
// tightening, lazy closure enabled, no widening thresholds.
type Config struct {
	// Integer forces integer tightening (floor-of-half) in closure
	// even when not every dimension is integer.
	Integer bool `yaml:"integer"`
	// Algorithm mirrors the host's per-function algorithm option: a
	// negative value disables lazy closure, making operations set the
	// Algo flag instead of closing their arguments.
	Algorithm int `yaml:"algorithm"`
	// WideningThresholds is the ascending ladder used by
	// WideningThresholds; +∞ is always an implicit final rung.
	WideningThresholds []float64 `yaml:"widening_thresholds"`

	// thresholds is the persistent sorted view of WideningThresholds,
	// shared by every widening iteration.
	thresholds *immutable.SortedMap[float64, struct{}]
}

func (c Config) withDefaults() Config {
	m := immutable.NewSortedMap[float64, struct{}](floatComparer{})
	for _, t := range c.WideningThresholds {
		m = m.Set(t, struct{}{})
	}
	c.thresholds = m
	return c
}

// ceiling returns the smallest threshold ≥ v, or +∞ if none exists.
func (c Config) ceiling(v float64) float64 {
	itr := c.thresholds.Iterator()
	itr.Seek(v)
	if t, _, ok := itr.Next(); ok {
		return t
	}
	return inf
}

// LoadConfig reads a YAML domain configuration.
func LoadConfig(path string) (Config, error) {
	var c Config
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, err
	}
	return c, nil
}

package names

import (
	"math"

	"namefinder/internal/config"
	"namefinder/internal/dataprocessing"
)

// Years restricts a query to a range of birth years. Year, when set, selects
// exactly that year and takes precedence over After and Before. Zero means
// unset for every field.
type Years struct {
	After  int `json:"after,omitempty"`
	Before int `json:"before,omitempty"`
	Year   int `json:"year,omitempty"`
}

// Contains reports whether y passes the filter
func (f Years) Contains(y int) bool {
	if f.Year != 0 {
		return y == f.Year
	}
	if f.After != 0 && y < f.After {
		return false
	}
	if f.Before != 0 && y > f.Before {
		return false
	}
	return true
}

// Engine answers read-only queries over a built dataset. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	ds     *dataprocessing.Dataset
	cfg    config.DatasetConfig
	policy Policy
}

// NewEngine creates a query engine over ds
func NewEngine(ds *dataprocessing.Dataset, cfg config.DatasetConfig, policy Policy) *Engine {
	if cfg.SearchTop == 0 {
		cfg.SearchTop = config.DefaultSearchTop
	}
	if cfg.MidPercentile == 0 {
		cfg.MidPercentile = config.DefaultMidPercentile
	}
	return &Engine{ds: ds, cfg: cfg, policy: policy.withDefaults()}
}

// Dataset returns the dataset the engine reads
func (e *Engine) Dataset() *dataprocessing.Dataset {
	return e.ds
}

func round(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(x*p) / p
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

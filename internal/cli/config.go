package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/radekizk-sketch/mv-design-pro/pkg/powerflow"
)

// solverConfig mirrors the TOML options file accepted by --options.
//
//	base_mva = 100.0
//	max_iter = 50
//	tolerance = 1e-8
//	damping = 1.0
//	flat_start = true
//	validate = true
//	trace_level = 1
//
//	[q_limits.G1]
//	min_mvar = -30.0
//	max_mvar = 30.0
//
//	[taps]
//	T1 = 2.0
type solverConfig struct {
	BaseMVA    float64 `toml:"base_mva"`
	MaxIter    int     `toml:"max_iter"`
	Tolerance  float64 `toml:"tolerance"`
	Damping    float64 `toml:"damping"`
	FlatStart  *bool   `toml:"flat_start"`
	Validate   *bool   `toml:"validate"`
	TraceLevel *int    `toml:"trace_level"`

	QLimits map[string]qLimitConfig `toml:"q_limits"`
	Taps    map[string]float64      `toml:"taps"`
}

type qLimitConfig struct {
	MinMVAR float64 `toml:"min_mvar"`
	MaxMVAR float64 `toml:"max_mvar"`
}

// loadOptions starts from the solver defaults and overlays the TOML file at
// path when one is given.
func loadOptions(path string) (powerflow.Options, error) {
	opts := powerflow.DefaultOptions()
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("reading options file: %v", err)
	}
	var cfg solverConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return opts, fmt.Errorf("parsing options file: %v", err)
	}

	if cfg.BaseMVA > 0 {
		opts.BaseMVA = cfg.BaseMVA
	}
	if cfg.MaxIter > 0 {
		opts.MaxIter = cfg.MaxIter
	}
	if cfg.Tolerance > 0 {
		opts.Tolerance = cfg.Tolerance
	}
	if cfg.Damping > 0 {
		opts.Damping = cfg.Damping
	}
	if cfg.FlatStart != nil {
		opts.FlatStart = *cfg.FlatStart
	}
	if cfg.Validate != nil {
		opts.Validate = *cfg.Validate
	}
	if cfg.TraceLevel != nil {
		opts.TraceLevel = *cfg.TraceLevel
	}
	if len(cfg.QLimits) > 0 {
		opts.QLimits = make(map[string]powerflow.QLimit, len(cfg.QLimits))
		for id, lim := range cfg.QLimits {
			opts.QLimits[id] = powerflow.QLimit{MinMVAR: lim.MinMVAR, MaxMVAR: lim.MaxMVAR}
		}
	}
	if len(cfg.Taps) > 0 {
		opts.TapOverrides = cfg.Taps
	}

	return opts, nil
}

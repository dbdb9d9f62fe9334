package powerflow

import "github.com/radekizk-sketch/mv-design-pro/internal/consts"

// QLimit bounds the reactive output of a PV bus in MVAr. When the solved
// reactive power leaves the band, the bus is converted to a PQ bus at the
// violated limit for the remainder of the solve.
type QLimit struct {
	MinMVAR float64
	MaxMVAR float64
}

// Options controls one power-flow solve. The zero value is not usable;
// start from DefaultOptions.
type Options struct {
	BaseMVA   float64
	MaxIter   int
	Tolerance float64 // max power mismatch (pu)
	Damping   float64 // step scale factor, 1 = full Newton step
	FlatStart bool    // true: 1.0 pu / 0 rad seed, false: node Vm/Va seed
	Validate  bool    // run the validation gate before solving

	// TraceLevel 0 suppresses per-iteration records, 1 and above keeps them.
	TraceLevel int

	QLimits      map[string]QLimit     // PV node id -> reactive band
	TapOverrides map[string]float64    // transformer branch id -> tap position
	Shunts       map[string]complex128 // node id -> extra shunt admittance (pu)
}

// DefaultOptions returns the standard solver settings.
func DefaultOptions() Options {
	return Options{
		BaseMVA:    consts.DefaultBaseMVA,
		MaxIter:    consts.DefaultMaxIter,
		Tolerance:  consts.DefaultTolerance,
		Damping:    consts.DefaultDamping,
		FlatStart:  true,
		Validate:   true,
		TraceLevel: 1,
	}
}

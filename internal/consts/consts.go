package consts

import "math"

const (
	Frequency = 50.0               // System frequency (Hz)
	Omega     = 2 * math.Pi * 50.0 // Angular frequency (rad/s)
	Sqrt2     = 1.4142135623730951 // sqrt(2)
	Sqrt3     = 1.7320508075688772 // sqrt(3)

	DefaultBaseMVA   = 100.0 // Default system power base (MVA)
	DefaultTolerance = 1e-8  // Power mismatch tolerance (pu)
	DefaultMaxIter   = 50
	DefaultDamping   = 1.0
)

// Package shortcircuit computes IEC 60909 short-circuit currents.
//
// All four fault types share one tail: the network is reduced to the
// Thevenin impedance at the fault node (the Z-bus diagonal), the initial
// symmetrical current Ik'' follows from the voltage factor c, and the peak,
// thermal and breaking currents are derived from the R/X ratio of the fault
// impedance.
//
// The negative-sequence impedance is taken equal to the positive-sequence
// impedance (Z2 := Z1) for the unbalanced fault types. This is a documented
// simplification, not a full negative-sequence network model.
package shortcircuit

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/radekizk-sketch/mv-design-pro/internal/consts"
	"github.com/radekizk-sketch/mv-design-pro/pkg/matrix"
	"github.com/radekizk-sketch/mv-design-pro/pkg/network"
	"github.com/radekizk-sketch/mv-design-pro/pkg/ybus"
)

// FaultType names the fault configuration.
type FaultType string

const (
	FaultThreePhase     FaultType = "3P"
	FaultTwoPhase       FaultType = "2P"
	FaultSinglePhase    FaultType = "1PG"
	FaultTwoPhaseGround FaultType = "2PG"
)

// ErrZeroFaultImpedance is returned when the equivalent fault impedance is
// exactly zero and the current would be unbounded.
var ErrZeroFaultImpedance = errors.New("zero equivalent fault impedance")

// Params carries the fault request. Z0Bus is the externally supplied
// zero-sequence bus impedance matrix, indexed like the graph's sorted node
// order; it is mandatory for ground faults.
type Params struct {
	FaultNodeID string
	CFactor     float64 // voltage factor c, typically 0.95..1.10
	TkS         float64 // short-circuit duration for Ith (s)
	TbS         float64 // minimum breaking delay for Ib (s)
	Z0Bus       *matrix.Complex
}

// Result is one computed fault case. Impedances are in ohm, currents in
// ampere, Sk in MVA.
type Result struct {
	FaultType   FaultType
	FaultNodeID string
	CFactor     float64
	UnV         float64 // nominal voltage at the fault node (V)

	ZkkOhm    complex128 // positive-sequence Thevenin impedance
	ZequivOhm complex128 // equivalent fault impedance for this fault type

	IkssA   float64 // initial symmetrical short-circuit current
	IpA     float64 // peak current
	IthA    float64 // thermal equivalent current
	IbA     float64 // symmetrical breaking current
	SkMVA   float64 // short-circuit power
	RXRatio float64
	Kappa   float64
	TaS     float64 // aperiodic time constant (s)
	TkS     float64
	TbS     float64
}

// ThreePhase computes a balanced three-phase fault at the given node.
func ThreePhase(g *network.Graph, p Params) (*Result, error) {
	zkk, un, err := faultImpedance(g, p, false)
	if err != nil {
		return nil, err
	}
	return finish(FaultThreePhase, p, un, zkk, zkk, true)
}

// TwoPhase computes a phase-to-phase fault without ground contact.
func TwoPhase(g *network.Graph, p Params) (*Result, error) {
	zkk, un, err := faultImpedance(g, p, false)
	if err != nil {
		return nil, err
	}
	// Z2 := Z1
	return finish(FaultTwoPhase, p, un, zkk, zkk+zkk, false)
}

// SinglePhaseGround computes a single phase-to-ground fault. Requires Z0Bus.
func SinglePhaseGround(g *network.Graph, p Params) (*Result, error) {
	zkk, un, err := faultImpedance(g, p, true)
	if err != nil {
		return nil, err
	}
	z0 := zeroSequence(g, p)
	return finish(FaultSinglePhase, p, un, zkk, zkk+zkk+z0, false)
}

// TwoPhaseGround computes a two-phase-to-ground fault. Requires Z0Bus.
func TwoPhaseGround(g *network.Graph, p Params) (*Result, error) {
	zkk, un, err := faultImpedance(g, p, true)
	if err != nil {
		return nil, err
	}
	z0 := zeroSequence(g, p)
	return finish(FaultTwoPhaseGround, p, un, zkk, zkk+zkk+z0, false)
}

// faultImpedance validates the request, inverts the ohm-mode admittance
// matrix and returns the Thevenin impedance Zkk at the fault node together
// with the nominal voltage in volts.
func faultImpedance(g *network.Graph, p Params, needZ0 bool) (complex128, float64, error) {
	node := g.Node(p.FaultNodeID)
	if node == nil {
		return 0, 0, fmt.Errorf("fault node %q not found in graph", p.FaultNodeID)
	}
	if p.CFactor <= 0 {
		return 0, 0, fmt.Errorf("c_factor must be positive, got %g", p.CFactor)
	}
	if p.TkS <= 0 {
		return 0, 0, fmt.Errorf("tk_s must be positive, got %g", p.TkS)
	}
	if p.TbS <= 0 {
		return 0, 0, fmt.Errorf("tb_s must be positive, got %g", p.TbS)
	}
	if needZ0 && p.Z0Bus == nil {
		return 0, 0, fmt.Errorf("z0_bus is required for ground faults")
	}

	yb, err := ybus.NewOhmBuilder(g).Build()
	if err != nil {
		return 0, 0, fmt.Errorf("building admittance matrix: %v", err)
	}

	zbus, err := yb.Matrix.Invert()
	if err != nil {
		return 0, 0, fmt.Errorf("admittance matrix not invertible: %v", err)
	}

	k := yb.Index[p.FaultNodeID]
	return zbus.At(k, k), node.VoltageKV * 1e3, nil
}

func zeroSequence(g *network.Graph, p Params) complex128 {
	k := 0
	for i, id := range g.NodeIDs() {
		if id == p.FaultNodeID {
			k = i
			break
		}
	}
	return p.Z0Bus.At(k, k)
}

// finish applies the common IEC 60909 tail to the equivalent impedance.
func finish(ft FaultType, p Params, un float64, zkk, zequiv complex128, threePhase bool) (*Result, error) {
	zmag := cmplx.Abs(zequiv)
	if zmag == 0 {
		return nil, fmt.Errorf("fault node %q: %w", p.FaultNodeID, ErrZeroFaultImpedance)
	}

	var ikss float64
	if threePhase {
		ikss = p.CFactor * un / (consts.Sqrt3 * zmag)
	} else {
		// Phase-to-neutral voltage drives the unbalanced loop directly.
		ikss = p.CFactor * un / zmag
	}

	r, x := real(zequiv), imag(zequiv)

	rx := math.Inf(1)
	if x != 0 {
		rx = r / x
	}
	kappa := 1.02 + 0.98*math.Exp(-3*rx)

	ta := 0.0
	if r > 0 && x > 0 {
		ta = x / (consts.Omega * r)
	}

	ib := ikss
	if ta > 0 {
		decay := (kappa - 1) * math.Exp(-p.TbS/ta)
		ib = ikss * math.Sqrt(1+decay*decay)
	}

	return &Result{
		FaultType:   ft,
		FaultNodeID: p.FaultNodeID,
		CFactor:     p.CFactor,
		UnV:         un,
		ZkkOhm:      zkk,
		ZequivOhm:   zequiv,
		IkssA:       ikss,
		IpA:         kappa * consts.Sqrt2 * ikss,
		IthA:        ikss * math.Sqrt(p.TkS),
		IbA:         ib,
		SkMVA:       consts.Sqrt3 * un * ikss / 1e6,
		RXRatio:     rx,
		Kappa:       kappa,
		TaS:         ta,
		TkS:         p.TkS,
		TbS:         p.TbS,
	}, nil
}

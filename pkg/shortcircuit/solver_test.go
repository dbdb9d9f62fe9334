package shortcircuit

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radekizk-sketch/mv-design-pro/internal/consts"
	"github.com/radekizk-sketch/mv-design-pro/pkg/matrix"
	"github.com/radekizk-sketch/mv-design-pro/pkg/network"
	"github.com/radekizk-sketch/mv-design-pro/pkg/ybus"
)

// feederGraph is an external grid feeding a 20 kV bus over one transformer.
func feederGraph(t *testing.T, pkKW float64) *network.Graph {
	t.Helper()
	g := network.NewGraph()
	require.NoError(t, g.AddNode(&network.Node{ID: "HV", Type: network.NodeSlack, VoltageKV: 110, Vm: 1}))
	require.NoError(t, g.AddNode(&network.Node{ID: "LV", Type: network.NodePQ, VoltageKV: 20}))
	require.NoError(t, g.AddBranch(&network.TransformerBranch{
		BranchID: "T1", From: "HV", To: "LV",
		RatedPowerMVA: 25, VoltageHVKV: 110, VoltageLVKV: 20,
		UkPercent: 10, PkKW: pkKW, Service: true,
	}))
	return g
}

func defaultParams() Params {
	return Params{FaultNodeID: "LV", CFactor: 1.10, TkS: 1, TbS: 0.1}
}

func TestThreePhaseAgainstZbus(t *testing.T) {
	g := feederGraph(t, 120)

	res, err := ThreePhase(g, defaultParams())
	require.NoError(t, err)

	// Independent check: invert the ohm-mode Y-bus and apply the IEC
	// formula to its diagonal.
	yb, err := ybus.NewOhmBuilder(g).Build()
	require.NoError(t, err)
	zbus, err := yb.Matrix.Invert()
	require.NoError(t, err)
	zkk := zbus.At(yb.Index["LV"], yb.Index["LV"])

	want := 1.10 * 20e3 / (consts.Sqrt3 * cmplx.Abs(zkk))
	assert.InDelta(t, want, res.IkssA, want*1e-12)
	assert.InDelta(t, real(zkk), real(res.ZkkOhm), 1e-12)
	assert.InDelta(t, imag(zkk), imag(res.ZkkOhm), 1e-12)

	// |Z| = 0.1 * 20^2/25 = 1.6 ohm for this transformer.
	assert.InDelta(t, 1.6, cmplx.Abs(res.ZequivOhm), 1e-9)
	assert.Equal(t, FaultThreePhase, res.FaultType)
	assert.Equal(t, 20e3, res.UnV)
	assert.InDelta(t, consts.Sqrt3*20e3*res.IkssA/1e6, res.SkMVA, 1e-9)
}

func TestIkssMonotonicInC(t *testing.T) {
	g := feederGraph(t, 120)

	low := defaultParams()
	low.CFactor = 0.95
	high := defaultParams()
	high.CFactor = 1.10

	resLow, err := ThreePhase(g, low)
	require.NoError(t, err)
	resHigh, err := ThreePhase(g, high)
	require.NoError(t, err)

	assert.Greater(t, resHigh.IkssA, resLow.IkssA)
}

func TestKappaDecreasesWithRX(t *testing.T) {
	// Same |Z| (uk fixed), more copper losses: larger R/X, smaller kappa
	// and smaller peak current.
	lowRX, err := ThreePhase(feederGraph(t, 120), defaultParams())
	require.NoError(t, err)
	highRX, err := ThreePhase(feederGraph(t, 1200), defaultParams())
	require.NoError(t, err)

	assert.Greater(t, highRX.RXRatio, lowRX.RXRatio)
	assert.Less(t, highRX.Kappa, lowRX.Kappa)
	assert.Less(t, highRX.IpA, lowRX.IpA)
	assert.InDelta(t, lowRX.IkssA, highRX.IkssA, lowRX.IkssA*1e-9)
}

func TestKappaInfiniteRX(t *testing.T) {
	// r_pu = uk/100: the reactance clamps to zero and R/X is infinite.
	g := network.NewGraph()
	require.NoError(t, g.AddNode(&network.Node{ID: "HV", Type: network.NodeSlack, VoltageKV: 110, Vm: 1}))
	require.NoError(t, g.AddNode(&network.Node{ID: "LV", Type: network.NodePQ, VoltageKV: 20}))
	require.NoError(t, g.AddBranch(&network.TransformerBranch{
		BranchID: "T1", From: "HV", To: "LV",
		RatedPowerMVA: 25, VoltageHVKV: 110, VoltageLVKV: 20,
		UkPercent: 6, PkKW: 1500, Service: true,
	}))

	res, err := ThreePhase(g, defaultParams())
	require.NoError(t, err)

	assert.True(t, math.IsInf(res.RXRatio, 1))
	assert.InDelta(t, 1.02, res.Kappa, 1e-12)
	assert.Zero(t, res.TaS)
	assert.Equal(t, res.IkssA, res.IbA)

	finite, err := ThreePhase(feederGraph(t, 120), defaultParams())
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Kappa, finite.Kappa)
}

func TestIthScaling(t *testing.T) {
	g := feederGraph(t, 120)

	p1 := defaultParams()
	p1.TkS = 1
	p4 := defaultParams()
	p4.TkS = 4

	res1, err := ThreePhase(g, p1)
	require.NoError(t, err)
	res4, err := ThreePhase(g, p4)
	require.NoError(t, err)

	assert.InDelta(t, 2*res1.IthA, res4.IthA, res1.IthA*1e-12)
	assert.Equal(t, res1.IkssA, res1.IthA) // sqrt(1) = 1
}

func TestBreakingCurrent(t *testing.T) {
	g := feederGraph(t, 120)

	res, err := ThreePhase(g, defaultParams())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.IbA, res.IkssA)

	long := defaultParams()
	long.TbS = 1e6
	resLong, err := ThreePhase(g, long)
	require.NoError(t, err)
	assert.InDelta(t, resLong.IkssA, resLong.IbA, resLong.IkssA*1e-9)
}

func TestTwoPhase(t *testing.T) {
	g := feederGraph(t, 120)

	res, err := TwoPhase(g, defaultParams())
	require.NoError(t, err)

	assert.Equal(t, FaultTwoPhase, res.FaultType)
	// Z2 := Z1, no sqrt(3) factor for the unbalanced loop.
	want := 1.10 * 20e3 / cmplx.Abs(res.ZkkOhm+res.ZkkOhm)
	assert.InDelta(t, want, res.IkssA, want*1e-12)
	assert.Equal(t, res.ZkkOhm+res.ZkkOhm, res.ZequivOhm)
}

func TestGroundFaults(t *testing.T) {
	g := feederGraph(t, 120)

	_, err := SinglePhaseGround(g, defaultParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "z0_bus")

	_, err = TwoPhaseGround(g, defaultParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "z0_bus")

	// With a zero-sequence matrix the equivalent is Z1+Z2+Z0.
	three, err := ThreePhase(g, defaultParams())
	require.NoError(t, err)

	z0 := matrix.NewComplex(2)
	z0.Set(0, 0, complex(0.1, 1))
	z0.Set(1, 1, complex(0.1, 1))

	p := defaultParams()
	p.Z0Bus = z0
	res, err := SinglePhaseGround(g, p)
	require.NoError(t, err)
	assert.Equal(t, FaultSinglePhase, res.FaultType)
	assert.Equal(t, three.ZkkOhm+three.ZkkOhm+complex(0.1, 1), res.ZequivOhm)

	res2, err := TwoPhaseGround(g, p)
	require.NoError(t, err)
	assert.Equal(t, res.ZequivOhm, res2.ZequivOhm)
}

func TestZeroEquivalentImpedance(t *testing.T) {
	g := feederGraph(t, 120)

	three, err := ThreePhase(g, defaultParams())
	require.NoError(t, err)

	// A zero-sequence diagonal canceling 2*Z1 exactly drives the loop
	// impedance to zero.
	z0 := matrix.NewComplex(2)
	z0.Set(1, 1, -(three.ZkkOhm + three.ZkkOhm))

	p := defaultParams()
	p.Z0Bus = z0
	_, err = SinglePhaseGround(g, p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrZeroFaultImpedance)
}

func TestParameterValidation(t *testing.T) {
	g := feederGraph(t, 120)

	cases := []struct {
		name    string
		mutate  func(*Params)
		message string
	}{
		{"unknown node", func(p *Params) { p.FaultNodeID = "NOPE" }, "fault node"},
		{"c factor", func(p *Params) { p.CFactor = 0 }, "c_factor"},
		{"negative c factor", func(p *Params) { p.CFactor = -1 }, "c_factor"},
		{"tk", func(p *Params) { p.TkS = 0 }, "tk_s"},
		{"tb", func(p *Params) { p.TbS = -2 }, "tb_s"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := defaultParams()
			tc.mutate(&p)
			_, err := ThreePhase(g, p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

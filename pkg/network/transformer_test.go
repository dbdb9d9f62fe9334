package network

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformerImpedancePU(t *testing.T) {
	tr := &TransformerBranch{
		BranchID: "T1", From: "HV", To: "LV",
		RatedPowerMVA: 10, VoltageHVKV: 110, VoltageLVKV: 20,
		UkPercent: 6, PkKW: 60, Service: true,
	}

	// At the transformer's own rating: z = 0.06, r = 0.006, x = sqrt(z^2-r^2).
	z := tr.ImpedancePU(10)
	assert.InDelta(t, 0.006, real(z), 1e-15)
	assert.InDelta(t, math.Sqrt(0.06*0.06-0.006*0.006), imag(z), 1e-15)

	// Rescaling to 100 MVA multiplies both parts by exactly 10.
	z100 := tr.ImpedancePU(100)
	assert.Equal(t, real(z)*10, real(z100))
	assert.Equal(t, imag(z)*10, imag(z100))
}

func TestTransformerReactanceClamp(t *testing.T) {
	// Loss resistance above the nameplate impedance: the radical is clamped.
	tr := &TransformerBranch{RatedPowerMVA: 10, UkPercent: 1, PkKW: 2000}
	z := tr.ImpedancePU(10)
	assert.Equal(t, 0.2, real(z))
	assert.Zero(t, imag(z))
}

func TestTransformerImpedanceOhm(t *testing.T) {
	tr := &TransformerBranch{
		RatedPowerMVA: 25, VoltageHVKV: 110, VoltageLVKV: 20,
		UkPercent: 10, PkKW: 120,
	}
	// |z_pu| = 0.1, referred to 20 kV: |Z| = 0.1 * 400/25 = 1.6 ohm.
	z := tr.ImpedanceOhm()
	mag := math.Hypot(real(z), imag(z))
	assert.InDelta(t, 1.6, mag, 1e-12)
}

func TestTransformerTapRatio(t *testing.T) {
	tr := &TransformerBranch{TapPosition: 2, TapStepPercent: 2.5}
	assert.InDelta(t, 1.05, tr.TapRatio(), 1e-15)

	neutral := &TransformerBranch{TapPosition: 0, TapStepPercent: 2.5}
	assert.Equal(t, 1.0, neutral.TapRatio())
}

func TestTransformerValidate(t *testing.T) {
	valid := &TransformerBranch{
		BranchID: "T1", From: "HV", To: "LV",
		RatedPowerMVA: 25, VoltageHVKV: 110, VoltageLVKV: 20,
		UkPercent: 10, PkKW: 120, Service: true,
	}
	require.True(t, valid.Validate())

	broken := *valid
	broken.UkPercent = math.NaN()
	assert.False(t, broken.Validate())

	broken = *valid
	broken.TapStepPercent = math.Inf(1)
	assert.False(t, broken.Validate())
}

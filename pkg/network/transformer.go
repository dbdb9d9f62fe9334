package network

import "math"

// TransformerBranch is a two-winding transformer. Its short-circuit
// impedance is derived from the rating plate (uk%, pk) in per-unit at the
// transformer's own rated power and rescaled to the system base on demand.
// The from-node is the HV side and carries the tap changer.
type TransformerBranch struct {
	BranchID       string
	From           string
	To             string
	RatedPowerMVA  float64
	VoltageHVKV    float64
	VoltageLVKV    float64
	UkPercent      float64 // short-circuit voltage (%)
	PkKW           float64 // copper losses at rated current (kW)
	I0Percent      float64 // no-load current (%), carried but not stamped
	P0KW           float64 // iron losses (kW), carried but not stamped
	TapPosition    float64
	TapStepPercent float64
	Service        bool
}

func transformerFromMap(fields map[string]any) *TransformerBranch {
	return &TransformerBranch{
		BranchID:       stringField(fields, "id"),
		From:           stringField(fields, "from_node"),
		To:             stringField(fields, "to_node"),
		RatedPowerMVA:  floatField(fields, "rated_power_mva"),
		VoltageHVKV:    floatField(fields, "voltage_hv_kv"),
		VoltageLVKV:    floatField(fields, "voltage_lv_kv"),
		UkPercent:      floatField(fields, "uk_percent"),
		PkKW:           floatField(fields, "pk_kw"),
		I0Percent:      floatField(fields, "i0_percent"),
		P0KW:           floatField(fields, "p0_kw"),
		TapPosition:    floatField(fields, "tap_position"),
		TapStepPercent: floatField(fields, "tap_step_percent"),
		Service:        boolField(fields, "in_service", true),
	}
}

func (t *TransformerBranch) ID() string       { return t.BranchID }
func (t *TransformerBranch) FromNode() string { return t.From }
func (t *TransformerBranch) ToNode() string   { return t.To }
func (t *TransformerBranch) Type() BranchType { return BranchTransformer }
func (t *TransformerBranch) InService() bool  { return t.Service }

// impedancePUAtRating returns r+jx in per-unit at the transformer's own
// rated power: z = uk/100, r = pk/Sn, x = sqrt(z²−r²). The radical is
// clamped at zero when the loss resistance exceeds the nameplate impedance.
func (t *TransformerBranch) impedancePUAtRating() complex128 {
	zPU := t.UkPercent / 100
	rPU := 0.0
	if t.RatedPowerMVA != 0 {
		rPU = (t.PkKW / 1000) / t.RatedPowerMVA
	}
	under := zPU*zPU - rPU*rPU
	xPU := 0.0
	if under > 0 {
		xPU = math.Sqrt(under)
	}
	return complex(rPU, xPU)
}

// ImpedancePU rescales the rating-base impedance to an arbitrary system
// base by the ratio baseMVA/Sn.
func (t *TransformerBranch) ImpedancePU(baseMVA float64) complex128 {
	if t.RatedPowerMVA == 0 {
		return 0
	}
	return t.impedancePUAtRating() * complex(baseMVA/t.RatedPowerMVA, 0)
}

// ImpedanceOhm returns the short-circuit impedance in ohm referred to the
// LV side: z_pu·U_lv²/Sn.
func (t *TransformerBranch) ImpedanceOhm() complex128 {
	if t.RatedPowerMVA == 0 {
		return 0
	}
	return t.impedancePUAtRating() * complex(t.VoltageLVKV*t.VoltageLVKV/t.RatedPowerMVA, 0)
}

// TapRatio returns the off-nominal turns ratio 1 + tap·step/100.
func (t *TransformerBranch) TapRatio() float64 {
	return 1 + t.TapPosition*t.TapStepPercent/100
}

func (t *TransformerBranch) Validate() bool {
	return isFinite(t.RatedPowerMVA, t.VoltageHVKV, t.VoltageLVKV, t.UkPercent,
		t.PkKW, t.I0Percent, t.P0KW, t.TapPosition, t.TapStepPercent)
}

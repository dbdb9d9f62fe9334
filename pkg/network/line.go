package network

// LineBranch is a cable or overhead line modeled as a series impedance with
// the total charging susceptance split evenly between the two terminals
// (π-model).
type LineBranch struct {
	BranchID      string
	From          string
	To            string
	BranchType    BranchType // CABLE or LINE
	ROhmPerKm     float64
	XOhmPerKm     float64
	BUsPerKm      float64 // charging susceptance (µS/km)
	LengthKm      float64
	RatedCurrentA float64
	Service       bool
}

func lineFromMap(bt BranchType, fields map[string]any) *LineBranch {
	return &LineBranch{
		BranchID:      stringField(fields, "id"),
		From:          stringField(fields, "from_node"),
		To:            stringField(fields, "to_node"),
		BranchType:    bt,
		ROhmPerKm:     floatField(fields, "r_ohm_per_km"),
		XOhmPerKm:     floatField(fields, "x_ohm_per_km"),
		BUsPerKm:      floatField(fields, "b_us_per_km"),
		LengthKm:      floatField(fields, "length_km"),
		RatedCurrentA: floatField(fields, "rated_current_a"),
		Service:       boolField(fields, "in_service", true),
	}
}

func (l *LineBranch) ID() string       { return l.BranchID }
func (l *LineBranch) FromNode() string { return l.From }
func (l *LineBranch) ToNode() string   { return l.To }
func (l *LineBranch) Type() BranchType { return l.BranchType }
func (l *LineBranch) InService() bool  { return l.Service }

// Impedance returns the total series impedance (r + jx)·length in ohm.
func (l *LineBranch) Impedance() complex128 {
	return complex(l.ROhmPerKm*l.LengthKm, l.XOhmPerKm*l.LengthKm)
}

// ShuntAdmittance returns the total line charging admittance
// j·b_us_per_km·1e-6·length in siemens.
func (l *LineBranch) ShuntAdmittance() complex128 {
	return complex(0, l.BUsPerKm*1e-6*l.LengthKm)
}

// ShuntAdmittancePerEnd returns half of the total charging admittance, the
// amount stamped on each terminal diagonal of the π-model.
func (l *LineBranch) ShuntAdmittancePerEnd() complex128 {
	return l.ShuntAdmittance() / 2
}

// ImpedancePU converts the series impedance to per-unit on baseMVA with the
// given voltage base. kvBase must be nonzero.
func (l *LineBranch) ImpedancePU(baseMVA, kvBase float64) complex128 {
	zBase := kvBase * kvBase / baseMVA
	return l.Impedance() / complex(zBase, 0)
}

// ShuntAdmittancePerEndPU converts the per-end charging admittance to
// per-unit on baseMVA with the given voltage base.
func (l *LineBranch) ShuntAdmittancePerEndPU(baseMVA, kvBase float64) complex128 {
	zBase := kvBase * kvBase / baseMVA
	return l.ShuntAdmittancePerEnd() * complex(zBase, 0)
}

func (l *LineBranch) Validate() bool {
	if l.BranchType != BranchCable && l.BranchType != BranchLine {
		return false
	}
	return isFinite(l.ROhmPerKm, l.XOhmPerKm, l.BUsPerKm, l.LengthKm, l.RatedCurrentA)
}

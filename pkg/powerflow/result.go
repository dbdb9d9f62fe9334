package powerflow

import "github.com/radekizk-sketch/mv-design-pro/pkg/ybus"

// Severity grades a validation finding. BLOCKER findings abort the solve.
type Severity string

const (
	SeverityBlocker Severity = "BLOCKER"
	SeverityWarning Severity = "WARNING"
)

// Issue is one validation finding.
type Issue struct {
	Severity Severity
	Message  string
}

// NodeResult is the solved state of one bus.
type NodeResult struct {
	Vm    float64 // voltage magnitude (pu)
	VaRad float64 // voltage angle (rad)
	VaDeg float64 // voltage angle (deg)

	// VKV is Vm scaled by the bus voltage base. Zero and HasVoltageBase
	// false when the bus has no base; such buses are also listed in
	// Result.MissingVoltageBaseNodes.
	VKV            float64
	HasVoltageBase bool
}

// BranchFlow is the solved loading of one branch. From/To follow the
// branch's own terminal orientation.
type BranchFlow struct {
	IFromPU  complex128
	IToPU    complex128
	SFromPU  complex128
	SToPU    complex128
	SFromMVA complex128
	SToMVA   complex128
	IFromKA  float64
	IToKA    float64

	// LoadingPercent relates the from-side current to the rated current of
	// a line branch; zero for branches without a current rating.
	LoadingPercent float64
}

// IterationRecord is one Newton-Raphson step of the solve trace.
type IterationRecord struct {
	Iteration    int
	MaxMismatch  float64
	MismatchNorm float64
	StepNorm     float64
	Damping      float64
}

// PVSwitch records one PV bus converted to a PQ bus at its reactive limit.
type PVSwitch struct {
	NodeID     string
	Iteration  int
	QLimitMVAR float64
}

// Result is the full outcome of one power-flow solve. Non-convergence is
// carried here (Converged false, Cause "max_iter"), never as an error.
type Result struct {
	Converged   bool
	Iterations  int
	MaxMismatch float64
	Cause       string // "converged" or "max_iter"

	Nodes    map[string]NodeResult
	Branches map[string]BranchFlow

	// NotSolvedNodes lists nodes outside the slack island, excluded from
	// the solve.
	NotSolvedNodes          []string
	MissingVoltageBaseNodes []string

	TotalLossMVA   complex128
	BranchFlowNote string
	SlackNodeID    string
	SlackPowerMVA  complex128

	Issues         []Issue
	AppliedTaps    []ybus.TapApplication
	AppliedShunts  []ybus.ShuntApplication
	PVToPQSwitches []PVSwitch
	Trace          []IterationRecord
}

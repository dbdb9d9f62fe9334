// Package ybus assembles the nodal admittance matrix of a network.
//
// The matrix row order is the sorted node-id order of the graph, fixed at
// build time. Every downstream consumer (power flow, short circuit) takes
// the node→index mapping from the build result, so one solve always works
// on one consistent ordering.
package ybus

import (
	"fmt"

	"github.com/radekizk-sketch/mv-design-pro/pkg/matrix"
	"github.com/radekizk-sketch/mv-design-pro/pkg/network"
)

// Mode selects the unit system of the assembled matrix.
type Mode int

const (
	// ModePerUnit stamps per-unit admittances on a common power base. Used
	// by the power-flow solver. Stamping is symmetric except for off-nominal
	// transformer taps.
	ModePerUnit Mode = iota

	// ModeOhm stamps physical admittances (siemens). Used by the
	// short-circuit solver. A SLACK node is treated as an ideal-source
	// terminal: a branch incident to it contributes its series admittance to
	// both terminal diagonals but no off-diagonal coupling, since the source
	// holds its voltage.
	ModeOhm
)

// TapApplication records one off-nominal transformer tap folded into the
// matrix, for external audit.
type TapApplication struct {
	BranchID string
	Position float64
	Ratio    float64
}

// ShuntApplication records one shunt admittance added to a node diagonal.
type ShuntApplication struct {
	NodeID     string
	Admittance complex128
}

// Result is an assembled admittance matrix with its node ordering and the
// audit trace of taps and shunts that went into it.
type Result struct {
	Matrix        *matrix.Complex
	Index         map[string]int // node id -> matrix row
	Order         []string       // matrix row -> node id
	AppliedTaps   []TapApplication
	AppliedShunts []ShuntApplication
}

// Builder folds the in-service branches of a graph into an admittance
// matrix. The zero value is not usable; construct with NewBuilder.
type Builder struct {
	graph        *network.Graph
	mode         Mode
	baseMVA      float64
	tapOverrides map[string]float64
	shunts       map[string]complex128
}

// NewBuilder returns a per-unit builder on the given power base.
func NewBuilder(g *network.Graph, baseMVA float64) *Builder {
	return &Builder{graph: g, mode: ModePerUnit, baseMVA: baseMVA}
}

// NewOhmBuilder returns a physical-unit builder for short-circuit studies.
func NewOhmBuilder(g *network.Graph) *Builder {
	return &Builder{graph: g, mode: ModeOhm}
}

// WithTapOverrides replaces transformer tap positions by branch id.
func (b *Builder) WithTapOverrides(taps map[string]float64) *Builder {
	b.tapOverrides = taps
	return b
}

// WithShunts adds per-unit shunt admittances at node diagonals.
// Only effective in per-unit mode.
func (b *Builder) WithShunts(shunts map[string]complex128) *Builder {
	b.shunts = shunts
	return b
}

// Build assembles the matrix. Out-of-service branches contribute nothing,
// parallel branches accumulate, and isolated nodes keep all-zero rows.
func (b *Builder) Build() (*Result, error) {
	order := b.graph.NodeIDs()
	index := make(map[string]int, len(order))
	for i, id := range order {
		index[id] = i
	}

	res := &Result{
		Matrix: matrix.NewComplex(len(order)),
		Index:  index,
		Order:  order,
	}

	for _, br := range b.graph.Branches() {
		if !br.InService() {
			continue
		}
		var err error
		switch v := br.(type) {
		case *network.LineBranch:
			err = b.stampLine(res, v)
		case *network.TransformerBranch:
			err = b.stampTransformer(res, v)
		default:
			err = fmt.Errorf("branch %q: unsupported branch kind %T", br.ID(), br)
		}
		if err != nil {
			return nil, err
		}
	}

	if b.mode == ModePerUnit {
		for _, id := range order {
			y, ok := b.shunts[id]
			if !ok || y == 0 {
				continue
			}
			res.Matrix.Add(index[id], index[id], y)
			res.AppliedShunts = append(res.AppliedShunts, ShuntApplication{NodeID: id, Admittance: y})
		}
	}

	return res, nil
}

func (b *Builder) stampLine(res *Result, l *network.LineBranch) error {
	i := res.Index[l.From]
	j := res.Index[l.To]

	var ySeries, yShuntEnd complex128
	switch b.mode {
	case ModePerUnit:
		kv, err := b.lineVoltageBase(l)
		if err != nil {
			return err
		}
		z := l.ImpedancePU(b.baseMVA, kv)
		if z == 0 {
			return fmt.Errorf("line %q: zero series impedance", l.BranchID)
		}
		ySeries = 1 / z
		yShuntEnd = l.ShuntAdmittancePerEndPU(b.baseMVA, kv)
	case ModeOhm:
		z := l.Impedance()
		if z == 0 {
			return fmt.Errorf("line %q: zero series impedance", l.BranchID)
		}
		ySeries = 1 / z
		yShuntEnd = l.ShuntAdmittancePerEnd()
	}

	b.stampSymmetric(res, l.From, l.To, i, j, ySeries)
	res.Matrix.Add(i, i, yShuntEnd)
	res.Matrix.Add(j, j, yShuntEnd)
	return nil
}

func (b *Builder) stampTransformer(res *Result, t *network.TransformerBranch) error {
	i := res.Index[t.From]
	j := res.Index[t.To]

	var z complex128
	switch b.mode {
	case ModePerUnit:
		z = t.ImpedancePU(b.baseMVA)
	case ModeOhm:
		z = t.ImpedanceOhm()
	}
	if z == 0 {
		return fmt.Errorf("transformer %q: zero series impedance", t.BranchID)
	}
	y := 1 / z

	if b.mode == ModeOhm {
		b.stampSymmetric(res, t.From, t.To, i, j, y)
		return nil
	}

	pos := t.TapPosition
	if b.tapOverrides != nil {
		if ov, ok := b.tapOverrides[t.BranchID]; ok {
			pos = ov
		}
	}
	ratio := 1 + pos*t.TapStepPercent/100
	if ratio == 0 {
		return fmt.Errorf("transformer %q: zero tap ratio", t.BranchID)
	}

	if ratio == 1 {
		res.Matrix.Add(i, i, y)
		res.Matrix.Add(j, j, y)
		res.Matrix.Add(i, j, -y)
		res.Matrix.Add(j, i, -y)
		return nil
	}

	// Off-nominal tap on the HV (from) side: the ratio appears squared on
	// the tapped diagonal and linearly on the cross terms.
	tc := complex(ratio, 0)
	res.Matrix.Add(i, i, y/(tc*tc))
	res.Matrix.Add(j, j, y)
	res.Matrix.Add(i, j, -y/tc)
	res.Matrix.Add(j, i, -y/tc)
	res.AppliedTaps = append(res.AppliedTaps, TapApplication{
		BranchID: t.BranchID,
		Position: pos,
		Ratio:    ratio,
	})
	return nil
}

// stampSymmetric adds a plain series admittance between two terminals. In
// ohm mode a SLACK terminal suppresses the off-diagonal coupling.
func (b *Builder) stampSymmetric(res *Result, fromID, toID string, i, j int, y complex128) {
	res.Matrix.Add(i, i, y)
	res.Matrix.Add(j, j, y)
	if b.mode == ModeOhm {
		if b.isSlack(fromID) || b.isSlack(toID) {
			return
		}
	}
	res.Matrix.Add(i, j, -y)
	res.Matrix.Add(j, i, -y)
}

func (b *Builder) isSlack(id string) bool {
	n := b.graph.Node(id)
	return n != nil && n.Type == network.NodeSlack
}

func (b *Builder) lineVoltageBase(l *network.LineBranch) (float64, error) {
	if n := b.graph.Node(l.From); n != nil && n.VoltageKV > 0 {
		return n.VoltageKV, nil
	}
	if n := b.graph.Node(l.To); n != nil && n.VoltageKV > 0 {
		return n.VoltageKV, nil
	}
	return 0, fmt.Errorf("line %q: no voltage base on either terminal", l.BranchID)
}

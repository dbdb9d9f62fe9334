// Package powerflow implements a damped Newton-Raphson AC power-flow solver
// in polar form.
//
// A solve is a pure function of the graph and the options: no state survives
// between calls and the input graph is never mutated. Numerical
// non-convergence is not an error; the result carries Converged=false with
// the cause tag "max_iter" and the caller decides policy.
package powerflow

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/radekizk-sketch/mv-design-pro/internal/consts"
	"github.com/radekizk-sketch/mv-design-pro/pkg/matrix"
	"github.com/radekizk-sketch/mv-design-pro/pkg/network"
	"github.com/radekizk-sketch/mv-design-pro/pkg/ybus"
)

// Solve runs one power-flow calculation on the graph.
//
// Scheduled powers follow the load convention on PQ buses (positive PMW
// consumes) and the generator convention on PV buses (positive PMW injects).
func Solve(g *network.Graph, opts Options) (*Result, error) {
	applyDefaults(&opts)

	issues, err := validateInput(g, opts)
	if err != nil {
		return nil, err
	}

	slackID := g.SlackNodes()[0]
	island := slackIsland(g, slackID)

	yb, err := ybus.NewBuilder(g, opts.BaseMVA).
		WithTapOverrides(opts.TapOverrides).
		WithShunts(opts.Shunts).
		Build()
	if err != nil {
		return nil, fmt.Errorf("building admittance matrix: %v", err)
	}

	res := &Result{
		Cause:          "converged",
		SlackNodeID:    slackID,
		NotSolvedNodes: notSolvedNodes(g, island),
		Issues:         issues,
		AppliedTaps:    yb.AppliedTaps,
		AppliedShunts:  yb.AppliedShunts,
	}

	st := newState(g, yb, island, opts)
	if err := st.iterate(opts, res); err != nil {
		return nil, err
	}

	st.storeNodeResults(g, res)
	st.storeBranchFlows(g, opts, res)
	st.storeSlackPower(opts, res)

	return res, nil
}

func applyDefaults(opts *Options) {
	if opts.BaseMVA <= 0 {
		opts.BaseMVA = consts.DefaultBaseMVA
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = consts.DefaultMaxIter
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = consts.DefaultTolerance
	}
	if opts.Damping <= 0 {
		opts.Damping = consts.DefaultDamping
	}
}

// validateInput runs the validation gate. Structural slack errors are always
// fatal; the soft checks run only when opts.Validate is set and abort on any
// BLOCKER finding.
func validateInput(g *network.Graph, opts Options) ([]Issue, error) {
	slacks := g.SlackNodes()
	if len(slacks) == 0 {
		return nil, fmt.Errorf("no slack node in graph")
	}
	if len(slacks) > 1 {
		return nil, fmt.Errorf("multiple slack nodes: %v", slacks)
	}

	var issues []Issue
	if !opts.Validate {
		return issues, nil
	}

	for _, id := range g.NodeIDs() {
		node := g.Node(id)
		if !node.Type.IsValid() {
			issues = append(issues, Issue{SeverityBlocker,
				fmt.Sprintf("node %q: invalid node type %q", id, node.Type)})
		}
		if node.VoltageKV <= 0 {
			issues = append(issues, Issue{SeverityWarning,
				fmt.Sprintf("node %q: no voltage base", id)})
		}
	}
	for _, br := range g.Branches() {
		if !br.Validate() {
			issues = append(issues, Issue{SeverityBlocker,
				fmt.Sprintf("branch %q: invalid parameters", br.ID())})
		}
	}

	for _, issue := range issues {
		if issue.Severity == SeverityBlocker {
			return issues, fmt.Errorf("validation failed: %s", issue.Message)
		}
	}
	return issues, nil
}

// state is the mutable working set of one solve.
type state struct {
	yb       *ybus.Result
	inIsland []bool
	kind     []network.NodeType
	vm       []float64 // voltage magnitude (pu)
	va       []float64 // voltage angle (rad)
	pspec    []float64 // specified active injection (pu)
	qspec    []float64 // specified reactive injection (pu)
}

func newState(g *network.Graph, yb *ybus.Result, island map[string]bool, opts Options) *state {
	n := len(yb.Order)
	st := &state{
		yb:       yb,
		inIsland: make([]bool, n),
		kind:     make([]network.NodeType, n),
		vm:       make([]float64, n),
		va:       make([]float64, n),
		pspec:    make([]float64, n),
		qspec:    make([]float64, n),
	}

	for i, id := range yb.Order {
		node := g.Node(id)
		st.inIsland[i] = island[id]
		st.kind[i] = node.Type

		st.vm[i] = 1
		if !opts.FlatStart && node.Vm > 0 {
			st.vm[i] = node.Vm
			st.va[i] = node.Va
		}

		switch node.Type {
		case network.NodeSlack:
			if node.Vm > 0 {
				st.vm[i] = node.Vm
			}
			st.va[i] = node.Va
		case network.NodePV:
			// Magnitude pinned to the setpoint, prior angle preserved.
			if node.Vm > 0 {
				st.vm[i] = node.Vm
			}
			st.pspec[i] = node.PMW / opts.BaseMVA
		case network.NodePQ:
			st.pspec[i] = -node.PMW / opts.BaseMVA
			st.qspec[i] = -node.QMVAR / opts.BaseMVA
		}
	}
	return st
}

// calcPower returns the injected active and reactive power at bus i for the
// present voltage state.
func (st *state) calcPower(i int) (p, q float64) {
	y := st.yb.Matrix
	for k := 0; k < y.Size; k++ {
		yik := y.At(i, k)
		if yik == 0 {
			continue
		}
		gik, bik := real(yik), imag(yik)
		th := st.va[i] - st.va[k]
		c, s := math.Cos(th), math.Sin(th)
		p += st.vm[i] * st.vm[k] * (gik*c + bik*s)
		q += st.vm[i] * st.vm[k] * (gik*s - bik*c)
	}
	return p, q
}

// iterate runs the damped Newton-Raphson loop until the maximum mismatch
// drops under the tolerance or the iteration cap is hit.
func (st *state) iterate(opts Options, res *Result) error {
	n := len(st.yb.Order)
	pcalc := make([]float64, n)
	qcalc := make([]float64, n)

	for iter := 0; ; iter++ {
		for i := 0; i < n; i++ {
			if st.inIsland[i] {
				pcalc[i], qcalc[i] = st.calcPower(i)
			}
		}

		// PV reactive limits are checked against the latest solved state;
		// the flat start carries no usable Q estimate, so the first check
		// happens after one update. A switch is irreversible.
		if iter > 0 {
			st.switchPVBuses(opts, iter, qcalc, res)
		}

		angBuses, magBuses := st.variables()

		mis := make([]float64, len(angBuses)+len(magBuses))
		for a, i := range angBuses {
			mis[a] = st.pspec[i] - pcalc[i]
		}
		for m, i := range magBuses {
			mis[len(angBuses)+m] = st.qspec[i] - qcalc[i]
		}

		maxMM, normMM := 0.0, 0.0
		for _, v := range mis {
			if math.Abs(v) > maxMM {
				maxMM = math.Abs(v)
			}
			normMM += v * v
		}
		normMM = math.Sqrt(normMM)

		res.MaxMismatch = maxMM
		res.Iterations = iter

		if maxMM <= opts.Tolerance {
			res.Converged = true
			return nil
		}
		if iter >= opts.MaxIter {
			res.Converged = false
			res.Cause = "max_iter"
			return nil
		}

		dx, err := st.solveStep(angBuses, magBuses, pcalc, qcalc, mis)
		if err != nil {
			return fmt.Errorf("iteration %d: %v", iter+1, err)
		}

		stepNorm := 0.0
		for _, v := range dx {
			stepNorm += v * v
		}
		stepNorm = math.Sqrt(stepNorm)

		for a, i := range angBuses {
			st.va[i] += opts.Damping * dx[a]
		}
		for m, i := range magBuses {
			st.vm[i] += opts.Damping * dx[len(angBuses)+m]
		}

		if opts.TraceLevel >= 1 {
			res.Trace = append(res.Trace, IterationRecord{
				Iteration:    iter + 1,
				MaxMismatch:  maxMM,
				MismatchNorm: normMM,
				StepNorm:     stepNorm,
				Damping:      opts.Damping,
			})
		}
	}
}

// variables returns the angle-variable buses (all non-slack island buses)
// and the magnitude-variable buses (island PQ buses), in matrix order.
func (st *state) variables() (angBuses, magBuses []int) {
	for i := range st.kind {
		if !st.inIsland[i] || st.kind[i] == network.NodeSlack {
			continue
		}
		angBuses = append(angBuses, i)
		if st.kind[i] == network.NodePQ {
			magBuses = append(magBuses, i)
		}
	}
	return angBuses, magBuses
}

// switchPVBuses converts PV buses whose reactive output left the configured
// band into PQ buses pinned at the violated limit.
func (st *state) switchPVBuses(opts Options, iter int, qcalc []float64, res *Result) {
	for i, id := range st.yb.Order {
		if !st.inIsland[i] || st.kind[i] != network.NodePV {
			continue
		}
		lim, ok := opts.QLimits[id]
		if !ok {
			continue
		}
		qMVAR := qcalc[i] * opts.BaseMVA
		switch {
		case qMVAR > lim.MaxMVAR:
			st.kind[i] = network.NodePQ
			st.qspec[i] = lim.MaxMVAR / opts.BaseMVA
			res.PVToPQSwitches = append(res.PVToPQSwitches, PVSwitch{
				NodeID: id, Iteration: iter, QLimitMVAR: lim.MaxMVAR,
			})
		case qMVAR < lim.MinMVAR:
			st.kind[i] = network.NodePQ
			st.qspec[i] = lim.MinMVAR / opts.BaseMVA
			res.PVToPQSwitches = append(res.PVToPQSwitches, PVSwitch{
				NodeID: id, Iteration: iter, QLimitMVAR: lim.MinMVAR,
			})
		}
	}
}

// solveStep builds the polar Jacobian and solves J·dx = mismatch.
func (st *state) solveStep(angBuses, magBuses []int, pcalc, qcalc, mis []float64) ([]float64, error) {
	y := st.yb.Matrix
	nAng := len(angBuses)
	nVar := nAng + len(magBuses)

	angCol := make(map[int]int, nAng)
	for a, i := range angBuses {
		angCol[i] = a
	}
	magCol := make(map[int]int, len(magBuses))
	for m, i := range magBuses {
		magCol[i] = nAng + m
	}

	sys, err := matrix.NewRealSystem(nVar)
	if err != nil {
		return nil, err
	}
	defer sys.Destroy()

	// dP rows
	for a, i := range angBuses {
		for k := 0; k < y.Size; k++ {
			yik := y.At(i, k)
			if yik == 0 && k != i {
				continue
			}
			gik, bik := real(yik), imag(yik)
			th := st.va[i] - st.va[k]
			c, s := math.Cos(th), math.Sin(th)

			if col, ok := angCol[k]; ok {
				if k == i {
					sys.Add(a, col, -qcalc[i]-bik*st.vm[i]*st.vm[i])
				} else {
					sys.Add(a, col, st.vm[i]*st.vm[k]*(gik*s-bik*c))
				}
			}
			if col, ok := magCol[k]; ok {
				if k == i {
					sys.Add(a, col, pcalc[i]/st.vm[i]+gik*st.vm[i])
				} else {
					sys.Add(a, col, st.vm[i]*(gik*c+bik*s))
				}
			}
		}
		sys.SetRHS(a, mis[a])
	}

	// dQ rows
	for m, i := range magBuses {
		row := nAng + m
		for k := 0; k < y.Size; k++ {
			yik := y.At(i, k)
			if yik == 0 && k != i {
				continue
			}
			gik, bik := real(yik), imag(yik)
			th := st.va[i] - st.va[k]
			c, s := math.Cos(th), math.Sin(th)

			if col, ok := angCol[k]; ok {
				if k == i {
					sys.Add(row, col, pcalc[i]-gik*st.vm[i]*st.vm[i])
				} else {
					sys.Add(row, col, -st.vm[i]*st.vm[k]*(gik*c+bik*s))
				}
			}
			if col, ok := magCol[k]; ok {
				if k == i {
					sys.Add(row, col, qcalc[i]/st.vm[i]-bik*st.vm[i])
				} else {
					sys.Add(row, col, st.vm[i]*(gik*s-bik*c))
				}
			}
		}
		sys.SetRHS(row, mis[row])
	}

	return sys.Solve()
}

func (st *state) storeNodeResults(g *network.Graph, res *Result) {
	res.Nodes = make(map[string]NodeResult)
	for i, id := range st.yb.Order {
		if !st.inIsland[i] {
			continue
		}
		nr := NodeResult{
			Vm:    st.vm[i],
			VaRad: st.va[i],
			VaDeg: st.va[i] * 180 / math.Pi,
		}
		if base := g.Node(id).VoltageKV; base > 0 {
			nr.VKV = st.vm[i] * base
			nr.HasVoltageBase = true
		} else {
			res.MissingVoltageBaseNodes = append(res.MissingVoltageBaseNodes, id)
		}
		res.Nodes[id] = nr
	}
}

func (st *state) voltage(i int) complex128 {
	return cmplx.Rect(st.vm[i], st.va[i])
}

func (st *state) storeBranchFlows(g *network.Graph, opts Options, res *Result) {
	res.Branches = make(map[string]BranchFlow)
	var loss complex128

	for _, br := range g.Branches() {
		if !br.InService() {
			continue
		}
		i, okI := st.yb.Index[br.FromNode()]
		j, okJ := st.yb.Index[br.ToNode()]
		if !okI || !okJ || !st.inIsland[i] || !st.inIsland[j] {
			continue
		}
		vi, vj := st.voltage(i), st.voltage(j)

		var flow BranchFlow
		switch v := br.(type) {
		case *network.LineBranch:
			kv := lineVoltageBase(g, v)
			ys := complex(1, 0) / v.ImpedancePU(opts.BaseMVA, kv)
			ysh := v.ShuntAdmittancePerEndPU(opts.BaseMVA, kv)
			flow.IFromPU = (vi-vj)*ys + vi*ysh
			flow.IToPU = (vj-vi)*ys + vj*ysh
			flow = finishFlow(flow, vi, vj, opts.BaseMVA, kv, kv)
			if v.RatedCurrentA > 0 {
				flow.LoadingPercent = flow.IFromKA * 1000 / v.RatedCurrentA * 100
			}
		case *network.TransformerBranch:
			y := complex(1, 0) / v.ImpedancePU(opts.BaseMVA)
			pos := v.TapPosition
			if opts.TapOverrides != nil {
				if ov, ok := opts.TapOverrides[v.BranchID]; ok {
					pos = ov
				}
			}
			tc := complex(1+pos*v.TapStepPercent/100, 0)
			flow.IFromPU = vi*y/(tc*tc) - vj*y/tc
			flow.IToPU = vj*y - vi*y/tc
			kvFrom := nodeVoltageBase(g, v.From, v.VoltageHVKV)
			kvTo := nodeVoltageBase(g, v.To, v.VoltageLVKV)
			flow = finishFlow(flow, vi, vj, opts.BaseMVA, kvFrom, kvTo)
		default:
			// No flow model for this branch kind: report zero losses
			// explicitly instead of a silently wrong total.
			res.BranchFlowNote = fmt.Sprintf(
				"branch %q: no flow model for kind %q, total losses omitted",
				br.ID(), br.Type())
		}
		res.Branches[br.ID()] = flow
		loss += flow.SFromMVA + flow.SToMVA
	}

	if res.BranchFlowNote != "" {
		res.TotalLossMVA = 0
		return
	}
	res.TotalLossMVA = loss
}

func finishFlow(flow BranchFlow, vi, vj complex128, baseMVA, kvFrom, kvTo float64) BranchFlow {
	flow.SFromPU = vi * cmplx.Conj(flow.IFromPU)
	flow.SToPU = vj * cmplx.Conj(flow.IToPU)
	flow.SFromMVA = flow.SFromPU * complex(baseMVA, 0)
	flow.SToMVA = flow.SToPU * complex(baseMVA, 0)
	if kvFrom > 0 {
		flow.IFromKA = cmplx.Abs(flow.IFromPU) * baseMVA / (consts.Sqrt3 * kvFrom)
	}
	if kvTo > 0 {
		flow.IToKA = cmplx.Abs(flow.IToPU) * baseMVA / (consts.Sqrt3 * kvTo)
	}
	return flow
}

func (st *state) storeSlackPower(opts Options, res *Result) {
	i := st.yb.Index[res.SlackNodeID]
	v := make([]complex128, len(st.yb.Order))
	for k := range v {
		v[k] = st.voltage(k)
	}
	inj := st.yb.Matrix.MulVec(v)
	res.SlackPowerMVA = st.voltage(i) * cmplx.Conj(inj[i]) * complex(opts.BaseMVA, 0)
}

func lineVoltageBase(g *network.Graph, l *network.LineBranch) float64 {
	if n := g.Node(l.From); n != nil && n.VoltageKV > 0 {
		return n.VoltageKV
	}
	if n := g.Node(l.To); n != nil && n.VoltageKV > 0 {
		return n.VoltageKV
	}
	return 0
}

func nodeVoltageBase(g *network.Graph, id string, fallback float64) float64 {
	if n := g.Node(id); n != nil && n.VoltageKV > 0 {
		return n.VoltageKV
	}
	return fallback
}

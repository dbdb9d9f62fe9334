package network

// NodeType classifies a bus for power-flow purposes.
type NodeType string

const (
	NodeSlack NodeType = "SLACK" // voltage magnitude and angle fixed
	NodePV    NodeType = "PV"    // voltage magnitude and active power fixed
	NodePQ    NodeType = "PQ"    // active and reactive power fixed
)

// IsValid reports whether t is one of the known bus types.
func (t NodeType) IsValid() bool {
	switch t {
	case NodeSlack, NodePV, NodePQ:
		return true
	}
	return false
}

// Node is a single bus of the network. VoltageKV is the voltage base of the
// bus; Vm/Va carry the setpoint for SLACK and PV buses and the solved state
// afterwards. PMW/QMVAR are the scheduled injections of PQ (and PV, active
// power only) buses, load positive.
type Node struct {
	ID        string
	Type      NodeType
	VoltageKV float64 // voltage base (kV), 0 if unknown
	Vm        float64 // voltage magnitude (pu)
	Va        float64 // voltage angle (rad)
	PMW       float64 // scheduled active power (MW)
	QMVAR     float64 // scheduled reactive power (MVAr)
}

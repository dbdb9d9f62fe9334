// Package netio decodes network descriptions from JSON. Branch records pass
// through the network.FromMap factory, so the tag resolution and its error
// semantics live in exactly one place.
package netio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/radekizk-sketch/mv-design-pro/pkg/network"
)

type nodeRecord struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	VoltageKV float64 `json:"voltage_kv"`
	Vm        float64 `json:"vm_pu"`
	Va        float64 `json:"va_rad"`
	PMW       float64 `json:"p_mw"`
	QMVAR     float64 `json:"q_mvar"`
}

type networkFile struct {
	Nodes    []nodeRecord     `json:"nodes"`
	Branches []map[string]any `json:"branches"`
}

// ReadGraph decodes a network description into a Graph.
func ReadGraph(r io.Reader) (*network.Graph, error) {
	var file networkFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding network: %v", err)
	}

	g := network.NewGraph()
	for _, rec := range file.Nodes {
		t := network.NodeType(rec.Type)
		if !t.IsValid() {
			return nil, fmt.Errorf("node %q: unknown node type %q", rec.ID, rec.Type)
		}
		node := &network.Node{
			ID:        rec.ID,
			Type:      t,
			VoltageKV: rec.VoltageKV,
			Vm:        rec.Vm,
			Va:        rec.Va,
			PMW:       rec.PMW,
			QMVAR:     rec.QMVAR,
		}
		if err := g.AddNode(node); err != nil {
			return nil, err
		}
	}

	for _, fields := range file.Branches {
		br, err := network.FromMap(fields)
		if err != nil {
			return nil, fmt.Errorf("branch %v: %w", fields["id"], err)
		}
		if err := g.AddBranch(br); err != nil {
			return nil, err
		}
	}

	return g, nil
}

package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphAddNode(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode(&Node{ID: "N1", Type: NodeSlack, VoltageKV: 20}))

	err := g.AddNode(&Node{ID: "N1", Type: NodePQ})
	assert.ErrorIs(t, err, ErrDuplicateID)

	err = g.AddNode(&Node{Type: NodePQ})
	assert.ErrorIs(t, err, ErrEmptyID)
}

func TestGraphAddBranch(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode(&Node{ID: "N1", Type: NodeSlack, VoltageKV: 20}))
	require.NoError(t, g.AddNode(&Node{ID: "N2", Type: NodePQ, VoltageKV: 20}))

	line := &LineBranch{BranchID: "L1", From: "N1", To: "N2", BranchType: BranchCable, Service: true}
	require.NoError(t, g.AddBranch(line))

	assert.ErrorIs(t, g.AddBranch(line), ErrDuplicateID)

	missing := &LineBranch{BranchID: "L2", From: "N1", To: "N9", BranchType: BranchCable}
	assert.ErrorIs(t, g.AddBranch(missing), ErrUnknownNode)
}

func TestGraphSortedIDs(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"N3", "N1", "N2"} {
		require.NoError(t, g.AddNode(&Node{ID: id, Type: NodePQ}))
	}
	assert.Equal(t, []string{"N1", "N2", "N3"}, g.NodeIDs())
	assert.Equal(t, 3, g.NumNodes())
}

func TestGraphSlackNodes(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode(&Node{ID: "B", Type: NodePQ}))
	require.NoError(t, g.AddNode(&Node{ID: "A", Type: NodeSlack}))
	assert.Equal(t, []string{"A"}, g.SlackNodes())
}

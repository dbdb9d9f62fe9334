package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMapString(t *testing.T) {
	br, err := FromMap(map[string]any{
		"branch_type":  "CABLE",
		"id":           "L1",
		"from_node":    "N1",
		"to_node":      "N2",
		"r_ohm_per_km": 0.2,
		"x_ohm_per_km": 0.4,
		"length_km":    10.0,
	})
	require.NoError(t, err)

	line, ok := br.(*LineBranch)
	require.True(t, ok)
	assert.Equal(t, BranchCable, line.Type())
	assert.Equal(t, "L1", line.ID())
	assert.Equal(t, complex(2, 4), line.Impedance())
	assert.True(t, line.InService())
}

func TestFromMapEnum(t *testing.T) {
	br, err := FromMap(map[string]any{
		"branch_type": BranchCable,
		"id":          "L1",
		"from_node":   "N1",
		"to_node":     "N2",
	})
	require.NoError(t, err)
	_, ok := br.(*LineBranch)
	assert.True(t, ok)
	assert.Equal(t, BranchCable, br.Type())
}

func TestFromMapTransformer(t *testing.T) {
	br, err := FromMap(map[string]any{
		"branch_type":     "TRANSFORMER",
		"id":              "T1",
		"from_node":       "HV",
		"to_node":         "LV",
		"rated_power_mva": 25.0,
		"voltage_hv_kv":   110.0,
		"voltage_lv_kv":   20.0,
		"uk_percent":      10.0,
		"pk_kw":           120.0,
		"in_service":      false,
	})
	require.NoError(t, err)

	tr, ok := br.(*TransformerBranch)
	require.True(t, ok)
	assert.Equal(t, BranchTransformer, tr.Type())
	assert.Equal(t, 25.0, tr.RatedPowerMVA)
	assert.False(t, tr.InService())
}

func TestFromMapCaseInsensitive(t *testing.T) {
	br, err := FromMap(map[string]any{"branch_type": "cable", "id": "L1"})
	require.NoError(t, err)
	assert.Equal(t, BranchCable, br.Type())
}

func TestFromMapMissingType(t *testing.T) {
	_, err := FromMap(map[string]any{"id": "L1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingBranchType)
	assert.Contains(t, err.Error(), "missing 'branch_type'")
}

func TestFromMapUnknownType(t *testing.T) {
	_, err := FromMap(map[string]any{"branch_type": "BUSBAR", "id": "B1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownBranchType)
	assert.Contains(t, err.Error(), "unknown branch_type")

	_, err = FromMap(map[string]any{"branch_type": 42})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownBranchType)
}

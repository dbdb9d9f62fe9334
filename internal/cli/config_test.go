package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radekizk-sketch/mv-design-pro/pkg/powerflow"
)

func TestLoadOptionsDefaults(t *testing.T) {
	opts, err := loadOptions("")
	require.NoError(t, err)
	assert.Equal(t, powerflow.DefaultOptions(), opts)
}

func TestLoadOptionsOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.toml")
	content := `
base_mva = 50.0
max_iter = 20
damping = 0.8
flat_start = false
trace_level = 2

[q_limits.G1]
min_mvar = -30.0
max_mvar = 30.0

[taps]
T1 = 2.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	opts, err := loadOptions(path)
	require.NoError(t, err)

	assert.Equal(t, 50.0, opts.BaseMVA)
	assert.Equal(t, 20, opts.MaxIter)
	assert.Equal(t, 0.8, opts.Damping)
	assert.False(t, opts.FlatStart)
	assert.Equal(t, 2, opts.TraceLevel)
	// Untouched fields keep their defaults.
	assert.Equal(t, powerflow.DefaultOptions().Tolerance, opts.Tolerance)
	assert.True(t, opts.Validate)

	require.Contains(t, opts.QLimits, "G1")
	assert.Equal(t, 30.0, opts.QLimits["G1"].MaxMVAR)
	assert.Equal(t, 2.0, opts.TapOverrides["T1"])
}

func TestLoadOptionsMissingFile(t *testing.T) {
	_, err := loadOptions("/nonexistent/options.toml")
	assert.Error(t, err)
}

func TestLoadOptionsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.toml")
	require.NoError(t, os.WriteFile(path, []byte("base_mva = ["), 0o644))
	_, err := loadOptions(path)
	assert.Error(t, err)
}

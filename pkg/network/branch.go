package network

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrMissingBranchType is returned by FromMap when the input carries no
	// "branch_type" key. The factory never guesses a default variant.
	ErrMissingBranchType = errors.New("missing 'branch_type'")

	// ErrUnknownBranchType is returned by FromMap when "branch_type" is
	// neither a known string tag nor a BranchType value.
	ErrUnknownBranchType = errors.New("unknown branch_type")
)

// BranchType discriminates the concrete branch variant. CABLE and LINE are
// both series π-model branches; TRANSFORMER carries a rating-based per-unit
// impedance and an off-nominal tap.
type BranchType string

const (
	BranchCable       BranchType = "CABLE"
	BranchLine        BranchType = "LINE"
	BranchTransformer BranchType = "TRANSFORMER"
)

// IsValid reports whether t is one of the known branch types.
func (t BranchType) IsValid() bool {
	switch t {
	case BranchCable, BranchLine, BranchTransformer:
		return true
	}
	return false
}

// Branch is the common surface of all electrical branch variants.
type Branch interface {
	ID() string
	FromNode() string
	ToNode() string
	Type() BranchType
	InService() bool
	// Validate reports whether every numeric parameter is finite and the
	// branch type tag is a proper enum value. It never returns an error.
	Validate() bool
}

// FromMap resolves a decoded branch description into the concrete variant.
// The "branch_type" value is accepted either as a string tag or as a
// BranchType. Numeric fields absent from the map default to zero.
func FromMap(fields map[string]any) (Branch, error) {
	raw, ok := fields["branch_type"]
	if !ok {
		return nil, ErrMissingBranchType
	}

	var bt BranchType
	switch v := raw.(type) {
	case BranchType:
		bt = v
	case string:
		bt = BranchType(strings.ToUpper(v))
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownBranchType, raw)
	}

	switch bt {
	case BranchCable, BranchLine:
		return lineFromMap(bt, fields), nil
	case BranchTransformer:
		return transformerFromMap(fields), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBranchType, string(bt))
	}
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func floatField(fields map[string]any, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func boolField(fields map[string]any, key string, def bool) bool {
	if v, ok := fields[key].(bool); ok {
		return v
	}
	return def
}

func isFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

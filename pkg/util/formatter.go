package util

import (
	"fmt"
	"math"
)

// FormatValueFactor renders a value with an engineering prefix, e.g.
// 0.0034 A -> "3.400 mA".
func FormatValueFactor(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue >= 1e6:
		return fmt.Sprintf("%.3f M%s", value/1e6, unit)
	case absValue >= 1e3:
		return fmt.Sprintf("%.3f k%s", value/1e3, unit)
	case absValue >= 1:
		return fmt.Sprintf("%.3f %s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case absValue == 0:
		return fmt.Sprintf("0.000 %s", unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

// FormatCurrent renders a current given in kA.
func FormatCurrent(ka float64) string {
	return FormatValueFactor(ka*1e3, "A")
}

// FormatPower renders an apparent power given in MVA.
func FormatPower(mva float64) string {
	return FormatValueFactor(mva*1e6, "VA")
}

// FormatVoltage renders a voltage given in kV.
func FormatVoltage(kv float64) string {
	return FormatValueFactor(kv*1e3, "V")
}

// FormatAngle renders an angle in degrees.
func FormatAngle(deg float64) string {
	return fmt.Sprintf("%6.2f deg", deg)
}

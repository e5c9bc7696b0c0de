package exporter

import (
	"fmt"
)

// FormatFloat formats a float64 value for CSV output with exactly 2 decimal
// places, so values like 13.4 appear as 13.40 consistently.
func FormatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// FormatInt formats an int64 value for CSV output
func FormatInt(i int64) string {
	return fmt.Sprintf("%d", i)
}

// FormatBool formats a boolean value for CSV output
func FormatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

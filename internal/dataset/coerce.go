package dataset

import (
	"strconv"
	"strings"
)

// ParseFloat parses a spreadsheet cell as a float64. Surrounding whitespace
// and embedded thousands separators are stripped ("1,000,000" parses as
// 1000000). Returns false for blank or non-numeric cells.
func ParseFloat(cell string) (float64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ParseInt parses a spreadsheet cell as an int64, with the same cleaning
// rules as ParseFloat.
func ParseInt(cell string) (int64, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

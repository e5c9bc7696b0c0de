package dataprocessing

import "strings"

// riskScores is the fixed descriptor lookup. Scores live on a 0-100 scale so
// the index reads as a percentage-like severity.
var riskScores = map[string]int{
	"very high": 100,
	"high":      90,
	"medium":    50,
	"low":       20,
	"very low":  10,
}

// RiskIndex maps a qualitative social-risk descriptor to its numeric index.
// Matching ignores case and surrounding/internal whitespace runs. Unknown,
// empty, or missing descriptors score 0 rather than erroring: a brand the
// source says nothing about carries no known risk.
func RiskIndex(descriptor string) int {
	key := strings.Join(strings.Fields(strings.ToLower(descriptor)), " ")
	return riskScores[key]
}

package impact

import (
	"math"
	"time"

	"iplcli/internal/config"
	"iplcli/pkg/contracts/domain"
)

// Fixed analysis constants. The high-risk threshold and exposure fraction
// are part of the metric definitions, not configuration.
const (
	// HighRiskThreshold is the health_risk_index cutoff (strictly above)
	// defining the high-risk subset.
	HighRiskThreshold = 70.0

	// ExposureFraction estimates the share of total viewers exposed to
	// high-risk advertising.
	ExposureFraction = 0.15

	// TopRiskCount is the size of the health-risk ranking.
	TopRiskCount = 10

	// TopGrowthCount is how many highest-risk brands get a CAGR figure.
	TopGrowthCount = 5

	// TopEndorsementCount is the size of the celebrity ranking.
	TopEndorsementCount = 5
)

// WeightSet holds the three ethics-index component weights. Weights must
// sum to 1 so the index stays on a comparable scale across runs.
type WeightSet struct {
	RiskReduction   float64 `json:"risk_reduction"`  // weight on (100 - mean risk)
	Diversification float64 `json:"diversification"` // weight on product-type diversity
	Compliance      float64 `json:"compliance"`      // weight on mean compliance score
}

// DefaultWeightSet returns the fixed production weights.
func DefaultWeightSet() WeightSet {
	return WeightSet{
		RiskReduction:   0.4,
		Diversification: 0.3,
		Compliance:      0.3,
	}
}

// IsValid checks that the weights are non-negative and sum to 1, allowing
// for small floating point error.
func (w WeightSet) IsValid() bool {
	sum := w.RiskReduction + w.Diversification + w.Compliance
	return w.RiskReduction >= 0 && w.Diversification >= 0 && w.Compliance >= 0 &&
		sum > 0.99 && sum < 1.01
}

// Params configures a calculation run.
type Params struct {
	// CAGRYears is the growth horizon in years.
	CAGRYears int

	// Weights are the ethics-index component weights.
	Weights WeightSet
}

// DefaultParams returns the production parameters.
func DefaultParams() Params {
	return Params{
		CAGRYears: config.DefaultCAGRYears,
		Weights:   DefaultWeightSet(),
	}
}

// Report is the full output of a calculation run: the result document plus
// the ranked tabular views the persist step writes as CSVs.
type Report struct {
	Results     *domain.AnalysisResults
	RankedRisk  *domain.Table // top health-risk rows, all columns preserved
	GeneratedAt time.Time
	Duration    time.Duration
}

// round2 rounds to 2 decimal places, the document-wide rounding rule.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

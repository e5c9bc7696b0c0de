package domain

import (
	"encoding/json"
	"fmt"
)

// Metric names are the top-level keys of the analysis result document. The
// dashboard looks results up by these exact strings, so they never change
// independently of it.
const (
	MetricCentralContracts      = "central_contracts"
	MetricHealthRisk            = "health_risk"
	MetricCAGR                  = "cagr"
	MetricPopulationImpact      = "population_impact"
	MetricCelebrityEndorsements = "celebrity_endorsements"
	MetricAEI                   = "aei"
)

// MetricKeys returns every metric name in document order.
func MetricKeys() []string {
	return []string{
		MetricCentralContracts,
		MetricHealthRisk,
		MetricCAGR,
		MetricPopulationImpact,
		MetricCelebrityEndorsements,
		MetricAEI,
	}
}

// GrowthRateNotApplicable is the serialized form of an undefined CAGR.
const GrowthRateNotApplicable = "not applicable"

// ScoreUndefined is the serialized form of an undefined average score.
const ScoreUndefined = "N/A"

// GrowthRate holds a compound annual growth rate that may be undefined.
// Undefined rates serialize as the string "not applicable" so that division
// by zero or roots of non-positive numbers never reach the result document.
type GrowthRate struct {
	Value float64
	Valid bool
}

// NewGrowthRate returns a defined growth rate.
func NewGrowthRate(v float64) GrowthRate {
	return GrowthRate{Value: v, Valid: true}
}

// MarshalJSON encodes the rate as a number, or as the sentinel string when
// undefined.
func (g GrowthRate) MarshalJSON() ([]byte, error) {
	if !g.Valid {
		return json.Marshal(GrowthRateNotApplicable)
	}
	return json.Marshal(g.Value)
}

// UnmarshalJSON accepts either a number or the sentinel string.
func (g *GrowthRate) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*g = GrowthRate{Value: v, Valid: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("growth rate: %w", err)
	}
	if s != GrowthRateNotApplicable {
		return fmt.Errorf("growth rate: unexpected value %q", s)
	}
	*g = GrowthRate{}
	return nil
}

// AverageScore holds a mean score that is undefined when computed over an
// empty set. Undefined scores serialize as "N/A", which the dashboard already
// renders as-is.
type AverageScore struct {
	Value float64
	Valid bool
}

// NewAverageScore returns a defined average score.
func NewAverageScore(v float64) AverageScore {
	return AverageScore{Value: v, Valid: true}
}

// MarshalJSON encodes the score as a number, or as "N/A" when undefined.
func (a AverageScore) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return json.Marshal(ScoreUndefined)
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON accepts either a number or the "N/A" sentinel.
func (a *AverageScore) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*a = AverageScore{Value: v, Valid: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("average score: %w", err)
	}
	if s != ScoreUndefined {
		return fmt.Errorf("average score: unexpected value %q", s)
	}
	*a = AverageScore{}
	return nil
}

// RevenueAnalysis represents the central contracts revenue metric.
type RevenueAnalysis struct {
	TotalRevenue      float64            `json:"total_revenue"`
	RevenueBySource   map[string]float64 `json:"revenue_by_source"`
	RevenuePercentage map[string]float64 `json:"revenue_percentage"`
}

// HealthRiskRow represents one ranked advertiser row in the result document.
// All source columns survive the ranking; health_risk_index is the only cell
// emitted as a number.
type HealthRiskRow map[string]any

// PopulationImpact represents the estimated reach of high-risk advertising.
type PopulationImpact struct {
	TotalAffectedPopulation float64      `json:"total_affected_population"`
	HighRiskBrandsCount     int          `json:"high_risk_brands_count"`
	AverageRiskScore        AverageScore `json:"average_risk_score"`
}

// CelebrityEndorsement represents one celebrity's exposure to high-risk
// brands.
type CelebrityEndorsement struct {
	CelebrityName string  `json:"celebrity_name"`
	BrandCount    int     `json:"brand_count"`
	AvgRiskIndex  float64 `json:"avg_risk_index"`
}

// AnalysisResults is the consolidated result document. Field order matches
// the metric key order the dashboard expects; every field is present in a
// successfully persisted document.
type AnalysisResults struct {
	CentralContracts      RevenueAnalysis        `json:"central_contracts"`
	HealthRisk            []HealthRiskRow        `json:"health_risk"`
	CAGR                  map[string]GrowthRate  `json:"cagr"`
	PopulationImpact      PopulationImpact       `json:"population_impact"`
	CelebrityEndorsements []CelebrityEndorsement `json:"celebrity_endorsements"`
	AEI                   float64                `json:"aei"`
}

// Metric returns the value for a single metric key.
func (r *AnalysisResults) Metric(key string) (any, bool) {
	switch key {
	case MetricCentralContracts:
		return r.CentralContracts, true
	case MetricHealthRisk:
		return r.HealthRisk, true
	case MetricCAGR:
		return r.CAGR, true
	case MetricPopulationImpact:
		return r.PopulationImpact, true
	case MetricCelebrityEndorsements:
		return r.CelebrityEndorsements, true
	case MetricAEI:
		return r.AEI, true
	}
	return nil, false
}

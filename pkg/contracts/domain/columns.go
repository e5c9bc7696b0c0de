package domain

// Canonical column names shared by both pipeline stages. The preparation
// stage renames source-specific spellings to these; the metrics stage only
// ever reads the canonical names.
const (
	ColumnBrandName        = "brand_name"
	ColumnProductType      = "product_type"
	ColumnCelebrityName    = "celebrity_name"
	ColumnRiskDescription  = "social_risk_description"
	ColumnAdFrequency      = "ad_frequency"
	ColumnCurrentRevenue   = "current_revenue"
	ColumnProjectedRevenue = "projected_revenue_2030"
	ColumnComplianceScore  = "compliance_score"
	ColumnHealthRiskIndex  = "health_risk_index"

	ColumnSource       = "source"
	ColumnRevenue      = "revenue"
	ColumnTotalViewers = "total_viewers"
)

// MultipleCelebritiesMarker is the placeholder some source rows carry instead
// of a real endorser list. It names nobody and is excluded from endorsement
// counts.
const MultipleCelebritiesMarker = "multiple"

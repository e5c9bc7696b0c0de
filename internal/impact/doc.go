// Package impact implements the metrics computation stage of the pipeline.
// It loads the normalized tables the preparation stage wrote, derives the
// six sponsorship impact metrics, and persists the consolidated result
// document plus one CSV per tabular metric.
//
// # Metrics
//
//   - central_contracts: revenue totals, per-source sums, percentage shares
//   - health_risk: the ten highest-risk advertisers, stable on ties
//   - cagr: projected revenue growth for the five highest-risk brands
//   - population_impact: estimated viewers exposed to high-risk advertising
//   - celebrity_endorsements: celebrities ranked by high-risk brand count
//   - aei: single weighted ethics scalar for the whole advertiser pool
//
// # Structure
//
// The table registry is an explicit input: callers load it once and hand it
// to the calculator, so there is no package-level analysis state and tests
// can feed tables directly.
//
//	registry, err := impact.LoadTables(paths.ProcessedDir)
//	calculator := impact.NewCalculator(logger, paths, impact.DefaultParams())
//	report, err := calculator.Calculate(ctx, registry)
//	err = calculator.Persist(ctx, report)
//
// Degradation policy is per metric and deliberate: CAGR reports the
// "not applicable" sentinel instead of dividing by zero, an empty high-risk
// subset reports "N/A" instead of a zero mean, and a missing
// compliance_score column zeroes the compliance term of the ethics index.
// Missing columns that a metric cannot degrade around surface as named
// computation errors, never as silent zeros.
package impact

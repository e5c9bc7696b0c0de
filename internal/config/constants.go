package config

import "time"

// Application constants - all hardcoded values for the IPL Pulse system
const (
	// Application Info
	AppName    = "IPL Pulse"
	AppVersion = "1.0.0"

	// Source workbooks (fixed, known-in-advance file names)
	SourceAdvertisersFile = "fact_ipl_advertisers.xlsx"
	SourceRevenueFile     = "fact_revenue_demography.xlsm"
	SourceDemographyFile  = "fact_summary_demography.xlsx"
	SourceContractsFile   = "fact_ipl_central_contracts.xlsx"

	// Raw table keys, one per source workbook
	TableAdvertisers = "advertisers"
	TableRevenue     = "revenue"
	TableDemography  = "demography"
	TableContracts   = "contracts"

	// Normalized table names, one CSV per table in the processed directory
	TableAdvertisersClean    = "advertisers_clean"
	TableAdvertisersWithRisk = "advertisers_with_risk"
	TableRevenueProcessed    = "revenue_processed"
	TableContractsProcessed  = "contracts_processed"

	// Result files
	AnalysisResultsFile = "analysis_results.json"
	SummaryReportFile   = "summary.txt"

	// Default directories (relative to the executable)
	DefaultDatasetDir   = "Dataset"
	DefaultDataDir      = "data"
	DefaultProcessedDir = "data/processed"
	DefaultResultsDir   = "results"
	DefaultLogsDir      = "logs"

	// Analysis defaults
	DefaultCAGRYears = 5

	// Rate Limiting
	DefaultRateLimit = 100 // requests per minute
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// Pipeline Timeouts
	DefaultOperationTimeout = 30 * time.Minute
	PrepareStageTimeout     = 10 * time.Minute
	AnalyzeStageTimeout     = 10 * time.Minute

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// SourceWorkbooks maps each raw table key to its workbook file name. Load
// order is fixed so failures are reported deterministically.
func SourceWorkbooks() []struct{ Table, File string } {
	return []struct{ Table, File string }{
		{Table: TableAdvertisers, File: SourceAdvertisersFile},
		{Table: TableRevenue, File: SourceRevenueFile},
		{Table: TableDemography, File: SourceDemographyFile},
		{Table: TableContracts, File: SourceContractsFile},
	}
}

// RequiredProcessedTables lists the normalized tables metrics computation
// reads. Data preparation writes more than these; only these block Stage 2.
func RequiredProcessedTables() []string {
	return []string{
		TableAdvertisersWithRisk,
		TableContractsProcessed,
		TableDemography,
	}
}

// Package config provides centralized configuration management for the IPL
// Pulse pipeline. It handles loading configuration from multiple sources,
// validation, and provides a type-safe API for accessing configuration values
// throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. config.yaml (working directory or configs/)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern IPL_* for namespacing:
//
//	IPL_SERVER_PORT=8080
//	IPL_LOGGING_LEVEL=info
//	IPL_PATHS_DATASET_DIR=/srv/ipl/Dataset
//	IPL_ANALYSIS_CAGR_YEARS=5
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which anchors every directory the pipeline touches at the executable
// location:
//
//	paths, err := cfg.ResolvePaths()
//	workbook := paths.SourceWorkbookPath(config.SourceAdvertisersFile)
//	processed := paths.ProcessedCSVPath(config.TableAdvertisersWithRisk)
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

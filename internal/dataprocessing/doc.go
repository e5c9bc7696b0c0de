// Package dataprocessing implements the data preparation stage of the
// pipeline: it loads the four raw sponsorship workbooks, normalizes the
// advertiser table to canonical column names, derives the health risk index
// from the qualitative risk descriptor, and persists every normalized table
// as a CSV in the processed directory.
//
// # Data Flow
//
//	Dataset/*.xlsx|*.xlsm → Load → Clean → ComputeRisk → Persist → data/processed/*.csv
//
// The stage is all-or-nothing on input: a missing or unparsable workbook
// aborts the run before anything is written, so the processed directory
// never holds a half-loaded snapshot. Reruns overwrite in place.
//
// # Usage
//
//	preparer := dataprocessing.NewPreparer(logger, paths)
//	result, err := preparer.Run(ctx)
//	if err != nil {
//	    // errors carry the AppError taxonomy (data_load, storage, ...)
//	}
//	fmt.Println(result.RowCounts[config.TableAdvertisersWithRisk])
package dataprocessing

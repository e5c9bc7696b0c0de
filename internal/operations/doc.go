// Package operations orchestrates pipeline runs.
//
// A run executes the registered stages strictly in order: data preparation
// first, metrics computation second. Stages hand data to each other only
// through the processed-table files on disk, so the Manager never moves
// tables between them; it owns run identity, per-stage status, timeouts and
// instrumentation.
//
// A stage failure ends the run: the failed stage keeps its error, every
// later stage is marked skipped, and the run reports failed. There are no
// retries. Status changes flow through the StatusBroadcaster, which keeps a
// snapshot per run and pushes each change to the injected hub (the
// WebSocket hub in the dashboard, a logging sink in the batch binaries).
//
// Typical usage:
//
//	manager := operations.NewManager(hub, metrics, logger,
//		operations.NewPreparationStage(preparer, metrics, logger),
//		operations.NewMetricsStage(calculator, metrics, logger),
//	)
//	resp, err := manager.Execute(ctx, operations.RunRequest{})
//
// The dashboard starts runs asynchronously with Manager.Start, which
// returns the run ID immediately and reports ErrRunActive while another
// run holds the slot.
package operations

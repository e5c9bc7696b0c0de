// Package app provides application initialization and lifecycle management
// for the sponsorship analysis server. It wires configuration, logging,
// OpenTelemetry, the two-stage pipeline and the HTTP surface together, and
// handles graceful shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and files
//	2. Initialize logging and observability
//	3. Build the pipeline stages and the run manager
//	4. Initialize services with their dependencies
//	5. Set up HTTP handlers and middleware
//	6. Configure the HTTP server
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication(frontendFS)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The package handles SIGINT and SIGTERM signals to ensure:
//
//	- Active requests are completed
//	- The results watcher stops before its callbacks are torn down
//	- WebSocket connections are closed cleanly
//	- Final metrics are flushed
//
// All initialization errors are returned to the caller. The app does not
// call os.Exit() directly, allowing main to control the exit process.
package app

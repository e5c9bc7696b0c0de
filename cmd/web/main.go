package main

import (
	"embed"
	"io/fs"
	"log/slog"
	"os"

	"iplcli/internal/app"
	"iplcli/internal/infrastructure"
)

// Embedded dashboard files.
//
//go:embed all:web
var webFiles embed.FS

func main() {
	var frontendFS fs.FS
	if sub, err := fs.Sub(webFiles, "web"); err == nil {
		frontendFS = sub
	} else {
		slog.Warn("Dashboard embedding failed, serving API only", slog.String("error", err.Error()))
	}

	application, err := app.NewApplication(frontendFS)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

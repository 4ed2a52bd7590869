// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command harborview runs the regional real-estate advisor.
//
// Usage:
//
//	harborview serve                       # start the API server on :8080
//	harborview serve --port 9090 --debug
//	harborview ask "how is the market in katy"
//	harborview chat                        # interactive session
//
// With a generative backend:
//
//	LLM_API_KEY=... LLM_MODEL=gpt-4o-mini harborview serve
//
// With a SQLite domain database instead of the bundled demo data:
//
//	harborview serve --db ./harborview.db
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Flag values shared across subcommands.
var (
	configPath string
	serverURL  string
)

func main() {
	root := &cobra.Command{
		Use:   "harborview",
		Short: "Conversational regional real-estate advisor",
		Long: "Harborview answers real-estate questions for a metro region: market\n" +
			"pricing, rental yields, construction costs, and multi-factor investment\n" +
			"scores, with per-session conversational memory.",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (embedded defaults when empty)")
	root.PersistentFlags().StringVar(&serverURL, "server", serverBaseURL(), "Advisor server base URL (client commands)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newAskCommand())
	root.AddCommand(newChatCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serverBaseURL resolves the default server URL for client commands.
func serverBaseURL() string {
	if url := os.Getenv("HARBORVIEW_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// setupLogger installs the process-wide slog handler.
func setupLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

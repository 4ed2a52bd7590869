// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/AleutianAI/Harborview/services/advisor"
	"github.com/AleutianAI/Harborview/services/advisor/config"
	"github.com/AleutianAI/Harborview/services/advisor/market"
	"github.com/AleutianAI/Harborview/services/advisor/session"
	badgerstore "github.com/AleutianAI/Harborview/services/advisor/storage/badger"
	"github.com/AleutianAI/Harborview/services/llm"
)

func newServeCommand() *cobra.Command {
	var (
		port       int
		debug      bool
		dbPath     string
		sessionDir string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the advisor API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(port, debug, dbPath, sessionDir)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging and Gin debug mode")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite domain database path (bundled demo data when empty)")
	cmd.Flags().StringVar(&sessionDir, "session-dir", "", "Badger directory for durable sessions (in-memory when empty)")
	return cmd
}

func runServe(port int, debug bool, dbPath, sessionDir string) error {
	logger := setupLogger(debug)
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg := config.Load(configPath, logger)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Domain data: SQLite when a database is given, bundled demo data
	// otherwise.
	var source market.Source
	if dbPath != "" {
		ds, err := market.NewDataStore(dbPath, logger)
		if err != nil {
			return fmt.Errorf("opening domain database: %w", err)
		}
		defer ds.Close()
		if err := ds.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("preparing domain database: %w", err)
		}
		source = ds
		logger.Info("domain data from SQLite", slog.String("path", dbPath))
	} else {
		source = market.DemoSource()
		logger.Info("domain data from bundled demo dataset")
	}

	// Session memory: Badger when a directory is given, in-process
	// otherwise. A Badger open failure degrades to in-memory with a
	// warning; session durability is never worth refusing to start.
	idleTTL := time.Duration(cfg.Session.IdleTTLMinutes) * time.Minute
	var store session.Store
	if sessionDir != "" {
		db, err := badgerstore.Open(sessionDir, logger)
		if err != nil {
			logger.Warn("session Badger store unavailable, using in-memory sessions",
				slog.String("dir", sessionDir),
				slog.String("error", err.Error()),
			)
		} else {
			defer db.Close()
			store = session.NewBadgerStore(db, idleTTL, logger)
			logger.Info("durable sessions enabled", slog.String("dir", sessionDir))
		}
	}
	if store == nil {
		mem := session.NewMemoryStore(idleTTL, cfg.Session.MaxTurns, logger)
		defer mem.Close()
		store = mem
	}

	// Generative backend: enabled only when LLM_API_KEY is set.
	var gen llm.Client
	if os.Getenv("LLM_API_KEY") != "" {
		client, err := llm.NewOpenAIClient(cfg.Generation.RequestsPerSecond)
		if err != nil {
			logger.Warn("generative backend misconfigured, stage disabled",
				slog.String("error", err.Error()))
		} else {
			gen = client
			logger.Info("generative backend enabled", slog.String("backend", client.Name()))
		}
	}

	svc, err := advisor.NewService(cfg, source, store, gen, logger)
	if err != nil {
		return fmt.Errorf("building advisor service: %w", err)
	}
	handlers := advisor.NewHandlers(svc)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("harborview-advisor"))
	if debug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	advisor.RegisterRoutes(v1, handlers)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("harborview advisor listening", slog.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DebugServer exposes health, status, and metrics over HTTP.
//
// Description:
//
//	Optional sidecar for the stdio LSP server. Since the protocol itself
//	rides on stdin/stdout, this is the only way to inspect a running
//	instance: open documents, in-flight validations, and Prometheus
//	metrics. Off by default; enabled with --debug-addr or debugAddr in the
//	config file.
type DebugServer struct {
	srv        *Server
	httpServer *http.Server
}

// NewDebugServer builds the debug endpoint around a running server.
func NewDebugServer(addr string, srv *Server) *DebugServer {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	d := &DebugServer{srv: srv}

	router.GET("/healthz", d.health)
	router.GET("/status", d.status)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	d.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return d
}

// Start serves until the context is cancelled or the listener fails.
func (d *DebugServer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = d.httpServer.Shutdown(shutdownCtx)
	}()

	slog.Info("Debug endpoint listening", "addr", d.httpServer.Addr)
	if err := d.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Warn("Debug endpoint stopped", "error", err)
	}
}

func (d *DebugServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "server": Name, "version": Version})
}

func (d *DebugServer) status(c *gin.Context) {
	docs := d.srv.Documents().All()
	open := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		open = append(open, gin.H{
			"uri":     doc.URI,
			"version": doc.Version,
			"bytes":   len(doc.Content),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"openDocuments": open,
		"inFlight":      d.srv.Validator().InFlight(),
	})
}

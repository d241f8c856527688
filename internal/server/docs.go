// Package server provides the HTTP API for servicemap.
//
// The API exposes federated search, name similarity, health probes, a
// Prometheus endpoint and a live feed of search activity over WebSocket and
// Server-Sent Events. The layering is CLI → Server → Router → Handlers:
//
//	cfg := server.DefaultConfig()
//	cfg.Port = 8080
//
//	srv, err := server.New(sm, cfg, server.WithLogger(&logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	srv.Start() // background services
//	http.ListenAndServe(cfg.Addr(), srv.Handler())
package server

// @title servicemap API
// @version 1.0
// @description Federated search over a company catalog and an individual-worker catalog.
// @description
// @description Features:
// @description - Duplicate-aware ranking across both catalogs
// @description - Result filters and response caching
// @description - Search activity via WebSocket and Server-Sent Events
//
// @contact.name servicemap Project
// @contact.url https://github.com/agentstation/servicemap
//
// @license.name MIT
//
// @host localhost:8080
// @BasePath /api/v1

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

	"github.com/gorilla/mux"

	"github.com/codecanvas/codecanvas/internal/config"
	mw "github.com/codecanvas/codecanvas/internal/middleware"
	"github.com/codecanvas/codecanvas/internal/project"
	"github.com/codecanvas/codecanvas/internal/session"
	"github.com/codecanvas/codecanvas/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	db, err := store.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("open database", "error", err, "path", cfg.DatabasePath)
		os.Exit(1)
	}
	defer db.Close()

	maintenance, err := store.ScheduleMaintenance(db, cfg.MaintenanceSchedule, logger)
	if err != nil {
		slog.Error("schedule maintenance", "error", err)
		os.Exit(1)
	}
	if maintenance != nil {
		maintenance.Start()
	}

	hub := session.NewHub(db, session.Options{
		Engine:       cfg.EngineOptions(logger),
		SaveDelay:    cfg.SaveDelay,
		TickInterval: cfg.TickInterval,
	}, logger)

	projectService := project.NewService(db, hub)
	projectHandler := project.NewHandler(projectService)
	sessionHandler := session.NewHandler(hub, cfg.Origins())

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","sessions":%d}`, hub.Count())
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	projectHandler.RegisterRoutes(api)

	sessionHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop sessions first so every open canvas is saved.
		slog.Info("saving open canvases...")
		hub.Stop()
		if maintenance != nil {
			<-maintenance.Stop().Done()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "database", cfg.DatabasePath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}

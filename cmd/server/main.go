package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doc-analyzer/internal/config"
	"doc-analyzer/internal/handler"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Wiring
	container, err := config.NewContainer(ctx, config.NewConfig())
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer container.Close()

	// Handlers
	documentHandler := handler.NewDocumentHandler(
		container.DocumentService,
		container.Config.GetMaxFileSize(),
		container.Logger,
	)
	requestMiddleware := handler.NewRequestMiddleware(container.Logger)

	// Router
	router := handler.NewRouter(
		documentHandler,
		container.MetricsHandler(),
		requestMiddleware.Middleware,
	)

	server := &http.Server{
		Addr:              ":" + container.Config.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-errCh:
		container.Logger.Error("Server failed to start", err)
		container.Close()
		os.Exit(1)
	}

	container.Logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Graceful shutdown failed", err)
		_ = server.Close()
	}

	container.Logger.Info("Server exited")
}

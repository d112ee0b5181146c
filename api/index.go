package handler

import (
	"context"
	"log"
	"net/http"
	"sync"

	"photo-album/internal/config"
	"photo-album/internal/server"
)

var (
	handler     http.Handler
	mu          sync.Mutex
	initialized bool
)

// initHandler initializes the HTTP handler once and reuses it across invocations.
// A failed initialization is not cached, so the next request retries it.
//
// Note: backend clients are not explicitly closed as the serverless
// runtime handles resource cleanup on function termination.
func initHandler() error {
	mu.Lock()
	defer mu.Unlock()

	if initialized {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return err
	}

	svcs, err := server.InitServices(context.Background(), cfg)
	if err != nil {
		log.Printf("Failed to initialize services: %v", err)
		return err
	}

	h, err := server.CreateHandler(svcs, cfg)
	if err != nil {
		svcs.Close()
		return err
	}

	// Only set handler and mark as initialized after full successful initialization
	handler = h
	initialized = true

	log.Println("Handler initialized successfully")
	return nil
}

// Handler is the serverless function entry point
func Handler(w http.ResponseWriter, r *http.Request) {
	// Attempt initialization (will succeed immediately if already initialized)
	if err := initHandler(); err != nil {
		log.Printf("Handler initialization failed: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	handler.ServeHTTP(w, r)
}

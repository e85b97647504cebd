// Package main implements the entry point for the taskboard server, which
// manages scheduled tasks and the quiz content catalog behind a small HTTP
// API.
package main

import (
	"context"
	"log"
)

// main initializes configuration, logging, the database connection, and the
// service graph, then runs the HTTP server until a shutdown signal arrives.
func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	router := app.setupRouter()

	if err := app.startHTTPServer(context.Background(), router); err != nil {
		app.logger.Error("Server exited with error", "error", err)
		app.cleanup()
		log.Fatalf("Server error: %v", err)
	}
}

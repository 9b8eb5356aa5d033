package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"github.com/qvintus/oauth2-session-agent/internal/pending"
	"github.com/qvintus/oauth2-session-agent/internal/provider"
	"github.com/qvintus/oauth2-session-agent/internal/session"
	"github.com/qvintus/oauth2-session-agent/internal/tokenstore"
)

// Version is set by the build process
var Version = "dev"

func main() {
	// Load configuration from environment
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	// Pick storage backends: local files by default, Redis when a URL
	// is configured.
	var (
		tokens      tokenstore.Store
		bridge      pending.Store
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Error parsing Redis URL: %v", err)
		}
		redisClient = redis.NewClient(redisOpts)

		// Verify Redis connection
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Error connecting to Redis: %v", err)
		}

		tokens = tokenstore.NewRedisStore(redisClient)
		bridge = pending.NewRedisStore(redisClient)
	} else {
		tokens = tokenstore.NewFileStore(cfg.TokenStorePath)
		bridge = pending.NewFileStore(cfg.PendingPath)
	}

	// Initialize the session manager
	sessions := session.NewManager(
		cfg.staticCredentials(),
		tokens,
		bridge,
		provider.NewClient(),
		session.WithTokenStorePath(cfg.TokenStorePath),
	)

	// Create and configure server
	srv, err := newServer(cfg, sessions, tokens, bridge)
	if err != nil {
		log.Fatalf("Error creating server: %v", err)
	}

	// Create HTTP server with proper timeout configurations
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start server
	go func() {
		log.Printf("Server listening on port %d", cfg.Port)
		serverErrors <- httpServer.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-serverErrors:
		log.Fatalf("Error starting server: %v", err)

	case <-shutdown:
		log.Println("Starting shutdown")

		// Create context with timeout for shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Shutdown server
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down server: %v", err)
			if err := httpServer.Close(); err != nil {
				log.Printf("Error closing server: %v", err)
			}
		}

		// Close Redis connection if one was opened
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Printf("Error closing Redis connection: %v", err)
			}
		}
	}
}

// Command main is the entry point for the Anti-Social Net like service.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"antisocial/internal/bootstrap"
	"antisocial/internal/config"
	"antisocial/internal/observability"
	"antisocial/internal/seed"
	"antisocial/internal/server"
)

// @title Anti-Social Net Likes API
// @version 1.0
// @description Like toggling and like aggregation for Anti-Social Net posts
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@antisocial.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3001
// @BasePath /api
// @schemes http https

func main() {
	seedDemo := flag.Bool("seed-demo", false, "Seed demo likes on startup (development only)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "antisocial-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	var opts bootstrap.Options
	if *seedDemo {
		opts.DemoLikes = &seed.Options{NumUsers: 20, NumPosts: 50, Density: 0.2, Seed: 42, Hot: true}
	}

	// Create server with dependency injection
	srv, err := server.NewServer(cfg, opts)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"incidentcore/internal/api"
	"incidentcore/internal/cache"
	"incidentcore/internal/config"
	"incidentcore/internal/core"
	"incidentcore/internal/database"
	"incidentcore/internal/events"
	"incidentcore/internal/failures"
	"incidentcore/internal/incidents"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON config file (defaults to environment variables)")
	flag.Parse()

	// 1. Load configuration
	manager := config.NewManager()
	var err error
	if *configPath != "" {
		err = manager.LoadFromFile(*configPath)
	} else {
		err = manager.LoadFromEnv()
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := manager.Config()

	// 2. Open the record store and ensure the schema
	db, err := database.NewMySQLDatabase(
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database,
		cfg.Database.Username, cfg.Database.Password,
		cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime,
		cfg.Database.ConnectionTimeout,
	)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := incidents.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	log.Println("✓ Database ready")

	// 3. Failure sink
	var sink core.FailureSink
	if cfg.Failures.Dir != "" {
		fileSink, err := failures.NewFileSink(cfg.Failures.Dir)
		if err != nil {
			log.Fatalf("Failed to create failure sink: %v", err)
		}
		sink = fileSink
		log.Printf("✓ Failure reports persisted to %s", cfg.Failures.Dir)
	} else {
		sink = failures.LogSink{}
	}

	// 4. Change-event publisher
	publisher, err := events.New(&cfg.Events)
	if err != nil {
		log.Fatalf("Failed to create event publisher: %v", err)
	}
	defer publisher.Close()
	log.Printf("✓ Change events via %s", cfg.Events.Type)

	// 5. Optional read-through cache
	opts := []incidents.Option{
		incidents.WithFailureSink(sink),
		incidents.WithPublisher(publisher),
		incidents.WithMaxAttempts(cfg.Repository.MaxAttempts),
		incidents.WithIDLength(cfg.Repository.IDLength),
	}
	if cfg.Cache.Enabled {
		kv, err := cache.Create(&cfg.Cache)
		if err != nil {
			log.Fatalf("Failed to create cache: %v", err)
		}
		defer kv.Close()
		opts = append(opts, incidents.WithCache(kv, cfg.Cache.TTL))
		log.Printf("✓ Read-through cache via %s (TTL %s)", cfg.Cache.Type, cfg.Cache.TTL)
	}

	// 6. Domain repository and HTTP server
	repo, err := incidents.NewRepository(db, opts...)
	if err != nil {
		log.Fatalf("Failed to create incident repository: %v", err)
	}

	server := api.NewServer(repo, &cfg.Server)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	log.Println("")
	log.Println("API Endpoints:")
	log.Println("  POST   /api/v1/incidents/create       - Create an incident")
	log.Println("  GET    /api/v1/incidents/get/{id}     - Get incident by id")
	log.Println("  GET    /api/v1/incidents/get          - List incidents (paginated, filtered)")
	log.Println("  PUT    /api/v1/incidents/update/{id}  - Update an incident")
	log.Println("  DELETE /api/v1/incidents/delete/{id}  - Delete an incident")
	log.Println("  GET    /health                        - Health check")
	log.Println("")
	log.Printf("Starting HTTP server on %s", addr)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	<-sigChan
	log.Println("Received shutdown signal...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown failed: %v", err)
	}
	log.Println("✓ Server stopped")
}

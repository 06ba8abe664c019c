package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-builder/internal/devserver"
	"github.com/celerix-dev/celerix-builder/internal/seed"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

const (
	demoEmail    = "dev@example.com"
	demoPassword = "password123"
)

func main() {
	fmt.Println("Starting builder development backend...")

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	port := os.Getenv("BUILDER_DEV_PORT")
	if port == "" {
		port = "8000"
	}
	seedDemo := os.Getenv("BUILDER_DEV_SEED") == "true"

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.DebugMode)
	}

	// 1. In-memory store with the protected catalogue
	store := devserver.NewStore()
	store.SeedSystemCatalog()
	if v := os.Getenv("BUILDER_DEV_TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			log.Fatal("invalid BUILDER_DEV_TOKEN_TTL", zap.String("value", v), zap.Error(err))
		}
		store.SetTokenTTL(ttl)
	}

	// 2. HTTP API
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           devserver.NewRouter(store, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 3. Optional demo data, provisioned through the API like any client
	if seedDemo {
		if err := provision(store, "http://localhost:"+port, log); err != nil {
			log.Error("demo seed failed", zap.Error(err))
		}
	}

	// 4. Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\nShutdown signal received.")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	fmt.Println("Stopped.")
}

func provision(store *devserver.Store, baseURL string, log *zap.Logger) error {
	if _, err := store.Register(schema.Registration{Email: demoEmail, Password: demoPassword, FullName: "Demo User"}); err != nil {
		return fmt.Errorf("register demo user: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := sdk.New(baseURL, sdk.WithLogger(log))
	var err error
	for attempt := 0; attempt < 20; attempt++ {
		if _, err = client.Auth().Login(ctx, demoEmail, demoPassword); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if err != nil {
		return fmt.Errorf("login demo user: %w", err)
	}

	res, err := seed.New(client, log).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Demo data ready: %d fields, object %q, %d records. Sign in as %s / %s\n",
		len(res.Fields), res.Object.Name, len(res.Records), demoEmail, demoPassword)
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mhollis/cadence/internal/logging"
	"github.com/mhollis/cadence/internal/push"
	"github.com/mhollis/cadence/internal/server"
)

func main() {
	genKeys := flag.Bool("genkeys", false, "generate a VAPID key pair and exit")
	flag.Parse()

	if *genKeys {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("failed to generate VAPID keys: %v", err)
		}
		fmt.Printf("CADENCE_VAPID_PUBLIC_KEY=%s\nCADENCE_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	port := os.Getenv("CADENCE_PORT")
	if port == "" {
		port = "8080"
	}

	dataDir := os.Getenv("CADENCE_DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}

	pushCfg := push.Config{
		VAPIDPublicKey:  os.Getenv("CADENCE_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("CADENCE_VAPID_PRIVATE_KEY"),
		Subscriber:      os.Getenv("CADENCE_VAPID_SUBSCRIBER"),
	}
	if pushCfg.VAPIDPublicKey == "" || pushCfg.VAPIDPrivateKey == "" {
		log.Fatal("CADENCE_VAPID_PUBLIC_KEY and CADENCE_VAPID_PRIVATE_KEY must be set (run cadence -genkeys)")
	}
	if pushCfg.Subscriber == "" {
		pushCfg.Subscriber = "mailto:noreply@cadence.local"
	}

	logger := logging.Setup(os.Getenv("CADENCE_LOG_LEVEL"))

	srv := server.New(dataDir, pushCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.Scheduler().Start(ctx)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("cadence listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	srv.Scheduler().Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

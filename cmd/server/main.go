package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/finpal/internal/auth"
	"github.com/mmynk/finpal/internal/engine"
	"github.com/mmynk/finpal/internal/middleware"
	"github.com/mmynk/finpal/internal/notify"
	"github.com/mmynk/finpal/internal/service"
	"github.com/mmynk/finpal/internal/settlement"
	"github.com/mmynk/finpal/internal/storage/sqlite"
	"github.com/mmynk/finpal/internal/wallet"
	"github.com/mmynk/finpal/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/finpal.db")
	port := getEnv("PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	tokenHours, err := strconv.Atoi(getEnv("TOKEN_DURATION_HOURS", "24"))
	if err != nil || tokenHours < 1 {
		slog.Error("Invalid TOKEN_DURATION_HOURS", "value", getEnv("TOKEN_DURATION_HOURS", "24"))
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	worker := notify.NewWorker(notify.NewStoreSink(store), 256)
	worker.Start()
	defer worker.Shutdown()

	jwtManager := auth.NewJWTManager(jwtSecret, time.Duration(tokenHours)*time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)
	walletSvc := wallet.NewService(store)
	eng := engine.New(store)
	coordinator := settlement.NewCoordinator(store, walletSvc, worker)

	mux := http.NewServeMux()
	server := service.NewServer(store, authenticator, jwtManager, eng, walletSvc, coordinator)
	server.Routes(mux)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.Logging(middleware.CORS(mux))
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           h2cHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"product-store-service/internal/api"
	"product-store-service/internal/metrics"
	"product-store-service/internal/store"
)

var migrateOnStart bool

// product-store serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(newLogger())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "Create missing tables before serving")
}

func serve(logger *log.Logger) error {
	logger.Println("INFO: Starting service...")

	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}

	// --- Database Connection ---
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStartup()

	conn, err := store.Open(startupCtx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initializing database connection: %w", err)
	}
	logger.Printf("INFO: Database connection established (%s).", conn.Dialect().Name)

	if migrateOnStart {
		if err := store.Migrate(startupCtx, conn.DB(), cfg.Database.Driver); err != nil {
			conn.Close()
			return err
		}
		logger.Println("INFO: Schema migrated.")
	}

	productStore := store.NewProductRepository(conn)
	categoryStore := store.NewCategoryRepository(conn)

	// --- Initialize API Handlers ---
	httpAPIHandler := api.NewHTTPHandler(categoryStore, productStore)
	grpcAPIHandler := api.NewGRPCHandler(productStore)

	// --- Listeners ---
	httpListener, grpcListener, err := listen(cfg.HttpServer.Port, cfg.GrpcServer.Port)
	if err != nil {
		conn.Close()
		return err
	}

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, logger)
	registerHealthCheck(httpRouter, logger, conn)
	httpRouter.Handle("/metrics", metrics.Handler())
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		logger.Printf("INFO: HTTP server listening on port %s", cfg.HttpServer.Port)
		if err := httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("FATAL: HTTP server Serve error: %v", err)
		}
		logger.Println("INFO: HTTP server has stopped.")
	}()

	// --- Setup & Start gRPC Server ---
	grpcServer := setupGRPCServer(logger, grpcAPIHandler)

	go func() {
		logger.Printf("INFO: gRPC server listening on port %s", cfg.GrpcServer.Port)
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Fatalf("FATAL: gRPC server Serve error: %v", err)
		}
		logger.Println("INFO: gRPC server has stopped.")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(logger, httpServer, grpcServer, conn, shutdownComplete)

	<-shutdownComplete
	logger.Println("INFO: Service shutdown sequence finished.")
	return nil
}

func setupBaseMiddleware(router *chi.Mux, logger *log.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)
	router.Use(middleware.Timeout(60 * time.Second))
	logger.Println("INFO: Base HTTP middleware registered.")
}

// listen binds both ports before any server starts, so a busy port fails startup
// without leaving the other one bound.
func listen(httpPort, grpcPort string) (net.Listener, net.Listener, error) {
	httpListener, err := net.Listen("tcp", ":"+httpPort)
	if err != nil {
		return nil, nil, fmt.Errorf("listening for HTTP on port %s: %w", httpPort, err)
	}
	grpcListener, err := net.Listen("tcp", ":"+grpcPort)
	if err != nil {
		httpListener.Close()
		return nil, nil, fmt.Errorf("listening for gRPC on port %s: %w", grpcPort, err)
	}
	return httpListener, grpcListener, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

func registerHealthCheck(router *chi.Mux, logger *log.Logger, db pinger) {
	healthPath := "/api/v1/healthz"
	router.Get(healthPath, healthHandler(logger, db))
	logger.Printf("INFO: HTTP health check registered at %s", healthPath)
}

// healthHandler reports 503 with status "unhealthy" while the database cannot be reached.
func healthHandler(logger *log.Logger, db pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		code, dbStatus := http.StatusOK, "healthy"
		if err := db.Ping(ctx); err != nil {
			code, dbStatus = http.StatusServiceUnavailable, "unhealthy"
			logger.Printf("WARN: Health check DB ping failed: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      dbStatus,
			"serviceName": defaultAppName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"database":    dbStatus,
		})
	}
}

func setupGRPCServer(logger *log.Logger, grpcAPIHandler *api.GRPCHandler) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(api.UnaryServerInterceptor(logger)))

	api.RegisterProductServiceServer(s, grpcAPIHandler)
	logger.Printf("INFO: %s gRPC service registered.", api.ProductServiceName)

	grpc_health_v1.RegisterHealthServer(s, health.NewServer())
	logger.Println("INFO: gRPC health check service registered.")

	reflection.Register(s)
	logger.Println("INFO: gRPC reflection service registered.")

	return s
}

func waitForShutdown(
	logger *log.Logger,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	conn *store.SQLConn,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Printf("INFO: Received signal: %s. Starting graceful shutdown...", receivedSignal)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	logger.Println("INFO: Attempting to gracefully shut down gRPC server...")
	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	logger.Println("INFO: Attempting to gracefully shut down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("WARN: HTTP server graceful shutdown failed: %v", err)
	} else {
		logger.Println("INFO: HTTP server gracefully shut down.")
	}

	select {
	case <-stoppedGrpc:
		logger.Println("INFO: gRPC server gracefully shut down.")
	case <-shutdownCtx.Done():
		logger.Printf("WARN: gRPC server graceful shutdown timed out: %v", shutdownCtx.Err())
		grpcServer.Stop()
		logger.Println("INFO: gRPC server forced stop.")
	}

	if err := conn.Close(); err != nil {
		logger.Printf("WARN: Error closing database connection: %v", err)
	}

	logger.Println("INFO: Graceful shutdown sequence completed.")
}

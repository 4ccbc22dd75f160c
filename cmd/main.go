package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"product-store-service/internal/config"
)

const (
	defaultAppName = "ProductStoreService" // App name for logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "product-store",
	Short:         "Product store service",
	Long:          "Serves the product catalog over HTTP and gRPC on top of a SQLite or PostgreSQL database.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func newLogger() *log.Logger {
	return log.New(os.Stdout, fmt.Sprintf("[%s] ", defaultAppName), log.LstdFlags|log.Lshortfile|log.Lmicroseconds)
}

// loadConfig reads .env when present, then the environment.
func loadConfig(logger *log.Logger) (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Println("INFO: No .env file found or failed to load, relying on system environment")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	logger.Printf("INFO: Configuration loaded for APP_ENV: %s, LogLevel: %s, DB_DRIVER: %s", cfg.AppEnv, cfg.LogLevel, cfg.Database.Driver)
	return cfg, nil
}

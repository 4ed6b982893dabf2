// cmd/main.go is the application entry point.
// It wires together all layers behind the serve, migrate and stats commands.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/spot-booking/internal/config"
	"github.com/Shivanand-hulikatti/spot-booking/internal/database"
	"github.com/Shivanand-hulikatti/spot-booking/internal/logging"
)

const serviceName = "spot-booking"

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "spot-booking",
	Short: "Parking spot booking core",
	Long: `spot-booking stores users, parking spots and bookings in PostgreSQL and
exposes the listing and booking workflow to a conversation frontend over HTTP.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to an optional YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, statsCmd)
}

// bootstrap loads config, builds the logger and connects to PostgreSQL.
func bootstrap(ctx context.Context) (*config.Config, *zap.Logger, *pgxpool.Pool, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logging.New(cfg.Log, serviceName)
	if err != nil {
		return nil, nil, nil, err
	}

	pool, err := database.NewPool(ctx, cfg.Database, log)
	if err != nil {
		_ = log.Sync()
		return nil, nil, nil, fmt.Errorf("database: %w", err)
	}
	log.Debug("connected to PostgreSQL", zap.String("dsn", cfg.Database.Redacted()))
	return cfg, log, pool, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/spot-booking/internal/auth"
	"github.com/Shivanand-hulikatti/spot-booking/internal/config"
	"github.com/Shivanand-hulikatti/spot-booking/internal/database"
	"github.com/Shivanand-hulikatti/spot-booking/internal/handler"
	"github.com/Shivanand-hulikatti/spot-booking/internal/jobs"
	"github.com/Shivanand-hulikatti/spot-booking/internal/metrics"
	"github.com/Shivanand-hulikatti/spot-booking/internal/notify"
	"github.com/Shivanand-hulikatti/spot-booking/internal/repository"
	"github.com/Shivanand-hulikatti/spot-booking/internal/service"
	"github.com/Shivanand-hulikatti/spot-booking/internal/session"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP RPC server",
	Long: `Run the HTTP RPC server. The schema is migrated on startup unless
--skip-migrate is given.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not create or update the schema on startup")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	cfg, log, pool, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	defer func() { _ = log.Sync() }()

	if !skipMigrate {
		if err := database.Migrate(ctx, pool, cfg.Admin.BootstrapID, cfg.Admin.BootstrapName); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("schema up to date")
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	spotRepo := repository.NewSpotRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	dispatcher, err := newDispatcher(cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := dispatcher.Close(); err != nil {
			log.Warn("closing notification dispatcher", zap.Error(err))
		}
	}()

	m := metrics.New()
	parkingSvc := service.NewParkingService(userRepo, spotRepo, bookingRepo, session.NewStore(), dispatcher, m, log)
	adminSvc := service.NewAdminService(userRepo, spotRepo, bookingRepo, statsRepo)

	gate, err := auth.NewGate(cfg.Admin, userRepo, log)
	if err != nil {
		return err
	}

	// ── 3. Background jobs ───────────────────────────────────────────────
	scheduler := jobs.NewScheduler(log)
	if err := scheduler.AddSessionSweep(cfg.Jobs.SweepSchedule, parkingSvc, cfg.Session.TTL); err != nil {
		return err
	}
	if err := scheduler.AddStatsDigest(cfg.Jobs.StatsSchedule, adminSvc); err != nil {
		return err
	}
	scheduler.Start()

	// ── 4. Build the router and start the server ──────────────────────────
	router := handler.NewRouter(handler.RouterConfig{
		Parking:   parkingSvc,
		Admin:     adminSvc,
		Gate:      gate,
		Metrics:   m,
		Log:       log,
		RateLimit: cfg.HTTP.RateLimit,
		RateBurst: cfg.HTTP.RateBurst,
		Ping:      pool.Ping,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Block until SIGINT/SIGTERM or a listener failure.
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// newDispatcher publishes to Kafka when brokers are configured and logs
// otherwise.
func newDispatcher(cfg config.KafkaConfig, log *zap.Logger) (notify.Dispatcher, error) {
	if len(cfg.BrokerList()) == 0 {
		log.Info("no kafka brokers configured, booking notifications go to the log")
		return notify.NewLogDispatcher(log), nil
	}
	d, err := notify.NewKafkaDispatcher(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("kafka dispatcher: %w", err)
	}
	log.Info("publishing booking notifications to kafka",
		zap.Strings("brokers", cfg.BrokerList()),
		zap.String("topic", cfg.Topic),
	)
	return d, nil
}

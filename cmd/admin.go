package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/spot-booking/internal/database"
	"github.com/Shivanand-hulikatti/spot-booking/internal/model"
	"github.com/Shivanand-hulikatti/spot-booking/internal/repository"
	"github.com/Shivanand-hulikatti/spot-booking/internal/service"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema and seed the bootstrap admin",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, pool, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()
		defer func() { _ = log.Sync() }()

		if err := database.Migrate(cmd.Context(), pool, cfg.Admin.BootstrapID, cfg.Admin.BootstrapName); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("schema up to date")
		return nil
	},
}

var withSpots bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the admin totals as JSON",
	Long:  "Print the admin totals as JSON. With --spots every listed spot is included.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, log, pool, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()
		defer func() { _ = log.Sync() }()

		admin := service.NewAdminService(
			repository.NewUserRepository(pool),
			repository.NewSpotRepository(pool),
			repository.NewBookingRepository(pool),
			repository.NewStatsRepository(pool),
		)
		st, err := admin.Stats(cmd.Context())
		if err != nil {
			return err
		}

		out := struct {
			Totals *model.Stats     `json:"totals"`
			Spots  []model.SpotView `json:"spots,omitempty"`
		}{Totals: st}
		if withSpots {
			if out.Spots, err = admin.AllSpots(cmd.Context()); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	statsCmd.Flags().BoolVar(&withSpots, "spots", false, "include every listed spot")
}

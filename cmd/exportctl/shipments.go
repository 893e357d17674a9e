package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"exportdocs/internal/app"
	shiphandler "exportdocs/internal/shipment/handler"
	"exportdocs/internal/shipment/models"
	id "exportdocs/pkg/domain"
)

// maxScanPage matches the largest page the shipment service returns.
const maxScanPage = 500

var (
	shipmentsOrg  string
	scanPageSize  int
	scanPagesRate float64
)

var scanPlaceholdersCmd = &cobra.Command{
	Use:   "scan-placeholders",
	Short: "List shipments still declaring a placeholder container",
	Long:  "Pages through an organization's unarchived shipments whose declared container is a placeholder such as TBD, pacing page reads to spare the database.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if scanPageSize <= 0 || scanPageSize > maxScanPage {
			return fmt.Errorf("--page-size must be between 1 and %d", maxScanPage)
		}
		if scanPagesRate <= 0 {
			return fmt.Errorf("--pages-per-second must be positive")
		}
		orgID, err := id.ParseOrganizationID(shipmentsOrg)
		if err != nil {
			return err
		}
		a, err := app.Build(ctx, cfg, log, prometheus.NewRegistry())
		if err != nil {
			return err
		}
		defer a.Close()

		limiter := rate.NewLimiter(rate.Limit(scanPagesRate), 1)
		var found []*models.Shipment
		for offset := 0; ; offset += scanPageSize {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			page, err := a.Shipments.ScanPlaceholders(ctx, orgID, offset, scanPageSize)
			if err != nil {
				return err
			}
			found = append(found, page...)
			if len(page) < scanPageSize {
				break
			}
		}
		log.Info("placeholder scan finished", "organization_id", orgID.String(), "found", len(found))
		return printJSON(cmd.OutOrStdout(), shiphandler.FromShipments(found))
	},
}

var recomputeAllCmd = &cobra.Command{
	Use:   "recompute-all",
	Short: "Re-evaluate the compliance status of every shipment",
	Long:  "Recomputes all shipment statuses of an organization, for instance after the compliance matrix file changed.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		orgID, err := id.ParseOrganizationID(shipmentsOrg)
		if err != nil {
			return err
		}
		a, err := app.Build(ctx, cfg, log, prometheus.NewRegistry())
		if err != nil {
			return err
		}
		defer a.Close()

		start := time.Now()
		changed, err := a.Shipments.RecomputeAll(ctx, orgID)
		if err != nil {
			return fmt.Errorf("recompute all: %w", err)
		}
		log.Info("bulk recompute finished",
			"organization_id", orgID.String(),
			"changed", changed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return printJSON(cmd.OutOrStdout(), &shiphandler.RecomputeAllResponse{Changed: changed})
	},
}

func init() {
	for _, c := range []*cobra.Command{scanPlaceholdersCmd, recomputeAllCmd} {
		c.Flags().StringVar(&shipmentsOrg, "org", "", "organization id (uuid)")
		_ = c.MarkFlagRequired("org")
		rootCmd.AddCommand(c)
	}
	scanPlaceholdersCmd.Flags().IntVar(&scanPageSize, "page-size", 100, "shipments per page")
	scanPlaceholdersCmd.Flags().Float64Var(&scanPagesRate, "pages-per-second", 5, "page read rate")
}

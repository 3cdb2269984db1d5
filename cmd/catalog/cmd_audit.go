package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"island_catalog/internal/app"
	"island_catalog/internal/domain"
	"island_catalog/internal/geo"
	"island_catalog/internal/storage/catalogfile"
)

func auditCmd() *cobra.Command {
	var (
		input      string
		output     string
		reportPath string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Validate record coordinates and region assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if output == "" {
				output = input
			}
			if reportPath == "" {
				reportPath = output + ".report.json"
			}

			records, err := catalogfile.Load(input)
			if err != nil {
				return err
			}

			// Optional: with a key, suspicious placeholder coordinates get
			// one re-lookup instead of surviving untouched.
			client, err := newPlacesClient(false)
			if err != nil {
				return err
			}

			classifier := geo.NewClassifier(geo.Regions)
			auditor := app.NewAuditor(classifier, client)

			report := &domain.Report{Mode: "audit", GeneratedAt: time.Now().UTC(), DryRun: dryRun}
			res := auditor.Audit(ctx, records)
			for _, e := range res.Removed {
				report.AddRemoved(e)
			}
			log.Info().
				Int("kept", len(res.Kept)).
				Int("removed", len(res.Removed)).
				Int("corrected", res.Corrected).
				Int("relocated", res.Relocated).
				Msg("audit finished")

			if err := writeOutputs(output, reportPath, res.Kept, report, dryRun); err != nil {
				return err
			}
			fmt.Print(report.Summary())
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "catalog file to audit")
	cmd.Flags().StringVar(&output, "output", "", "output catalog path (default: --input)")
	cmd.Flags().StringVar(&reportPath, "report", "", "report path (default: <output>.report.json)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and print the report, write nothing")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

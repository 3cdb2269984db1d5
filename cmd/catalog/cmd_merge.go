package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"island_catalog/internal/app"
	"island_catalog/internal/domain"
	"island_catalog/internal/geo"
	"island_catalog/internal/storage/catalogfile"
)

var errMissingAPIKey = errors.New("PLACES_API_KEY is not set")

func mergeCmd() *cobra.Command {
	var (
		input           string
		scraped         []string
		output          string
		reportPath      string
		dryRun          bool
		preserveCurated bool
		similarity      float64
		proximity       float64
		limit           int
	)

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Reconcile scraped candidates into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if output == "" {
				output = input
			}
			if reportPath == "" {
				reportPath = output + ".report.json"
			}
			if similarity < 0 || similarity > 1 {
				return fmt.Errorf("--similarity must be in [0,1], got %v", similarity)
			}

			catalog, err := catalogfile.Load(input)
			if err != nil {
				return err
			}
			candidates, err := app.LoadCandidates(scraped)
			if err != nil {
				return err
			}
			log.Info().Int("catalog", len(catalog)).Int("candidates", len(candidates)).Msg("merge starting")

			// Merge runs work without an API key; the auditor then keeps
			// in-bounds placeholder coordinates instead of re-looking them up.
			client, err := newPlacesClient(false)
			if err != nil {
				return err
			}

			classifier := geo.NewClassifier(geo.Regions)
			pipeline := app.NewPipeline(classifier, app.NewAuditor(classifier, client), app.PipelineConfig{
				Resolver: app.ResolverConfig{SimilarityThreshold: similarity, ProximityMeters: proximity},
				Merge:    app.MergeConfig{PreserveCurated: preserveCurated},
				Limit:    limit,
			})

			report := &domain.Report{Mode: "merge", GeneratedAt: time.Now().UTC(), DryRun: dryRun}
			final := pipeline.Reconcile(ctx, catalog, candidates, report)

			if err := writeOutputs(output, reportPath, final, report, dryRun); err != nil {
				return err
			}
			fmt.Print(report.Summary())
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "catalog file to reconcile into")
	cmd.Flags().StringSliceVar(&scraped, "scraped", nil, "scraped-candidate file (repeatable)")
	cmd.Flags().StringVar(&output, "output", "", "output catalog path (default: --input)")
	cmd.Flags().StringVar(&reportPath, "report", "", "report path (default: <output>.report.json)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and print the report, write nothing")
	cmd.Flags().BoolVar(&preserveCurated, "preserve-curated", true, "never overwrite populated fields of curated records")
	cmd.Flags().Float64Var(&similarity, "similarity", 0.85, "strong name-match threshold in [0,1]")
	cmd.Flags().Float64Var(&proximity, "proximity", 100, "strong location-match distance in meters")
	cmd.Flags().IntVar(&limit, "limit", 0, "cap candidates processed this run (0 = all)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("scraped")
	return cmd
}

// writeOutputs backs up the existing output catalog, writes the new one
// atomically, and writes the report. Dry runs write nothing at all.
func writeOutputs(output, reportPath string, records []domain.CatalogRecord, report *domain.Report, dryRun bool) error {
	if dryRun {
		return nil
	}
	backupPath, err := catalogfile.Backup(output)
	if err != nil {
		return err
	}
	if backupPath != "" {
		log.Info().Str("backup", backupPath).Msg("catalog backed up")
	}
	if err := catalogfile.Write(output, records); err != nil {
		return err
	}
	if err := catalogfile.WriteReport(reportPath, report); err != nil {
		return err
	}
	log.Info().Str("catalog", output).Str("report", reportPath).Int("records", len(records)).Msg("catalog written")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"island_catalog/internal/adapters/observability"
	"island_catalog/internal/adapters/opsserver"
	"island_catalog/internal/app"
	"island_catalog/internal/domain"
	"island_catalog/internal/storage/catalogfile"
)

func enrichCmd() *cobra.Command {
	var (
		input           string
		output          string
		reportPath      string
		checkpointPath  string
		limit           int
		batch           int
		workers         int
		dryRun          bool
		force           bool
		preserveCurated bool
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Backfill ratings, photos, and hours from the places service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if output == "" {
				output = input
			}
			if reportPath == "" {
				reportPath = output + ".report.json"
			}
			if checkpointPath == "" {
				checkpointPath = output + ".checkpoint.json"
			}
			if batch <= 0 {
				batch = cfg.BatchSize
			}
			if workers <= 0 {
				workers = cfg.Workers
			}
			// Bounded concurrency must not outrun the permitted request rate.
			if workers > cfg.PlacesRPS {
				workers = cfg.PlacesRPS
			}

			client, err := newPlacesClient(true)
			if err != nil {
				return err
			}

			records, err := catalogfile.Load(input)
			if err != nil {
				return err
			}

			state := domain.NewJobState()
			if !force {
				state, err = catalogfile.LoadJobState(checkpointPath)
				if err != nil {
					return err
				}
			}
			log.Info().
				Int("records", len(records)).
				Int("checkpointed", state.Count()).
				Int("workers", workers).
				Int("batch", batch).
				Msg("enrichment starting")

			svc := app.NewEnrichmentService(client, newCache(ctx), app.EnrichConfig{
				BatchSize:       batch,
				Workers:         workers,
				Limit:           limit,
				PreserveCurated: preserveCurated,
				CacheTTL:        cfg.CacheTTL,
				SearchRadius:    cfg.SearchRadius,
			})

			opsserver.Serve(cfg.OpsAddr, observability.InitRegistry(), &enrichProgress{svc: svc})

			var save app.CheckpointSaver
			if !dryRun {
				save = func(s *domain.JobState) error {
					return catalogfile.SaveJobState(checkpointPath, s)
				}
			}

			report := &domain.Report{Mode: "enrich", GeneratedAt: time.Now().UTC(), DryRun: dryRun}
			runErr := svc.Run(ctx, records, state, save, report)
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}
			if runErr != nil {
				// Interrupted: the last full batch is checkpointed; whatever
				// was enriched since is still worth writing, redoing it on
				// resume is a no-op.
				log.Warn().Msg("enrichment interrupted, writing partial results")
			}

			if err := writeOutputs(output, reportPath, records, report, dryRun); err != nil {
				return err
			}
			fmt.Print(report.Summary())
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "catalog file to enrich")
	cmd.Flags().StringVar(&output, "output", "", "output catalog path (default: --input)")
	cmd.Flags().StringVar(&reportPath, "report", "", "report path (default: <output>.report.json)")
	cmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint path (default: <output>.checkpoint.json)")
	cmd.Flags().IntVar(&limit, "limit", 0, "cap records enriched this run (0 = all)")
	cmd.Flags().IntVar(&batch, "batch", 0, "records per checkpoint (default: ENRICH_BATCH)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent fetches (default: ENRICH_WORKERS, clamped to rps)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and print the report, write nothing")
	cmd.Flags().BoolVar(&force, "force", false, "ignore the existing checkpoint and start over")
	cmd.Flags().BoolVar(&preserveCurated, "preserve-curated", true, "never overwrite populated fields of curated records")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

type enrichProgress struct{ svc *app.EnrichmentService }

func (p *enrichProgress) Progress() opsserver.Progress {
	st := p.svc.Stats()
	return opsserver.Progress{
		Mode:      "enrich",
		Total:     st.Total,
		Processed: st.Processed,
		Enriched:  st.Enriched,
		Failed:    st.Failed,
		StartedAt: st.StartedAt,
	}
}

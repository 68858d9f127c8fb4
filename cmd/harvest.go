package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gcppubsub "cloud.google.com/go/pubsub"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marine-obs/plet-harvester/internal/api"
	"github.com/marine-obs/plet-harvester/internal/clock/system"
	"github.com/marine-obs/plet-harvester/internal/config"
	"github.com/marine-obs/plet-harvester/internal/id/uuid"
	"github.com/marine-obs/plet-harvester/internal/logging"
	"github.com/marine-obs/plet-harvester/internal/plet"
	"github.com/marine-obs/plet-harvester/internal/publisher/pubsub"
	"github.com/marine-obs/plet-harvester/internal/regions"
	"github.com/marine-obs/plet-harvester/internal/store"
	"github.com/marine-obs/plet-harvester/internal/store/memory"
	"github.com/marine-obs/plet-harvester/internal/store/postgres"
)

func newHarvestCmd() *cobra.Command {
	var (
		startFlag     string
		endFlag       string
		overwriteFlag bool
		wktFlag       string
		regionFlag    string
	)

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Runs a harvest batch over datasets and regions",
		Long: `Harvests every configured dataset for every OSPAR COMP region over
the given date window. Outputs land in the cache directory; existing
files are skipped unless --overwrite is set. With --wkt, the named
regions are bypassed and the fixed polygon is used instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			return runHarvest(cmd.Context(), app, harvestFlags{
				start:     startFlag,
				end:       endFlag,
				overwrite: overwriteFlag,
				wkt:       wktFlag,
				region:    regionFlag,
			})
		},
	}

	cmd.Flags().StringVar(&startFlag, "start", "", "start date (YYYY-MM-DD, overrides config)")
	cmd.Flags().StringVar(&endFlag, "end", "", "end date (YYYY-MM-DD, overrides config)")
	cmd.Flags().BoolVar(&overwriteFlag, "overwrite", false, "re-fetch outputs that already exist")
	cmd.Flags().StringVar(&wktFlag, "wkt", "", "fixed WKT polygon instead of OSPAR regions")
	cmd.Flags().StringVar(&regionFlag, "region", "custom", "region label used in output names with --wkt")

	return cmd
}

type harvestFlags struct {
	start     string
	end       string
	overwrite bool
	wkt       string
	region    string
}

func runHarvest(ctx context.Context, app *App, flags harvestFlags) error {
	cfg := app.Config
	if flags.start != "" {
		cfg.Harvest.StartDate = flags.start
	}
	if flags.end != "" {
		cfg.Harvest.EndDate = flags.end
	}
	overwrite := cfg.Harvest.Overwrite || flags.overwrite

	start, end, err := cfg.Window()
	if err != nil {
		return err
	}

	clk := system.New()
	logger, logPath, err := logging.NewRunLogger(cfg.Harvest.LogsDir, cfg.Logging.Development, clk.Now())
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	logger.Info("run log opened", zap.String("path", logPath))

	// One HTTP client for the whole run; catalog, regions and the fetch
	// client all share its connection pool.
	httpClient := &http.Client{}

	tasks, err := planTasks(ctx, cfg, flags, httpClient, logger, start, end)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		logger.Warn("nothing to harvest")
		return nil
	}

	client, err := plet.NewClient(plet.ClientConfig{
		BaseURL:   cfg.PLET.BaseURL,
		UserAgent: cfg.PLET.UserAgent,
		Retry:     cfg.RetryConfig(),
	}, httpClient, clk, logger)
	if err != nil {
		return fmt.Errorf("init fetch client: %w", err)
	}

	sink, err := plet.NewCSVSink(cfg.Harvest.OutDir, logger)
	if err != nil {
		return fmt.Errorf("init sink: %w", err)
	}

	recorder, closeRecorder, err := buildRecorder(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRecorder()

	pub, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}

	harvester, err := plet.NewHarvester(client, sink, clk, recorder, pub, cfg.PubSub.TopicName, logger)
	if err != nil {
		return fmt.Errorf("init harvester: %w", err)
	}

	if cfg.Server.Enabled {
		srv := api.NewServer(logger)
		go func() {
			if serr := srv.Serve(ctx, cfg.Server.Port); serr != nil {
				logger.Warn("status server stopped", zap.Error(serr))
			}
		}()
	}

	runID, err := uuid.New().NewID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	if cerr := recorder.CreateRun(ctx, store.Run{
		ID:        runID,
		StartedAt: clk.Now(),
		StartDate: start,
		EndDate:   end,
		OutDir:    cfg.Harvest.OutDir,
		Overwrite: overwrite,
	}); cerr != nil {
		logger.Warn("create run record failed", zap.Error(cerr))
	}

	report := harvester.RunBatch(ctx, runID, tasks, overwrite)

	if ferr := recorder.FinishRun(ctx, runID, clk.Now(), report); ferr != nil {
		logger.Warn("finish run record failed", zap.Error(ferr))
	}

	fmt.Printf("run %s: %d succeeded, %d failed, %d cached (of %d tasks)\n",
		runID, len(report.Succeeded), len(report.Failed), len(report.Cached), report.Total())
	// Per-task failures are reported, never fatal: the batch completed.
	return nil
}

func planTasks(
	ctx context.Context,
	cfg config.Config,
	flags harvestFlags,
	httpClient *http.Client,
	logger *zap.Logger,
	start, end time.Time,
) ([]plet.HarvestTask, error) {
	datasets := cfg.Harvest.Datasets
	if len(datasets) == 0 {
		catalog := plet.NewCatalog(plet.CatalogConfig{
			SiteURL:   cfg.PLET.SiteURL,
			UserAgent: cfg.PLET.UserAgent,
		}, logger)
		names, err := catalog.DatasetNames(ctx)
		if err != nil {
			return nil, fmt.Errorf("list datasets: %w", err)
		}
		datasets = names
	}

	if flags.wkt != "" {
		return plet.PlanWindow(datasets, flags.region, flags.wkt, start, end), nil
	}

	provider, err := regions.New(ctx, regions.Config{
		URL:         cfg.Regions.WFSURL,
		MaxWKTChars: cfg.Regions.MaxWKTChars,
	}, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}

	var source plet.RegionSource = provider
	if len(cfg.Regions.IDs) > 0 {
		source = subsetRegions{Provider: provider, ids: cfg.Regions.IDs}
	}
	tasks, err := plet.PlanAssessment(source, datasets, start, end)
	if err != nil {
		return nil, fmt.Errorf("plan batch: %w", err)
	}
	return tasks, nil
}

// subsetRegions restricts a provider to a curated list of region IDs.
type subsetRegions struct {
	*regions.Provider
	ids []string
}

func (s subsetRegions) IDs() []string {
	return s.ids
}

// buildRecorder selects the run-history store: Postgres when a DSN is
// configured, the in-memory store otherwise so the run lifecycle is
// always recorded.
func buildRecorder(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.RunStore, func(), error) {
	if cfg.DB.DSN == "" {
		ms := memory.New()
		return ms, ms.Close, nil
	}
	pg, err := postgres.New(ctx, postgres.Config{
		DSN:          cfg.DB.DSN,
		RunsTable:    cfg.DB.RunsTable,
		OutcomeTable: cfg.DB.OutcomeTable,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init run store: %w", err)
	}
	logger.Info("run history store enabled", zap.String("table", cfg.DB.RunsTable))
	return pg, pg.Close, nil
}

func buildPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (plet.Publisher, error) {
	if cfg.PubSub.ProjectID == "" || cfg.PubSub.TopicName == "" {
		return nil, nil
	}
	client, err := gcppubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("init pubsub client: %w", err)
	}
	pub, err := pubsub.New(client)
	if err != nil {
		return nil, err
	}
	logger.Info("outcome publisher enabled", zap.String("topic", cfg.PubSub.TopicName))
	return pub, nil
}

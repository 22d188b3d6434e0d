package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/anime-shed/flag-inspector-go/internal/config"
	"github.com/anime-shed/flag-inspector-go/internal/container"
	"github.com/anime-shed/flag-inspector-go/internal/factory"
	"github.com/anime-shed/flag-inspector-go/internal/logger"
	"github.com/anime-shed/flag-inspector-go/internal/observer"
	"github.com/anime-shed/flag-inspector-go/internal/service"
	"github.com/anime-shed/flag-inspector-go/internal/storage"
	"github.com/anime-shed/flag-inspector-go/internal/strategy"
	"github.com/anime-shed/flag-inspector-go/pkg/models"
	"github.com/anime-shed/flag-inspector-go/pkg/validation"
)

type inspectOptions struct {
	format      string
	specPath    string
	concurrency int
	timeout     time.Duration
	maxSize     int64
	maxPixels   int64
}

func (c *CLI) newInspectCmd() *cobra.Command {
	opts := inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <file|url>...",
		Short: "Inspect one or more flag images",
		Long: `Inspect flag images given as local paths, file:// references, http(s)
URLs or Azure blob URLs. Azure sources use AZURE_STORAGE_ACCOUNT and
AZURE_STORAGE_KEY when they are set.

A single source prints one report; several sources print a batch with one
item per source, in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "json", "output format (json or yaml)")
	cmd.Flags().StringVar(&opts.specPath, "spec", "", "flag spec overrides (yaml, json or toml)")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 4, "maximum images inspected at once")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "per-image fetch timeout")
	cmd.Flags().Int64Var(&opts.maxSize, "max-size", 5*1024*1024, "maximum image size in bytes")
	cmd.Flags().Int64Var(&opts.maxPixels, "max-pixels", validation.DefaultMaxPixels, "maximum image width×height in pixels")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, opts inspectOptions, sources []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	renderer, err := strategy.NewRenderStrategy(opts.format)
	if err != nil {
		return err
	}
	if opts.concurrency < 1 {
		return fmt.Errorf("--concurrency must be >= 1 (got %d)", opts.concurrency)
	}
	if opts.maxSize <= 0 {
		return fmt.Errorf("--max-size must be > 0 (got %d)", opts.maxSize)
	}
	if opts.maxPixels <= 0 {
		return fmt.Errorf("--max-pixels must be > 0 (got %d)", opts.maxPixels)
	}

	svc, events, err := c.buildService(opts)
	if err != nil {
		return err
	}
	defer events.Wait()

	if len(sources) == 1 {
		resp, err := svc.Inspect(ctx, sources[0])
		if err != nil {
			c.exitCode = ExitAcquisition
			return err
		}
		c.exitCode = exitCodeFor(resp.OverallStatus)
		return renderer.Render(c.out, resp)
	}

	batch, err := svc.InspectBatch(ctx, sources)
	if err != nil {
		c.exitCode = ExitAcquisition
		return err
	}
	c.exitCode = batchExitCode(batch)
	return renderer.Render(c.out, batch)
}

func (c *CLI) buildService(opts inspectOptions) (service.FlagInspectionService, *observer.EventPublisher, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, nil, err
	}

	spec, err := config.LoadFlagSpec(opts.specPath)
	if err != nil {
		return nil, nil, err
	}

	cfg := &config.Config{
		MaxImageSize:    opts.maxSize,
		MaxImagePixels:  opts.maxPixels,
		AllowLocalFiles: true,
		AzureAccount:    os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureKey:        os.Getenv("AZURE_STORAGE_KEY"),
	}

	httpOpts := storage.DefaultHTTPOptions()
	httpOpts.Timeout = opts.timeout
	components := factory.NewComponentFactory(factory.StorageSettings{
		MaxImageSize:   cfg.MaxImageSize,
		MaxImagePixels: cfg.MaxImagePixels,
		HTTP:           httpOpts,
		AzureAccount:   cfg.AzureAccount,
		AzureKey:       cfg.AzureKey,
	})

	flagAnalyzer, err := components.AnalyzerFactory.CreateAnalyzer(spec)
	if err != nil {
		return nil, nil, err
	}
	repo, err := container.NewRepository(components.StorageFactory, cfg)
	if err != nil {
		return nil, nil, err
	}

	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))

	svc := service.NewFlagInspectionService(repo, flagAnalyzer, events, service.Options{
		FetchTimeout:     opts.timeout,
		BatchConcurrency: opts.concurrency,
	})
	return svc, events, nil
}

func exitCodeFor(status models.Status) int {
	if status == models.StatusPass {
		return ExitConforming
	}
	return ExitNonConforming
}

// batchExitCode lets acquisition failures dominate non-conforming flags
func batchExitCode(batch *models.BatchResponse) int {
	code := ExitConforming
	for _, item := range batch.Items {
		switch {
		case item.Error != nil:
			return ExitAcquisition
		case item.Response != nil && item.Response.OverallStatus != models.StatusPass:
			code = ExitNonConforming
		}
	}
	return code
}

package container

import (
	"fmt"
	"net/http"

	"github.com/anime-shed/flag-inspector-go/internal/analyzer"
	"github.com/anime-shed/flag-inspector-go/internal/config"
	"github.com/anime-shed/flag-inspector-go/internal/factory"
	"github.com/anime-shed/flag-inspector-go/internal/logger"
	"github.com/anime-shed/flag-inspector-go/internal/observer"
	"github.com/anime-shed/flag-inspector-go/internal/repository"
	"github.com/anime-shed/flag-inspector-go/internal/service"
	"github.com/anime-shed/flag-inspector-go/internal/storage"
	"github.com/anime-shed/flag-inspector-go/internal/transport"
	"github.com/anime-shed/flag-inspector-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config            *config.Config
	flagAnalyzer      analyzer.FlagAnalyzer
	imageRepository   repository.ImageRepository
	events            *observer.EventPublisher
	metrics           *observer.MetricsObserver
	inspectionService service.FlagInspectionService
	handler           http.Handler
}

// NewContainer builds the dependency graph for the HTTP API
func NewContainer(cfg *config.Config) (*Container, error) {
	spec, err := config.LoadFlagSpec(cfg.FlagSpecFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load flag spec: %w", err)
	}

	httpOpts := storage.DefaultHTTPOptions()
	httpOpts.Timeout = cfg.ImageFetchTimeout
	components := factory.NewComponentFactory(factory.StorageSettings{
		MaxImageSize:   cfg.MaxImageSize,
		MaxImagePixels: cfg.MaxImagePixels,
		HTTP:           httpOpts,
		AzureAccount:   cfg.AzureAccount,
		AzureKey:       cfg.AzureKey,
	})

	flagAnalyzer, err := components.AnalyzerFactory.CreateAnalyzer(spec)
	if err != nil {
		return nil, err
	}

	imageRepository, err := NewRepository(components.StorageFactory, cfg)
	if err != nil {
		return nil, err
	}

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	inspectionService := service.NewFlagInspectionService(imageRepository, flagAnalyzer, events, service.Options{
		FetchTimeout:     cfg.ImageFetchTimeout,
		AnalysisTimeout:  cfg.AnalysisTimeout,
		BatchConcurrency: cfg.BatchConcurrency,
		MaxBatchSize:     cfg.MaxBatchSize,
	})

	return &Container{
		config:            cfg,
		flagAnalyzer:      flagAnalyzer,
		imageRepository:   imageRepository,
		events:            events,
		metrics:           metrics,
		inspectionService: inspectionService,
		handler:           transport.NewHandler(inspectionService, metrics, cfg),
	}, nil
}

// NewRepository enables the source kinds the configuration allows. Plain
// http(s) is always on; Azure needs credentials, local files an explicit opt-in.
func NewRepository(storages factory.StorageFactory, cfg *config.Config) (*repository.SourceRepository, error) {
	httpFetcher, err := storages.CreateStorage(factory.HTTPStorage)
	if err != nil {
		return nil, err
	}
	opts := []repository.Option{
		repository.WithFetcher(repository.SourceHTTP, httpFetcher),
		repository.WithURLValidator(validation.NewURLValidatorWithOptions([]string{"http", "https"}, cfg.AllowedHosts)),
	}

	if cfg.AzureEnabled() {
		azureFetcher, err := storages.CreateStorage(factory.AzureStorage)
		if err != nil {
			return nil, err
		}
		opts = append(opts, repository.WithFetcher(repository.SourceAzure, azureFetcher))
	}

	if cfg.AllowLocalFiles {
		localFetcher, err := storages.CreateStorage(factory.LocalStorage)
		if err != nil {
			return nil, err
		}
		opts = append(opts, repository.WithFetcher(repository.SourceLocal, localFetcher))
	}

	return repository.NewSourceRepository(storages.Decoder(), opts...), nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Service returns the inspection service
func (c *Container) Service() service.FlagInspectionService {
	return c.inspectionService
}

// Stats returns a snapshot of inspection counters
func (c *Container) Stats() observer.Stats {
	return c.metrics.GetStats()
}

// Close waits for pending observer notifications
func (c *Container) Close() {
	c.events.Wait()
}

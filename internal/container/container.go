package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go-image-query/internal/config"
	"go-image-query/internal/factory"
	"go-image-query/internal/genai"
	"go-image-query/internal/logger"
	"go-image-query/internal/observer"
	"go-image-query/internal/service"
	"go-image-query/internal/storage"
	"go-image-query/internal/strategy"
	"go-image-query/internal/transport"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	events          observer.Observer
	genClient       *genai.Client
	sources         *factory.SourceResolver
	analysisService service.AnalysisService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	events := observer.NewCompositeObserver(observer.NewLoggingObserver())

	genClient := genai.NewClient(
		cfg.Endpoint,
		cfg.APIKey,
		genai.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}),
		genai.WithRetryPolicy(cfg.MaxAttempts, cfg.BaseRetryDelay),
		genai.WithRetryHook(func(attempt int, delay time.Duration, cause error) {
			events.OnEvent(context.Background(), observer.AnalysisEvent{
				EventType:    observer.RetryScheduled,
				Timestamp:    time.Now(),
				Attempt:      attempt,
				Delay:        delay,
				ErrorMessage: cause.Error(),
			})
		}),
	)

	httpFetcher := storage.NewHTTPImageFetcher(cfg.MaxRequestBodySize)
	var blobStorage storage.BlobStorage
	if cfg.AzureConfigured() {
		var err error
		blobStorage, err = storage.NewAzureStorage(cfg.AzureAccountName, cfg.AzureAccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize azure storage: %w", err)
		}
		logger.WithFields(logrus.Fields{"account": cfg.AzureAccountName}).Info("azure blob image source enabled")
	}
	sources := factory.NewSourceResolver(httpFetcher, blobStorage)

	analysisService := service.NewAnalysisService(genClient, strategy.DefaultRegistry(), events)
	handler := transport.NewHandler(analysisService, sources, cfg)

	return &Container{
		config:          cfg,
		events:          events,
		genClient:       genClient,
		sources:         sources,
		analysisService: analysisService,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// AnalysisService returns the orchestrator, for embedding callers
func (c *Container) AnalysisService() service.AnalysisService {
	return c.analysisService
}

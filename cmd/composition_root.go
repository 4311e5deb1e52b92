package cmd

import (
	"log/slog"
	"time"

	webhookhttp "pizzeria/internal/adapters/in/http"
	"pizzeria/internal/adapters/out/chatapi"
	"pizzeria/internal/adapters/out/commerce"
	"pizzeria/internal/adapters/out/geocoder"
	"pizzeria/internal/adapters/out/postgres/sessionrepo"
	"pizzeria/internal/core/application/engine"
	"pizzeria/internal/core/domain/services"
	"pizzeria/internal/jobs"

	"gorm.io/gorm"
)

// CompositionRoot wires every adapter and the conversation engine together.
type CompositionRoot struct {
	engine    *engine.Engine
	catalog   *engine.LocationCatalog
	scheduler *jobs.FeedbackScheduler
	logger    *slog.Logger
	config    Config
}

// NewCompositionRoot builds the full object graph from configuration and an
// open database handle.
func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	store, err := sessionrepo.NewGormSessionStore(gormDB)
	if err != nil {
		return nil, err
	}

	tokens, err := commerce.NewTokenCache(
		config.CommerceTokenURL,
		config.CommerceClientID,
		config.CommerceClientSecret,
		commerce.DefaultTokenMargin,
	)
	if err != nil {
		return nil, err
	}

	commerceClient, err := commerce.NewClient(config.CommerceBaseURL, tokens, 0)
	if err != nil {
		return nil, err
	}

	geocoderClient, err := geocoder.NewClient(config.GeocoderBaseURL, config.GeocoderAPIKey)
	if err != nil {
		return nil, err
	}

	chatClient, err := chatapi.NewClient(
		config.ChatAPIBaseURL,
		config.BotToken,
		config.PaymentProviderToken,
		config.PaymentCurrency,
	)
	if err != nil {
		return nil, err
	}

	catalog, err := engine.NewLocationCatalog(commerceClient)
	if err != nil {
		return nil, err
	}

	resolver, err := services.NewZoneResolver(services.DefaultTierTable())
	if err != nil {
		return nil, err
	}

	scheduler := jobs.NewFeedbackScheduler()

	eng, err := engine.NewEngine(
		store,
		commerceClient,
		chatClient,
		chatClient,
		geocoderClient,
		scheduler,
		resolver,
		catalog,
		feedbackDelay(config),
		logger,
	)
	if err != nil {
		return nil, err
	}

	return &CompositionRoot{
		engine:    eng,
		catalog:   catalog,
		scheduler: scheduler,
		logger:    logger,
		config:    config,
	}, nil
}

// Engine returns the conversation engine.
func (c *CompositionRoot) Engine() *engine.Engine {
	return c.engine
}

// Catalog returns the fulfillment location catalog.
func (c *CompositionRoot) Catalog() *engine.LocationCatalog {
	return c.catalog
}

// CreateWebhookServer creates the inbound webhook server.
func (c *CompositionRoot) CreateWebhookServer() (*webhookhttp.Server, error) {
	return webhookhttp.NewServer(c.engine, c.config.WebhookSecret)
}

// CreateJobManager creates the manager for all background jobs.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.scheduler, c.engine, c.catalog, c.logger)
}

// feedbackDelay parses the configured feedback delay, falling back to the
// engine default when unset or malformed.
func feedbackDelay(config Config) time.Duration {
	if config.FeedbackDelay == "" {
		return engine.DefaultFeedbackDelay
	}

	delay, err := time.ParseDuration(config.FeedbackDelay)
	if err != nil || delay <= 0 {
		return engine.DefaultFeedbackDelay
	}
	return delay
}

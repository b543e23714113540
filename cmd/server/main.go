package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BerylCAtieno/invoice-analyzer-api/internal/analyzer"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/config"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/extractor"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/metrics"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/router"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/services"
	"github.com/BerylCAtieno/invoice-analyzer-api/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLoggerWithOutput(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Initialize AI client
	provider, closeProvider := newProvider(ctx, cfg, logger)
	defer closeProvider()

	if provider == nil && !cfg.UseMockData {
		logger.Warn("No AI provider available; analysis requests will fail", "provider", cfg.AIProvider, "credential", cfg.CredentialEnv())
	}

	aiClient := analyzer.NewClient(provider, analyzer.Options{
		Retry: analyzer.RetryPolicy{
			MaxAttempts:    cfg.AIMaxRetries,
			InitialBackoff: cfg.AIInitialBackoff,
			Multiplier:     2,
		},
		Temperature:   cfg.AITemperature,
		MaxInputChars: cfg.AIMaxInputChars,
		Logger:        logger,
		Observer:      m,
	})

	analysisService := services.NewService(cfg, extractor.NewPDFExtractor(cfg.MaxPDFPages), aiClient, m, logger)

	// Setup HTTP servers
	apiServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewRouter(analysisService, cfg, m, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.AITimeout*time.Duration(cfg.AIMaxRetries) + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, srv := range []*http.Server{apiServer, metricsServer} {
		g.Go(func() error {
			logger.Info("Starting server", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return errors.Join(
			apiServer.Shutdown(shutdownCtx),
			metricsServer.Shutdown(shutdownCtx),
		)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("Server exited with error", "error", err)
	}

	logger.Info("Server exited")
}

// newProvider builds the configured model backend. It returns a nil provider
// when the credential is missing or the client cannot be built, so requests
// fail with a configuration error instead of the process exiting.
func newProvider(ctx context.Context, cfg *config.Config, logger *utils.Logger) (analyzer.Provider, func()) {
	noop := func() {}

	if !cfg.HasCredential() {
		return nil, noop
	}

	switch cfg.AIProvider {
	case config.ProviderOpenRouter:
		return analyzer.NewOpenRouterProvider(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.AITimeout), noop
	case config.ProviderVertex:
		p, err := analyzer.NewVertexProvider(ctx, cfg.VertexProjectID, cfg.VertexLocation, cfg.VertexModel, cfg.AITemperature)
		if err != nil {
			logger.Error("Failed to initialize AI provider", "provider", cfg.AIProvider, "error", err)
			return nil, noop
		}
		return p, func() { _ = p.Close() }
	default:
		return analyzer.NewOpenAIProvider(analyzer.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.AITimeout,
		}), noop
	}
}

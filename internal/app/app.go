package app

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"searchmark/internal/config"
	"searchmark/internal/content"
	"searchmark/internal/folder"
	"searchmark/internal/orchestrator"
	"searchmark/internal/registry"
	"searchmark/internal/router"
	"searchmark/internal/telemetry"
	"searchmark/internal/transport"
)

// App wires the inference core together: registry, router, transports,
// resolver, orchestrator and the content fetcher. Built once at startup;
// everything it holds is read-only afterwards.
type App struct {
	Config *config.Config

	Registry     *registry.Registry
	Router       *router.Router
	Transport    transport.Invoker
	Resolver     *folder.Resolver
	Orchestrator *orchestrator.Orchestrator
	Fetcher      *content.Fetcher
	Sink         telemetry.Sink

	gemini *transport.GeminiTransport
}

func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &App{Config: cfg}

	if err := app.initRegistry(); err != nil {
		return nil, err
	}
	if err := app.initTransports(); err != nil {
		app.cleanupPartialInit()
		return nil, err
	}
	app.initPipeline()

	log.Debug("application initialization complete")
	return app, nil
}

func (a *App) initRegistry() error {
	reg, err := registry.New(a.Config.Models)
	if err != nil {
		return err
	}
	a.Registry = reg
	return nil
}

// initTransports registers one invoker per configured provider and wraps
// the mux in the breaker and admission-limiter decorators. A provider
// without an API key is skipped with a warning; the router will simply
// never be offered its models successfully.
func (a *App) initTransports() error {
	mux := transport.NewMux()

	if key := a.Config.Providers.OpenAI.APIKey; key != "" {
		t, err := transport.NewOpenAITransport(key, a.Config.Providers.OpenAI.BaseURL)
		if err != nil {
			return err
		}
		mux.Register("openai", t)
	} else {
		log.Warn("OpenAI API key not provided; openai models will fail over")
	}

	if key := a.Config.Providers.Gemini.APIKey; key != "" {
		t, err := transport.NewGeminiTransport(key)
		if err != nil {
			return err
		}
		mux.Register("gemini", t)
		a.gemini = t
	} else {
		log.Warn("Gemini API key not provided; gemini models will fail over")
	}

	var inv transport.Invoker = mux
	if a.Config.Transport.BreakerEnabled {
		inv = transport.NewBreaker(inv)
	}
	a.Transport = transport.NewLimiter(inv,
		a.Config.Transport.MaxConcurrent, a.Config.Transport.RequestsPerSec)
	return nil
}

func (a *App) initPipeline() {
	a.Router = router.New(a.Registry, a.Config.Orchestrator.MaxAttempts)
	a.Resolver = folder.NewResolver(a.Config.Resolver.AcceptThreshold, a.Config.Resolver.Margin)
	a.Sink = telemetry.NewLogSink()
	a.Fetcher = content.NewFetcher(a.Config.Content.FetchTimeout, a.Config.Content.MaxChars)
	a.Orchestrator = orchestrator.New(a.Router, a.Transport, a.Resolver, a.Sink, orchestrator.Config{
		MaxAttempts:     a.Config.Orchestrator.MaxAttempts,
		AttemptTimeout:  a.Config.Orchestrator.AttemptTimeout,
		TitleMaxChars:   a.Config.Validator.TitleMaxChars,
		SummaryMaxChars: a.Config.Validator.SummaryMaxChars,
	})
}

func (a *App) cleanupPartialInit() {
	a.Close()
}

// Close releases provider connections.
func (a *App) Close() {
	if a.gemini != nil {
		if err := a.gemini.Close(); err != nil {
			log.Warnf("closing gemini transport: %v", err)
		}
		a.gemini = nil
	}
}

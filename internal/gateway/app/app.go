// Package app wires configuration, clients, stores and the HTTP surface
// into a runnable gateway.
package app

import (
	"context"
	"fmt"

	"medidecode/internal/analysis"
	"medidecode/internal/chat"
	"medidecode/internal/document"
	"medidecode/internal/gateway/config"
	"medidecode/internal/gateway/handler"
	"medidecode/internal/gateway/server"
	"medidecode/internal/history"
	"medidecode/internal/llm"
	"medidecode/internal/llmclient"
	"medidecode/internal/logger"
	"medidecode/internal/pharmacy"
	"medidecode/internal/session"
	"medidecode/internal/speech"

	"github.com/sirupsen/logrus"
)

type App struct {
	server *server.Server
	client llmclient.Client
	log    *logrus.Logger
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New()

	cli, err := buildClient(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	hist := newHistoryStore(cfg, log)
	docs := newDocumentStore(cfg, log)

	sess, err := session.New(ctx, session.Config{
		Extractor:   analysis.NewExtractor(cli),
		Translator:  analysis.NewTranslator(cli),
		History:     hist,
		Documents:   docs,
		CallTimeout: cfg.CallTimeout,
		Logger:      log.WithField("component", "session"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build session: %w", err)
	}

	h := handler.New(
		sess,
		pharmacy.NewFinder(cli),
		chat.NewAssistant(cli),
		speech.NewSynthesizer(cli, cfg.Gemini.Voice),
		docs,
		log.WithField("component", "handler"),
	)

	srv := server.New(cfg.Port, server.NewMux(h), log.WithField("component", "server"))

	return &App{server: srv, client: cli, log: log}, nil
}

// buildClient assembles the middleware chain around the provider client.
// Without an API key the scripted fake is used so the gateway still serves
// local development.
func buildClient(ctx context.Context, cfg *config.Config, log *logrus.Logger) (llmclient.Client, error) {
	var inner llmclient.Client
	if cfg.Gemini.APIKey == "" {
		log.Warn("GEMINI_API_KEY not set; using scripted fake client")
		inner = &llmclient.FakeClient{}
	} else {
		cli, err := llmclient.NewGeminiClient(ctx, cfg.Gemini.APIKey, llmclient.GeminiOptions{
			Model:       cfg.Gemini.Model,
			MapsModel:   cfg.Gemini.MapsModel,
			SpeechModel: cfg.Gemini.SpeechModel,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init gemini client: %w", err)
		}
		inner = cli
	}

	return llm.Wrap(inner,
		llm.WithLogging(log.WithField("component", "llm")),
		llm.Retry(cfg.RetryAttempts, cfg.RetryBaseDelay),
		llm.RateLimit(cfg.RPS, cfg.RPSBurst),
	), nil
}

func newHistoryStore(cfg *config.Config, log *logrus.Logger) *history.Store {
	if cfg.History.PGDSN != "" {
		s, err := history.NewPostgres(cfg.History.PGDSN, cfg.History.Cap)
		if err == nil {
			return s
		}
		log.WithError(err).Warn("postgres history unavailable; falling back to file store")
	}
	return history.New(cfg.History.FilePath, cfg.History.Cap)
}

func newDocumentStore(cfg *config.Config, log *logrus.Logger) document.Store {
	if !cfg.Documents.Enabled {
		return document.NewMemoryStore()
	}
	s, err := document.NewS3Store(document.S3Config{
		Endpoint:  cfg.Documents.Endpoint,
		Region:    cfg.Documents.Region,
		AccessKey: cfg.Documents.AccessKey,
		SecretKey: cfg.Documents.SecretKey,
		Bucket:    cfg.Documents.Bucket,
		UseSSL:    cfg.Documents.UseSSL,
	})
	if err != nil {
		log.WithError(err).Warn("s3 document store unavailable; falling back to memory store")
		return document.NewMemoryStore()
	}
	return s
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.client.Close(); err == nil {
		err = cerr
	}
	return err
}

package main

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/vipul43/jobtrail/internal/config"
	"github.com/vipul43/jobtrail/internal/database"
	"github.com/vipul43/jobtrail/internal/gemini"
	"github.com/vipul43/jobtrail/internal/gmail"
	"github.com/vipul43/jobtrail/internal/llm"
	"github.com/vipul43/jobtrail/internal/openrouter"
	"github.com/vipul43/jobtrail/internal/repository"
	"github.com/vipul43/jobtrail/internal/service"
	"github.com/vipul43/jobtrail/internal/synth"
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	jobs     *repository.RunJobRepository
	cache    *repository.CacheRepository
	sessions *service.SessionManager
	apps     *service.ApplicationService
	runner   *service.RunProcessor
	closers  []func() error
}

// newApp loads configuration, connects to the database and wires the
// services. The language model client is only created when withLLM is set.
func newApp(ctx context.Context, withLLM bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}

	a := &app{
		cfg:     cfg,
		db:      db,
		jobs:    repository.NewRunJobRepository(sqlDB),
		cache:   repository.NewCacheRepository(db),
		closers: []func() error{sqlDB.Close},
	}

	accountRepo := repository.NewAccountRepository(db)
	gmailClient := gmail.NewClient(cfg.GoogleClientID, cfg.GoogleClientSecret)
	a.sessions = service.NewSessionManager(accountRepo, gmailClient)
	a.apps = service.NewApplicationService(a.cache)

	if withLLM {
		completer, err := a.newCompleter(ctx)
		if err != nil {
			a.close()
			return nil, err
		}
		a.runner = service.NewRunProcessor(a.sessions, a.cache, synth.New(completer), service.RunConfig{
			MaxCompanies: cfg.MaxCompanies,
			LookbackDays: cfg.DefaultLookbackDays,
			Concurrency:  cfg.CompanyConcurrency,
		})
	}

	return a, nil
}

func (a *app) newCompleter(ctx context.Context) (llm.Completer, error) {
	var completer llm.Completer
	switch a.cfg.LLMProvider {
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, a.cfg.GeminiAPIKey, a.cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		completer = client
	default:
		client := openrouter.NewClient(a.cfg.OpenRouterAPIKey)
		if a.cfg.OpenRouterModel != "" {
			client.SetModel(a.cfg.OpenRouterModel)
		}
		completer = client
	}

	log.Printf("Using %s for extraction (%d calls/minute)", a.cfg.LLMProvider, a.cfg.LLMRatePerMinute)
	return llm.NewRateLimited(completer, a.cfg.LLMRatePerMinute), nil
}

// identity resolves a user id to the mailbox address their cache is keyed by
func (a *app) identity(ctx context.Context, userID string) (string, error) {
	mailbox, err := a.sessions.Open(ctx, userID)
	if err != nil {
		return "", err
	}
	return mailbox.Identity(ctx)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("Warning: failed to close resource: %v", err)
		}
	}
}

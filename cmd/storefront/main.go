package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/mifarmacia/storefront/internal/checkout"
	"github.com/mifarmacia/storefront/internal/checkout/journal"
	journalsqlite "github.com/mifarmacia/storefront/internal/checkout/journal/sqlite"
	"github.com/mifarmacia/storefront/internal/pkg/cache"
	"github.com/mifarmacia/storefront/internal/pkg/config"
	"github.com/mifarmacia/storefront/internal/pkg/telemetry"
	"github.com/mifarmacia/storefront/internal/storefront/infra/adapters/backend"
	"github.com/mifarmacia/storefront/internal/storefront/infra/adapters/payment"
	"github.com/mifarmacia/storefront/internal/storefront/infra/adapters/store"
	"github.com/mifarmacia/storefront/internal/storefront/infra/httpx"
)

const serviceName = "storefront-gateway"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	telemetry.InitLogger()

	ctx := context.Background()
	shutdownTracer, err := telemetry.SetupTracer(ctx, serviceName)
	if err != nil {
		slog.Warn("tracer setup failed, continuing without traces", "error", err)
	} else {
		defer func() {
			if err := shutdownTracer(ctx); err != nil {
				slog.Warn("tracer shutdown failed", "error", err)
			}
		}()
	}

	var log journal.Repository
	if cfg.JournalPath != "" {
		repo, err := journalsqlite.Open(cfg.JournalPath)
		if err != nil {
			slog.Warn("checkout journal unavailable, continuing without it",
				"path", cfg.JournalPath, "error", err)
		} else {
			defer repo.Close()
			log = repo
		}
	}

	redisCache := cache.NewRedisCache(cfg.RedisAddr, serviceName)
	carts := store.NewCartStore(redisCache, cfg.CartTTL)
	wizards := store.NewWizardStore(redisCache, cfg.WizardTTL)
	sessions := store.NewSessionStore(redisCache, cfg.SessionTTL)

	backendClient := backend.New(cfg.BackendBaseURL)

	var cards checkout.CardConfirmer
	if cfg.ProcessorSecretKey != "" {
		cards = payment.NewProcessorClient(cfg.ProcessorBaseURL, cfg.ProcessorSecretKey)
	} else {
		slog.Warn("no processor secret key configured, card payments use the fake confirmer")
		cards = payment.NewFakeConfirmer()
	}

	orchestrator := checkout.NewOrchestrator(backendClient, cards, log)

	handler := httpx.NewHandler(backendClient, orchestrator, carts, wizards, sessions, redisCache, cfg.CatalogTTL)
	router := httpx.NewRouter(handler, sessions)

	slog.Info("storefront gateway listening", "addr", cfg.HTTPAddr, "backend", cfg.BackendBaseURL)
	if err := http.ListenAndServe(cfg.HTTPAddr, router); err != nil {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

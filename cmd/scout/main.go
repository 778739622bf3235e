package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go-goodhr-automation/internal/actuator"
	"go-goodhr-automation/internal/ai"
	"go-goodhr-automation/internal/browser"
	"go-goodhr-automation/internal/config"
	"go-goodhr-automation/internal/database"
	"go-goodhr-automation/internal/dedup"
	"go-goodhr-automation/internal/engine"
	"go-goodhr-automation/internal/models"
	"go-goodhr-automation/internal/panel"
	"go-goodhr-automation/internal/reporter"
	"go-goodhr-automation/internal/sampling"
	"go-goodhr-automation/internal/scanner"
	"go-goodhr-automation/internal/scheduler"
	"go-goodhr-automation/internal/store"

	"github.com/playwright-community/playwright-go"
)

// pinnedPosition overrides the position selected in the user file.
type pinnedPosition struct {
	*store.FileStore
	position string
}

func (p pinnedPosition) Snapshot(ctx context.Context, userID string) (models.RuleSnapshot, error) {
	cfg, err := p.Load(ctx, userID)
	if err != nil {
		return models.RuleSnapshot{}, err
	}
	return cfg.RuleSnapshot(p.position)
}

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	initUser := flag.Bool("init", false, "create the default user file and exit")
	flag.Parse()

	//load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Invalid config: %v", err)
	}
	log.Printf("🔧 Config loaded. User: %s, actuator: %s", cfg.Phone, cfg.ActuatorMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("❌ Failed to open data dir: %v", err)
	}

	if *initUser {
		if _, err := files.CreateDefault(ctx, cfg.Phone, models.Today()); err != nil {
			log.Fatalf("❌ %v", err)
		}
		log.Printf("✅ Created %s", filepath.Join(cfg.DataDir, "users", cfg.Phone+".json"))
		return
	}

	var rules engine.RuleSource = files
	if cfg.Position != "" {
		rules = pinnedPosition{FileStore: files, position: cfg.Position}
		log.Printf("📌 Position pinned to %q", cfg.Position)
	}

	var quotas engine.QuotaStore = files
	if cfg.DatabaseURL != "" {
		repo, err := openRepository(ctx, cfg.DatabaseURL, cfg.Phone, files)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		defer repo.Close()
		quotas = repo
		log.Println("🐘 Quota is kept in Postgres")
	}

	policy := sampling.New(nil)
	if cfg.RandomSeed != 0 {
		policy = sampling.NewSeeded(cfg.RandomSeed)
	}

	act, cleanup, err := newActuator(ctx, cfg, policy)
	if err != nil {
		log.Fatalf("❌ Failed to init actuator: %v", err)
	}
	defer cleanup()

	reporters := reporter.Multi{reporter.LogReporter{}}
	if cfg.TelegramEnabled() {
		tg, err := reporter.NewTelegramReporter(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatalf("❌ Failed to init Telegram Bot: %v", err)
		}
		reporters = append(reporters, tg)
		log.Println("🤖 Telegram Bot initialized.")
	}

	seen := dedup.NewCandidateCache(cfg.CachePath)
	log.Printf("🗂️ %d candidates greeted in the last 30 days will be skipped", seen.Len())

	opts := []engine.Option{
		engine.WithPolicy(policy),
		engine.WithSeenCache(seen),
	}
	if cfg.AIScreening {
		screener, err := ai.NewChatClient(ai.Config{APIKey: cfg.AIAPIKey, URL: cfg.AIURL, Model: cfg.AIModel})
		if err != nil {
			log.Fatalf("❌ Failed to init AI screening: %v", err)
		}
		opts = append(opts, engine.WithScreener(screener))
		log.Println("🤖 Enterprise candidates are screened by the AI")
	}
	eng := engine.New(rules, quotas, act, opts...)
	stats := engine.NewStats()

	if cfg.PanelAddr != "" {
		srv := panel.New(stats, quotas, cfg.Phone)
		srv.Start(cfg.PanelAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	runSession := func(ctx context.Context) error {
		feed, closeFeed, err := openFeed(cfg.FeedPath)
		if err != nil {
			return err
		}
		defer closeFeed()
		_, err = engine.NewSession(eng, cfg.Phone, reporters, stats).Run(ctx, feed)
		return err
	}

	if cfg.Schedule == "" {
		if err := runSession(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("❌ Session failed: %v", err)
			os.Exit(1)
		}
		return
	}

	sched := scheduler.New(cfg.Schedule, runSession)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("❌ %v", err)
	}
	<-ctx.Done()
	log.Println("👋 Shutting down...")
	sched.Stop()
}

// openRepository connects to Postgres and seeds the user's quota from the
// flat file on first use.
func openRepository(ctx context.Context, dbURL, phone string, files *store.FileStore) (*database.Repository, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	repo, err := database.ConnectDB(connectCtx, dbURL)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureSchema(connectCtx); err != nil {
		repo.Close()
		return nil, err
	}

	if _, err := repo.QuotaState(connectCtx, phone); errors.Is(err, models.ErrUserNotFound) {
		state, err := files.QuotaState(connectCtx, phone)
		if err != nil {
			repo.Close()
			return nil, err
		}
		if err := repo.SaveQuotaState(connectCtx, phone, state); err != nil {
			repo.Close()
			return nil, err
		}
		log.Printf("📥 Seeded Postgres quota for %s from the user file", phone)
	}
	return repo, nil
}

func newActuator(ctx context.Context, cfg *config.Config, policy *sampling.Policy) (actuator.Actuator, func(), error) {
	noop := func() {}
	switch cfg.ActuatorMode {
	case config.ActuatorNone:
		return actuator.Noop{}, noop, nil

	case config.ActuatorPage:
		pm, err := browser.NewPlaywright(ctx, browser.Options{Headless: cfg.Headless})
		if err != nil {
			return nil, noop, err
		}
		page, err := pm.NewPage(loadCookies(cfg.CookiesPath), cfg.StartURL)
		if err != nil {
			pm.Close()
			return nil, noop, err
		}
		log.Println("✅ Browser initialized successfully!")
		shots := browser.NewScreenshotDebugger(cfg.ScreenshotDir)
		return actuator.NewPageActuator(page, shots, policy), func() { pm.Close() }, nil
	}

	act := actuator.NewHTTPActuator(cfg.ActuatorURL, actuator.WithRate(cfg.ClickInterval))
	if err := act.Ping(ctx); err != nil {
		log.Printf("⚠️ Mouse service at %s is not answering: %v. Clicks will be retried per candidate.", cfg.ActuatorURL, err)
	}
	return act, noop, nil
}

func loadCookies(dir string) []playwright.OptionalCookie {
	paths, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	var all []playwright.OptionalCookie
	for _, path := range paths {
		cookies, err := browser.LoadCookies(path)
		if err != nil {
			log.Printf("⚠️ Could not load %s: %v. Continuing.", path, err)
			continue
		}
		log.Printf("🍪 Loaded %s (%d)", filepath.Base(path), len(cookies))
		all = append(all, cookies...)
	}
	return all
}

func openFeed(path string) (scanner.Feed, func(), error) {
	if path == "-" {
		return scanner.NewJSONLFeed(os.Stdin), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return scanner.NewJSONLFeed(f), func() { f.Close() }, nil
}

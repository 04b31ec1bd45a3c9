package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rahul/saarthi/internal/action"
	"github.com/rahul/saarthi/internal/agent"
	"github.com/rahul/saarthi/internal/browser"
	"github.com/rahul/saarthi/internal/bus"
	"github.com/rahul/saarthi/internal/extract"
	"github.com/rahul/saarthi/internal/gateway"
	"github.com/rahul/saarthi/internal/governance"
	"github.com/rahul/saarthi/internal/observability"
	"github.com/rahul/saarthi/internal/pagectx"
	"github.com/rahul/saarthi/internal/router"
	"github.com/rahul/saarthi/internal/search"
	"github.com/rahul/saarthi/internal/store"
	"github.com/rahul/saarthi/internal/tools"
	"github.com/rahul/saarthi/pkg/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

func main() {
	observability.PrintBanner()
	observability.InitializeTerminal()

	// Route all log output through the terminal mutex so it never
	// interrupts the dashboard's cursor save/restore sequence.
	log.SetOutput(observability.NewTermWriter())

	cfg := config.LoadConfig("config.json")

	sites, err := config.LoadSites("engines.yaml")
	if err != nil {
		log.Fatalf("failed to load site config: %v", err)
	}

	logger := observability.NewLogger()

	history, err := store.NewHistoryStore(cfg.Memory.Path)
	if err != nil {
		log.Fatal(err)
	}

	// Initialize LLM (using default enabled provider)
	pName, pCfg := cfg.GetDefaultProvider()
	if pName == "" {
		log.Fatal("No enabled provider found in config")
	}

	var llm llms.Model
	switch pName {
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(pCfg.APIKey),
			openai.WithModel(pCfg.Model),
		}
		if pCfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(pCfg.BaseURL))
		}
		llm, err = openai.New(opts...)
	default:
		log.Fatalf("Provider %s not yet implemented in main", pName)
	}
	if err != nil {
		log.Fatal(err)
	}

	// Chat tools
	registry := tools.NewRegistry()
	registry.Register(tools.NewScraperTool())

	if webSearch, err := tools.NewWebSearchTool(); err != nil {
		log.Printf("Warning: Failed to initialize web search tool: %v", err)
	} else {
		registry.Register(webSearch)
	}

	prompts := agent.NewPromptManager(cfg.App.PromptsDir)

	// Browser session and automation core
	session := browser.NewSession(cfg.Browser, logger)
	defer session.Close()

	plans := action.NewStore()
	planner := action.NewPlanner(sites, plans)
	executor := action.NewExecutor(plans, session, logger,
		time.Duration(cfg.Browser.StepDelayMillis)*time.Millisecond)

	pipeline := extract.NewPipeline(session, session, logger, cfg.Browser)

	broadcasts := bus.New()

	orchestrator := &search.Orchestrator{
		Sites:          sites,
		Tabs:           session,
		Pipeline:       pipeline,
		Bus:            broadcasts,
		Summarizer:     agent.NewSummarizer(llm, pCfg.Model, prompts, logger),
		Logger:         logger,
		SettleDelay:    time.Duration(cfg.Browser.SettleDelayMillis) * time.Millisecond,
		MaxFullContent: cfg.Browser.MaxFullContent,
	}

	policy := governance.NewNavigationPolicy()
	// Default safety rules: never drive the browser to internal or
	// script-bearing URLs.
	_ = policy.DenyPattern(`(?i)^javascript:`)
	_ = policy.DenyPattern(`(?i)^(chrome|about|file|data):`)
	_ = policy.DenyPattern(`(?i)://(localhost|127\.0\.0\.1|0\.0\.0\.0)`)

	contexts := pagectx.New()
	brain := agent.NewBrain(llm, registry, history, prompts, logger)

	rt := &router.Router{
		Plans:        plans,
		Planner:      planner,
		Executor:     executor,
		PageInfo:     session,
		Context:      contexts,
		Orchestrator: orchestrator,
		Brain:        brain,
		History:      history,
		Policy:       policy,
		Tabs:         session,
		Logger:       logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start Live Resource Dashboard (1-second updates)
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.PrintLiveStatus()
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.Heartbeat()
				logger.LogHeartbeat()
			}
		}
	}()

	var gateways []gateway.Messenger

	if tgCfg, ok := cfg.GetTelegramConfig(); ok {
		tg, err := gateway.NewTelegramGateway(tgCfg.Token, rt, broadcasts)
		if err != nil {
			log.Fatal(err)
		}
		gateways = append(gateways, tg)
	}

	if dcCfg, ok := cfg.GetDiscordConfig(); ok {
		dc, err := gateway.NewDiscordGateway(dcCfg.Token, rt, broadcasts)
		if err != nil {
			log.Fatal(err)
		}
		gateways = append(gateways, dc)
	}

	if len(gateways) == 0 {
		log.Fatal("No gateway is enabled in config")
	}

	for _, gw := range gateways {
		go func(gw gateway.Messenger) {
			if err := gw.Start(); err != nil {
				log.Printf("\033[91m[ FAIL ] GATEWAY CRITICAL ERROR: %v\033[0m", err)
				stop() // stop caller if gateway dies
			}
		}(gw)
	}

	// Wait for shutdown signal
	<-ctx.Done()

	for _, gw := range gateways {
		_ = gw.Stop()
	}

	// Reset terminal aesthetics
	observability.CleanupTerminal()

	// Give a short time for final logs/syncs
	time.Sleep(500 * time.Millisecond)
	log.Println("\033[95m[ EXIT ] CORE DE-INITIALIZED. GOODBYE.\033[0m")
}

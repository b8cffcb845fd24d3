package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"botlab.dev/assistant-bot/internal/api"
	"botlab.dev/assistant-bot/internal/bot"
	"botlab.dev/assistant-bot/internal/channel"
	"botlab.dev/assistant-bot/internal/config"
	"botlab.dev/assistant-bot/internal/core"
	"botlab.dev/assistant-bot/internal/intent"
	"botlab.dev/assistant-bot/internal/nlp"
	"botlab.dev/assistant-bot/internal/scheduler"
	"botlab.dev/assistant-bot/internal/session"
	"botlab.dev/assistant-bot/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if cfg.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Load the intent corpus; a missing corpus only disables the classifier.
	index := intent.LoadIndex(cfg.IntentsPath)
	classifier := intent.NewClassifier(index, nlp.NewNormalizer(nlp.SnowballStemmer{}))

	// Wire external responders. Unconfigured ones stay nil and the
	// dialogue manager answers with fallback text instead.
	responders := core.Responders{
		Wiki:      core.NewWikiResponder(),
		Translate: core.NewTranslateResponder(),
	}
	if cfg.WeatherAPIKey != "" {
		responders.Weather = core.NewWeatherResponder(cfg.WeatherAPIKey)
	}
	if cfg.NewsAPIKey != "" {
		responders.News = core.NewNewsResponder(cfg.NewsAPIKey)
	}
	if cfg.GeminiAPIKey != "" {
		llmService, err := core.NewLLMService(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("Failed to initialize LLM service: %v", err)
		}
		defer llmService.Close()
		responders.Complete = llmService.Complete
	} else {
		log.Println("GEMINI_API_KEY not set, generative fallback disabled")
	}

	// Dialogue manager and event dispatcher
	sender := channel.NewHTTPSender(cfg.ChannelAPIBase, cfg.ChannelToken)
	manager := core.NewDialogueManager(dbStore, session.NewStore(), classifier, responders)
	dispatcher := bot.NewDispatcher(manager, sender, 128)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go dispatcher.Run(runCtx)

	// Reminder scheduler runs on its own goroutine, decoupled from the
	// dispatcher so a slow external call never delays a delivery.
	reminderScheduler := scheduler.New(dbStore, sender, cfg.ReminderInterval)
	go reminderScheduler.Run(runCtx)

	// Webhook gateway
	apiHandler := api.NewAPIHandler(dispatcher, cfg.WebhookSecret)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting webhook server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shut everything down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	// Stop the dispatcher and scheduler first so no new work starts,
	// then drain the HTTP server.
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Exiting gracefully")
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"aria/internal/config"
	"aria/internal/intent"
	"aria/internal/llm"
	"aria/internal/logging"
	"aria/internal/metrics"
	"aria/internal/pipeline"
	httpserver "aria/internal/server/http"
	"aria/internal/speech"
	"aria/internal/store"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "aria-server",
		Short: "Voice and chat intent service for todos, expenses, and calendar events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.SetDefault(os.Stderr, logging.ParseLevel(cfg.Log.Level))
	logger := logging.NewComponentLogger("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	serverMetrics, err := metrics.New("aria", nil)
	if err != nil {
		return err
	}

	chatClient := llm.NewRetryClient(
		llm.NewOpenAIClient(llm.Config{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
		}, cfg.LLM.Timeout, logging.NewComponentLogger("llm")),
		cfg.LLM.MaxRetries,
		logging.NewComponentLogger("llm"),
	)

	classifier := intent.NewLLMClassifier(chatClient, logging.NewComponentLogger("intent"),
		intent.WithTemperature(cfg.LLM.Temperature),
		intent.WithCacheSize(cfg.LLM.CacheSize),
	)

	var speechService *speech.Service
	if cfg.Speech.APIKey != "" {
		whisper := speech.NewWhisperClient(
			cfg.Speech.BaseURL, cfg.Speech.APIKey, cfg.Speech.Model,
			cfg.Speech.MaxAudioBytes, cfg.Speech.Timeout,
			logging.NewComponentLogger("speech"),
		)
		speechService = speech.NewService(whisper, chatClient, logging.NewComponentLogger("speech"))
	} else {
		logger.Warn("speech.api_key unset, transcription endpoints disabled")
	}

	committer := pipeline.NewCommitter(stores)
	var transcriber speech.Transcriber
	if speechService != nil {
		transcriber = speechService
	}
	sessions := pipeline.NewManager(transcriber, classifier, committer,
		logging.NewComponentLogger("pipeline"),
		pipeline.WithConfig(pipeline.Config{
			TranscribeTimeout: cfg.Speech.Timeout,
			ParseTimeout:      cfg.LLM.Timeout,
		}),
	)

	server := httpserver.New(cfg, httpserver.Dependencies{
		Speech:     transcriber,
		Classifier: classifier,
		Stores:     stores,
		Sessions:   sessions,
		Metrics:    serverMetrics,
		Logger:     logger,
	})

	logger.Info("store driver: %s", cfg.Store.Driver)
	return server.Run(ctx)
}

func buildStores(ctx context.Context, cfg *config.Config) (store.Stores, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		pgStore, err := store.NewPostgres(ctx, store.PostgresOptions{
			Addr:     cfg.Store.Addr,
			User:     cfg.Store.User,
			Password: cfg.Store.Password,
			Database: cfg.Store.Database,
		}, logging.NewComponentLogger("store"))
		if err != nil {
			return store.Stores{}, nil, err
		}
		if err := pgStore.EnsureSchema(ctx); err != nil {
			_ = pgStore.Close()
			return store.Stores{}, nil, err
		}
		return pgStore.Stores(), func() { _ = pgStore.Close() }, nil
	default:
		return store.NewMemory().Stores(), func() {}, nil
	}
}

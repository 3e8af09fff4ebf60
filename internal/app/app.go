package app

import (
	"log"
	"time"

	"go.uber.org/zap"

	"guestdesk/internal/classify"
	"guestdesk/internal/config"
	"guestdesk/internal/jobs"
	"guestdesk/internal/llm"
	"guestdesk/internal/logger"
	"guestdesk/internal/notify"
	"guestdesk/internal/server"
	"guestdesk/internal/storage/sqlite"
)

// Main wires the service together: config, logger, history store, gateway,
// classifier, notifier, prune job and the HTTP server. It blocks serving.
func Main() {
	cfg := config.LoadConfig()

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		zlog.Fatal("database init failed", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer db.Close()
	zlog.Info("database initialized", zap.String("path", cfg.DBPath))

	gateway := buildGateway(cfg, zlog)
	classifier := classify.New(gateway, zlog)

	var notifier server.Notifier
	if cfg.SlackConfigured() {
		notifier = notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackAlertChannel, zlog)
		zlog.Info("urgent-ticket notifier enabled", zap.String("channel", cfg.SlackAlertChannel))
	}

	jobs.StartHistoryPruner(db, cfg.HistoryPruneSchedule, cfg.HistoryRetentionDays, zlog)

	handler := server.NewHandler(classifier, db, notifier, cfg.LLMProvider, cfg.LLMModel, zlog)
	router := server.NewRouter(handler, zlog)

	zlog.Info("starting guestdesk",
		zap.String("addr", cfg.ListenAddr),
		zap.String("provider", cfg.LLMProvider),
		zap.String("model", cfg.LLMModel))
	if err := router.Run(cfg.ListenAddr); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}

func buildGateway(cfg config.Config, zlog *zap.Logger) llm.Gateway {
	timeout := time.Duration(cfg.LLMTimeoutSecs) * time.Second
	switch cfg.LLMProvider {
	case "openai":
		opts := []llm.Option{}
		if cfg.LLMBaseURL != "" {
			opts = append(opts, llm.WithBaseURL(cfg.LLMBaseURL))
		}
		return llm.NewOpenAIGateway(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMTemperature, cfg.LLMMaxTokens, timeout, zlog, opts...)
	case "mistral":
		opts := []llm.Option{}
		if cfg.LLMBaseURL != "" {
			opts = append(opts, llm.WithBaseURL(cfg.LLMBaseURL))
		}
		return llm.NewMistralGateway(cfg.MistralAPIKey, cfg.LLMModel, cfg.LLMTemperature, cfg.LLMMaxTokens, timeout, zlog, opts...)
	default:
		return llm.NewAnthropicGateway(cfg.AnthropicAPIKey, cfg.LLMModel, cfg.LLMMaxTokens, zlog)
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"
	"chatpulse/internal/core/services"
	"chatpulse/internal/infrastructure/chat"
	"chatpulse/internal/infrastructure/monitoring"
	"chatpulse/internal/infrastructure/nlp"
	"chatpulse/internal/infrastructure/notify"
	"chatpulse/internal/infrastructure/repositories/postgres"
	"chatpulse/pkg/config"
	"chatpulse/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Local development convenience; absence is fine.
	_ = godotenv.Load()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/chatpulse/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	if cfg.Twitch.Channel == "" || cfg.Twitch.BotUsername == "" || cfg.Twitch.OAuthToken == "" {
		log.Fatal("twitch channel, bot_username and oauth_token must be configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyzer, err := nlp.NewGoogleAnalyzer(ctx, cfg.Analyzer.CredentialsFile)
	if err != nil {
		log.Fatalw("failed to initialize sentiment analyzer", "error", err)
	}
	sentiment := services.NewSentimentService(analyzer)

	var messages ports.MessageRepository
	if cfg.Postgres.Enabled {
		db, err := postgres.Connect(cfg.Postgres.DSN)
		if err != nil {
			log.Fatalw("failed to connect to postgres", "error", err)
		}
		defer db.Close()

		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		if err := postgres.Migrate(migrateCtx, db); err != nil {
			cancel()
			log.Fatalw("failed to migrate postgres schema", "error", err)
		}
		cancel()

		messages = postgres.NewPostgresMessageRepository(db)
		log.Info("message persistence enabled")
	}

	collector := monitoring.NewPrometheusCollector()

	if cfg.Monitoring.PrometheusEnabled {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Infof("Serving metrics on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
				log.Errorw("metrics listener failed", "error", err)
			}
		}()
	}

	notifier := notify.NewHTTPNotifier(cfg.Analyzer.GatewayURL, log)
	pipeline := services.NewPipelineService(sentiment, messages, notifier, collector, log)

	ingest := chat.NewTwitchIngest(cfg.Twitch.Channel, cfg.Twitch.BotUsername, cfg.Twitch.OAuthToken, log)

	ingestErr := make(chan error, 1)
	go func() {
		ingestErr <- ingest.Run(ctx)
	}()

	log.Infow("analyzer started",
		"channel", cfg.Twitch.Channel,
		"gateway", cfg.Analyzer.GatewayURL,
		"batch_size", cfg.Analyzer.BatchSize,
	)

	runPipeline(ctx, cfg, pipeline, ingest.Messages(), log, ingestErr)

	log.Info("Analyzer stopped")
}

// runPipeline drains the ingest stream in batches: a batch flushes
// when full or when the interval elapses, whichever comes first.
func runPipeline(
	ctx context.Context,
	cfg *config.Config,
	pipeline services.PipelineService,
	incoming <-chan *domain.ChatMessage,
	log *zap.SugaredLogger,
	ingestErr <-chan error,
) {
	ticker := time.NewTicker(cfg.Analyzer.FlushInterval)
	defer ticker.Stop()

	batch := make([]*domain.ChatMessage, 0, cfg.Analyzer.BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		results := pipeline.ProcessBatch(ctx, batch)
		failed := 0
		for _, res := range results {
			if res.Err != nil {
				failed++
			}
		}
		if failed > 0 {
			log.Errorw("batch processed with failures", "total", len(results), "failed", failed)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case err := <-ingestErr:
			if err != nil && ctx.Err() == nil {
				log.Errorw("chat ingest terminated", "error", err)
			}
			flush()
			return

		case msg := <-incoming:
			batch = append(batch, msg)
			if len(batch) >= cfg.Analyzer.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

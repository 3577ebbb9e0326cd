package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"botagent/internal/history"
	"botagent/internal/http/handlers"
	httpapi "botagent/internal/http/httpapi"
	"botagent/internal/infra"
	"botagent/internal/pipeline"
	"botagent/internal/providers/genai"
	"botagent/internal/providers/image"
	"botagent/internal/providers/script"
	"botagent/internal/providers/speech"
	"botagent/internal/providers/video"
	"botagent/internal/schedule"
	"botagent/internal/state"
	"botagent/internal/storage"
	"botagent/internal/topics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Durable state backend
	var store state.Store
	switch cfg.StateBackend {
	case infra.StateBackendRedis:
		client, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer client.Close()
		store = state.NewRedisStore(client, "botagent:")
	default:
		pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		pg := state.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure schema")
		}
		store = pg
	}

	blobs, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open blob storage")
	}

	gemini, err := genai.NewClient(genai.Options{
		APIKey:       cfg.GeminiAPIKey,
		BaseURL:      cfg.GeminiBaseURL,
		TextModel:    cfg.GeminiTextModel,
		SpeechModel:  cfg.GeminiSpeechModel,
		ImageModel:   cfg.GeminiImageModel,
		VideoModel:   cfg.GeminiVideoModel,
		Logger:       &logger,
		PollInterval: cfg.VideoPollInterval,
		VideoTimeout: cfg.VideoTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build gemini client")
	}

	hist := history.New(store)
	if err := hist.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load history")
	}
	ledger := schedule.NewLedger(store)
	if err := ledger.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load run ledger")
	}
	tracker := schedule.NewTracker()

	pipe, err := pipeline.New(pipeline.Options{
		Script:       script.NewGemini(gemini),
		Speech:       speech.NewGemini(gemini),
		Images:       image.NewGemini(gemini),
		Videos:       video.NewGemini(gemini),
		Blobs:        blobs,
		History:      hist,
		Tracker:      tracker,
		Topics:       topics.NewTrending(0),
		Logger:       logger,
		SegmentDelay: cfg.SegmentDelay,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build pipeline")
	}

	scheduler := schedule.New(schedule.Options{
		Store:           store,
		Ledger:          ledger,
		Tracker:         tracker,
		Runner:          pipe,
		Logger:          logger,
		TickInterval:    cfg.TickInterval,
		LedgerRetention: cfg.LedgerRetention,
	})
	if err := scheduler.LoadState(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to load scheduler state")
	}

	app := &handlers.App{
		Scheduler: scheduler,
		Pipeline:  pipe,
		History:   hist,
		Blobs:     blobs,
		Logger:    logger,
	}
	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app))

	go scheduler.Run(ctx)

	go func() {
		logger.Info().Msgf("agent listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	scheduler.Wait()
	logger.Info().Msg("agent stopped")
}

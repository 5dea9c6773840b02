package cli

import (
	"fmt"
	"log/slog"

	"github.com/bnema/retell/config"
	"github.com/bnema/retell/internal/adapter/llm"
	"github.com/bnema/retell/internal/adapter/media/ffmpeg"
	"github.com/bnema/retell/internal/adapter/speech/azure"
	"github.com/bnema/retell/internal/adapter/storage/jobfs"
	sqlitestore "github.com/bnema/retell/internal/adapter/storage/sqlite"
	"github.com/bnema/retell/internal/adapter/video/sora"
	"github.com/bnema/retell/internal/service"
)

// app holds the wired adapters and services for one command invocation.
type app struct {
	db       *sqlitestore.Store
	store    *jobfs.Store
	ledger   *sqlitestore.JobQueue
	events   *service.EventBus
	pipeline *service.Pipeline
	jobs     *service.JobService
}

func newApp(cfg *config.Config, log *slog.Logger) (*app, error) {
	db, err := sqlitestore.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	store, err := jobfs.NewStore(cfg.DataDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open job store: %w", err)
	}

	a := &app{
		db:     db,
		store:  store,
		ledger: sqlitestore.NewJobQueue(db),
		events: service.NewEventBus(),
	}

	deps := service.PipelineDeps{
		Store:  a.store,
		Ledger: a.ledger,
		Media:  ffmpeg.NewTool(),
		Events: a.events,
		Logger: log,
	}

	if cfg.SpeechConfigured() {
		client := azure.NewClient(cfg.AzureSpeechKey, cfg.AzureSpeechRegion, log)
		deps.STT = azure.NewRecognizer(client)
		deps.TTS = azure.NewSynthesizer(client)
	} else {
		log.Warn("app.speech.disabled", "reason", "AZURE_SPEECH_KEY or AZURE_SPEECH_REGION not set")
	}

	if cfg.LLMConfigured() {
		rw, err := llm.NewRewriter(cfg)
		if err != nil {
			log.Warn("app.llm.disabled", "provider", cfg.LLMProvider, "error", err)
		} else {
			deps.Rewriter = rw
			log.Info("app.llm.enabled", "provider", cfg.LLMProvider, "model", rw.Model())
		}
	} else {
		log.Warn("app.llm.disabled", "provider", cfg.LLMProvider, "reason", "provider not configured")
	}

	if cfg.SoraConfigured() {
		deps.Visual = sora.NewGenerator(cfg.SoraEndpoint, cfg.SoraAPIKey, sora.DefaultOptions(), log)
	} else if cfg.Visual.Source == config.VisualGenerated {
		log.Warn("app.visual.generator_unavailable", "reason", "SORA_ENDPOINT or SORA_API_KEY not set")
	}

	a.pipeline = service.NewPipeline(deps, service.PipelineConfig{
		STTLanguage:      cfg.STTLanguage,
		BackgroundMusic:  cfg.Assets.BackgroundMusic,
		VisualSource:     cfg.Visual.Source,
		SubstituteVisual: cfg.Assets.SubstituteVisual,
	})
	a.jobs = service.NewJobService(a.store, a.ledger, a.pipeline, log)
	return a, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

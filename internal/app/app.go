package app

import (
	"context"
	"fmt"
	"os"

	"github.com/tutorstack/content-backend/internal/curriculum"
	httpapi "github.com/tutorstack/content-backend/internal/http"
	httpH "github.com/tutorstack/content-backend/internal/http/handlers"
	"github.com/tutorstack/content-backend/internal/platform/gcs"
	"github.com/tutorstack/content-backend/internal/platform/gemini"
	"github.com/tutorstack/content-backend/internal/platform/logger"
	"github.com/tutorstack/content-backend/internal/textstore"
)

type App struct {
	Log        *logger.Logger
	Cfg        Config
	Store      gcs.ObjectStore
	Model      gemini.Client
	Curriculum *curriculum.Service
	Server     *httpapi.Server
}

// New wires the process once at startup: the storage and model clients are
// constructed here and injected by reference, never as ambient state. Client
// init failures are fatal.
func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	store, err := gcs.NewBucketStore(context.Background(), log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init object store: %w", err)
	}

	model, err := gemini.NewClient(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init model client: %w", err)
	}

	pipeline := curriculum.NewPipeline(log, store, model, cfg.ContentRoot, cfg.ChunksPerDocument, cfg.ExtractParallelism)
	curriculumService := curriculum.NewService(log, store, pipeline, curriculum.ServiceConfig{
		ContentRoot:       cfg.ContentRoot,
		GenerationTimeout: cfg.GenerationTimeout,
		SingleFlight:      cfg.SingleFlight,
	})

	texts := textstore.New()

	server := httpapi.NewServer(httpapi.RouterConfig{
		CurriculumHandler: httpH.NewCurriculumHandler(log, curriculumService),
		TextHandler:       httpH.NewTextHandler(log, texts),
		AllowOrigins:      cfg.AllowOrigins,
	})

	return &App{
		Log:        log,
		Cfg:        cfg,
		Store:      store,
		Model:      model,
		Curriculum: curriculumService,
		Server:     server,
	}, nil
}

func (a *App) Run() error {
	a.Log.Info("Starting HTTP server", "addr", a.Cfg.Addr)
	return a.Server.Run(a.Cfg.Addr)
}

package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/yungbote/affirmpost-backend/internal/clients/graph"
	"github.com/yungbote/affirmpost-backend/internal/clients/openai"
	"github.com/yungbote/affirmpost-backend/internal/clients/s3"
	"github.com/yungbote/affirmpost-backend/internal/data/db"
	"github.com/yungbote/affirmpost-backend/internal/data/repos"
	"github.com/yungbote/affirmpost-backend/internal/handlers"
	"github.com/yungbote/affirmpost-backend/internal/media"
	"github.com/yungbote/affirmpost-backend/internal/pkg/env"
	"github.com/yungbote/affirmpost-backend/internal/pkg/logger"
	"github.com/yungbote/affirmpost-backend/internal/profile"
	"github.com/yungbote/affirmpost-backend/internal/server"
	"github.com/yungbote/affirmpost-backend/internal/services"
)

// App wires the whole pipeline once so every entrypoint (HTTP server,
// one-shot poster, cron scheduler) shares the same construction path.
type App struct {
	Log      *logger.Logger
	DB       *gorm.DB // nil when DATABASE_URL is unset
	Pipeline services.PipelineService
	Profiles profile.Registry

	DefaultProfile string

	history repos.PostRecordRepo
}

func New() (*App, error) {
	_ = godotenv.Load()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	profiles, err := profile.NewRegistry(log)
	if err != nil {
		return nil, fmt.Errorf("init profiles: %w", err)
	}

	openaiClient, err := openai.NewClient(log)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}
	graphClient, err := graph.NewClient(log)
	if err != nil {
		return nil, fmt.Errorf("init graph client: %w", err)
	}
	bucket, err := s3.NewBucketService(log)
	if err != nil {
		return nil, fmt.Errorf("init bucket service: %w", err)
	}

	content, err := services.NewContentService(log, openaiClient)
	if err != nil {
		return nil, fmt.Errorf("init content service: %w", err)
	}
	composer, err := services.NewComposerService(log, media.NewRenderer(log))
	if err != nil {
		return nil, fmt.Errorf("init composer service: %w", err)
	}
	publisher, err := services.NewPublisherService(log, graphClient, bucket)
	if err != nil {
		return nil, fmt.Errorf("init publisher service: %w", err)
	}

	// Post history is optional. A missing or unreachable database degrades
	// to a warning, not a dead service.
	var (
		gdb     *gorm.DB
		history repos.PostRecordRepo
	)
	if os.Getenv("DATABASE_URL") != "" {
		gdb, err = db.NewPostgres(log)
		if err != nil {
			log.Warn("post history disabled", "error", err)
			gdb = nil
		} else {
			history = repos.NewPostRecordRepo(gdb, log)
		}
	}

	pipeline, err := services.NewPipelineService(log, profiles, content, composer, publisher, history)
	if err != nil {
		return nil, fmt.Errorf("init pipeline service: %w", err)
	}

	return &App{
		Log:            log,
		DB:             gdb,
		Pipeline:       pipeline,
		Profiles:       profiles,
		DefaultProfile: env.Get("DEFAULT_PROFILE", "classic", log),
		history:        history,
	}, nil
}

// Router builds the HTTP surface for the server entrypoint.
func (a *App) Router() (*gin.Engine, error) {
	generateHandler, err := handlers.NewGenerateHandler(a.Log, a.Pipeline, a.DefaultProfile)
	if err != nil {
		return nil, fmt.Errorf("init generate handler: %w", err)
	}

	var postsHandler *handlers.PostsHandler
	if a.history != nil {
		postsHandler, err = handlers.NewPostsHandler(a.Log, a.history)
		if err != nil {
			return nil, fmt.Errorf("init posts handler: %w", err)
		}
	}

	var origins []string
	if raw := os.Getenv("CORS_ALLOW_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return server.NewRouter(server.RouterConfig{
		GenerateHandler: generateHandler,
		PostsHandler:    postsHandler,
		AllowOrigins:    origins,
	}), nil
}

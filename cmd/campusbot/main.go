package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/campusbot/campusbot/internal/ai"
	"github.com/campusbot/campusbot/internal/chat"
	"github.com/campusbot/campusbot/internal/config"
	"github.com/campusbot/campusbot/internal/handler"
	"github.com/campusbot/campusbot/internal/job"
	"github.com/campusbot/campusbot/internal/knowledge"
	"github.com/campusbot/campusbot/internal/middleware"
	"github.com/campusbot/campusbot/internal/schedule"
	"github.com/campusbot/campusbot/internal/search"
	"github.com/campusbot/campusbot/internal/session"
	"github.com/campusbot/campusbot/internal/stats"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "campusbot",
		Short: "campus assistant backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run campusbot server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	ctx := context.Background()
	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("knowledge_path", cfg.Knowledge.Path),
		zap.String("session_backend", cfg.Session.Backend),
	)

	providerArgs := interface{}(cfg.AI.Data)
	if cfg.AI.Data == nil {
		providerArgs = cfg.AI
	}
	aiProvider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	generator := ai.NewGenerator(aiProvider, cfg.AI.Model)
	embedder := ai.NewEmbedder(aiProvider, cfg.AI.EmbedModel)
	embedder = ai.WrapLRUCacheToEmbedder(embedder, cfg.AI.EmbedCacheSize, time.Hour)

	builder := knowledge.NewBuilder(embedder)
	entries, err := builder.Build(ctx, cfg.Knowledge.Path)
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}
	store := knowledge.NewStore(entries)
	logutil.GetLogger(ctx).Info("knowledge base loaded", zap.Int("entries", store.Len()))

	engine := search.NewEngine(store, embedder, search.Config{
		TopK:                cfg.Search.TopK,
		SimilarityThreshold: cfg.Search.SimilarityThreshold,
		SemanticWeight:      cfg.Search.SemanticWeight,
		LexicalWeight:       cfg.Search.LexicalWeight,
	})

	idleTTL := time.Duration(cfg.Session.IdleTTLSeconds) * time.Second
	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.Redis.Addr,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		sessions = session.NewRedisStore(client, idleTTL)
	default:
		sessions = session.NewMemoryStore(idleTTL)
	}

	var recorder stats.Recorder = stats.Noop{}
	var sqliteRecorder *stats.SQLiteRecorder
	if cfg.Stats.Enable {
		sqliteRecorder, err = stats.NewSQLiteRecorder(cfg.Stats.DBPath)
		if err != nil {
			return fmt.Errorf("init stats recorder: %w", err)
		}
		recorder = sqliteRecorder
	}
	defer recorder.Close()

	orchestrator := chat.NewOrchestrator(sessions, chat.NewResolver(engine), engine, generator, recorder,
		chat.OrchestratorConfig{
			HistoryLimit: cfg.Session.HistoryLimit,
			TopK:         cfg.Search.TopK,
			GenTimeout:   time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		})

	deps := handler.RouterDeps{
		Chat:      handler.NewChatHandler(orchestrator),
		Sessions:  handler.NewSessionHandler(orchestrator),
		Search:    handler.NewSearchHandler(engine),
		Knowledge: handler.NewKnowledgeHandler(store, builder, cfg.Knowledge.Path),
	}

	extra := []gin.HandlerFunc{
		middleware.CORS(cfg.CORSOrigins),
		gzip.Gzip(gzip.DefaultCompression),
	}
	if cfg.RateLimitMS > 0 {
		extra = append(extra, middleware.RateLimit(time.Duration(cfg.RateLimitMS)*time.Millisecond))
	}

	webEngine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(extra...),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewSessionCleanupJob(sessions), "*/10 * * * *"); err != nil {
		return err
	}
	if sqliteRecorder != nil {
		if err := scheduler.AddJob(job.NewStatsCleanupJob(sqliteRecorder, cfg.Stats.RetentionDays), "30 3 * * *"); err != nil {
			return err
		}
	}
	scheduler.Start(runCtx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := webEngine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(ctx).Error("server error", zap.Error(err))
		}
	}()

	<-runCtx.Done()
	logutil.GetLogger(ctx).Info("server stopping...")
	return nil
}

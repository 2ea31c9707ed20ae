package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/askmydocs/askmydocs/internal/ai"
	"github.com/askmydocs/askmydocs/internal/config"
	"github.com/askmydocs/askmydocs/internal/db"
	"github.com/askmydocs/askmydocs/internal/embedcache"
	"github.com/askmydocs/askmydocs/internal/extract"
	"github.com/askmydocs/askmydocs/internal/filestore"
	"github.com/askmydocs/askmydocs/internal/handler"
	"github.com/askmydocs/askmydocs/internal/job"
	"github.com/askmydocs/askmydocs/internal/middleware"
	"github.com/askmydocs/askmydocs/internal/repo"
	"github.com/askmydocs/askmydocs/internal/schedule"
	"github.com/askmydocs/askmydocs/internal/searchindex"
	"github.com/askmydocs/askmydocs/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "askmydocs",
		Short: "askmydocs ingestion backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run askmydocs server",
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

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database, cfg.AI.EmbedDim); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("search_index", cfg.Search.Index),
		zap.String("embed_provider", cfg.AI.Provider),
	)

	userRepo := repo.NewUserRepo(database)
	docRepo := repo.NewDocumentRepo(database)
	chunkRepo := repo.NewChunkRepo(database)

	blobs, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	index, err := searchindex.NewElasticIndex(cfg.Search)
	if err != nil {
		return fmt.Errorf("init search index: %w", err)
	}
	ensureCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := index.EnsureIndex(ensureCtx); err != nil {
		return fmt.Errorf("ensure search index: %w", err)
	}

	provider, err := ai.NewEmbedProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	embedder := ai.NewEmbedder(provider, cfg.AI.EmbedModel)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.CacheSize,
		time.Duration(cfg.AI.CacheTTLMins)*time.Minute)

	chunker, err := extract.NewChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("init chunker: %w", err)
	}

	ingestService, err := service.NewIngestService(
		docRepo, chunkRepo, blobs, index,
		extract.NewDocExtractor(), chunker, embedder,
		cfg.Ingest.EmbedWorkers, cfg.AI.EmbedDim,
	)
	if err != nil {
		return fmt.Errorf("init ingest service: %w", err)
	}
	defer ingestService.Close()
	documentService := service.NewDocumentService(docRepo, chunkRepo, blobs, index)
	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	queryService := service.NewQueryService(embedder)

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Documents: handler.NewDocumentHandler(ingestService, documentService),
		Query:     handler.NewQueryHandler(queryService),
		Health:    handler.NewHealthHandler(database, index, blobs, embedder),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(),
			middleware.RequestID(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if cfg.Reconcile.Enable {
		reindex := job.NewReindexJob(docRepo, chunkRepo, index, cfg.Reconcile.BatchSize)
		if err := scheduler.AddJob(reindex, cfg.Reconcile.Cron); err != nil {
			return fmt.Errorf("schedule reindex job: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

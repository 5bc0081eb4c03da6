// Package container wires every component this application builds into a
// dig.Container, the teacher's BuildContainer shape applied to this
// domain's repositories, orchestrators, and handlers.
package container

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kbvault/kbvault/internal/acl"
	"github.com/kbvault/kbvault/internal/chunkers"
	"github.com/kbvault/kbvault/internal/config"
	"github.com/kbvault/kbvault/internal/handler"
	"github.com/kbvault/kbvault/internal/identity"
	"github.com/kbvault/kbvault/internal/ingest"
	"github.com/kbvault/kbvault/internal/jobs"
	"github.com/kbvault/kbvault/internal/metrics"
	"github.com/kbvault/kbvault/internal/models"
	"github.com/kbvault/kbvault/internal/query"
	"github.com/kbvault/kbvault/internal/rag"
	"github.com/kbvault/kbvault/internal/repository"
	"github.com/kbvault/kbvault/internal/retriever"
	"github.com/kbvault/kbvault/internal/router"
	densestore "github.com/kbvault/kbvault/internal/store/dense"
	sparsestore "github.com/kbvault/kbvault/internal/store/sparse"
	"github.com/kbvault/kbvault/internal/types"
	"github.com/kbvault/kbvault/internal/types/interfaces"
)

// Build registers every provider this application needs into container,
// mirroring the teacher's BuildContainer but over this domain's component
// set: config, database, stores, model registry, repositories,
// orchestrators, jobs, handlers, and the router.
func Build(container *dig.Container) *dig.Container {
	must(container.Provide(config.Load))
	must(container.Provide(initDatabase))
	must(container.Provide(initDenseStore))
	must(container.Provide(initSparseStore))
	must(container.Provide(initModelRegistry))
	must(container.Provide(initChunkerRegistry))
	must(container.Provide(initRetrieverRegistry))
	must(container.Provide(initMetrics))

	must(container.Provide(extractResolveEmbedder))
	must(container.Provide(extractDefaultChat))
	must(container.Provide(extractDefaultReranker))

	must(container.Provide(initRateLimiter))
	must(container.Provide(identity.NewResolver, dig.As(new(interfaces.IdentityResolver))))

	must(container.Provide(repository.NewTenantRepository))
	must(container.Provide(repository.NewApiKeyRepository))
	must(container.Provide(repository.NewAdminTokenRepository))
	must(container.Provide(repository.NewKnowledgeBaseRepository))
	must(container.Provide(repository.NewDocumentRepository))
	must(container.Provide(repository.NewChunkRepository))

	must(container.Provide(initIngestOrchestrator, dig.As(new(interfaces.Ingestor))))
	must(container.Provide(initQueryOrchestrator, dig.As(new(interfaces.QueryEngine))))
	must(container.Provide(initRAGOrchestrator, dig.As(new(interfaces.Answerer))))

	must(container.Provide(initJobsConfig))
	must(container.Provide(jobs.NewRecoveryHandler))
	must(container.Provide(jobs.NewMux))
	must(container.Provide(jobs.NewServer))
	must(container.Provide(jobs.NewScheduler))

	must(container.Provide(extractTenantConfig))
	must(container.Provide(handler.NewSystemHandler))
	must(container.Provide(handler.NewAdminHandler))
	must(container.Provide(handler.NewApiKeyHandler))
	must(container.Provide(handler.NewKnowledgeBaseHandler))
	must(container.Provide(handler.NewDocumentHandler))
	must(container.Provide(handler.NewRetrieveHandler))
	must(container.Provide(handler.NewRAGHandler))
	must(container.Provide(handler.NewOpenAIHandler))

	must(container.Provide(router.New))

	return container
}

func must(err error) {
	if err != nil {
		panic(fmt.Errorf("container: %w", err))
	}
}

// initDatabase opens the relational store and migrates every entity this
// application persists.
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Stores.Postgres.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(
		&types.Tenant{}, &types.ApiKey{}, &types.AdminToken{},
		&types.KnowledgeBase{}, &types.Document{}, &types.Chunk{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	pg := cfg.Stores.Postgres
	if pg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pg.MaxOpenConns)
	}
	if pg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pg.MaxIdleConns)
	}
	if pg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pg.ConnMaxLifetime)
	}
	return db, nil
}

func initDenseStore(db *gorm.DB) (interfaces.DenseStore, error) {
	store := densestore.New(db)
	if err := store.AutoMigrate(context.Background()); err != nil {
		return nil, fmt.Errorf("migrate dense store: %w", err)
	}
	return store, nil
}

func initSparseStore(cfg *config.Config) (interfaces.SparseStore, error) {
	return sparsestore.New(cfg.Stores.Bleve.IndexPath)
}

// initModelRegistry builds every configured embedding/chat/rerank client.
func initModelRegistry(cfg *config.Config) (*models.Registry, error) {
	return models.NewRegistry(cfg.Models)
}

func extractResolveEmbedder(reg *models.Registry) func(string) (interfaces.Embedder, error) {
	return reg.ResolveEmbedder
}

func extractDefaultChat(reg *models.Registry) interfaces.Chat     { return reg.DefaultChat() }
func extractDefaultReranker(reg *models.Registry) interfaces.Reranker { return reg.DefaultReranker() }

func initChunkerRegistry() *chunkers.Registry {
	return chunkers.NewDefaultRegistry()
}

func initRetrieverRegistry(
	dense interfaces.DenseStore,
	sparse interfaces.SparseStore,
	chat interfaces.Chat,
	reranker interfaces.Reranker,
	chunks interfaces.ChunkRepository,
	resolveEmbedder func(string) (interfaces.Embedder, error),
) *retriever.Registry {
	return retriever.NewDefaultRegistry(retriever.Dependencies{
		DenseStore:      dense,
		SparseStore:     sparse,
		Chat:            chat,
		Reranker:        reranker,
		ChunkRepo:       chunks,
		ResolveEmbedder: resolveEmbedder,
	})
}

func initMetrics() *metrics.Counters {
	return metrics.New()
}

// initRateLimiter picks the memory or Redis limiter per config, degrading
// to the process-local memory limiter when no backend is configured.
func initRateLimiter(cfg *config.Config) interfaces.RateLimiter {
	if cfg.RateLimiter != nil && cfg.RateLimiter.Type == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimiter.Redis.Address,
			Password: cfg.RateLimiter.Redis.Password,
			DB:       cfg.RateLimiter.Redis.DB,
		})
		return identity.NewRedisLimiter(client, cfg.RateLimiter.Redis.Prefix)
	}
	return identity.NewMemoryLimiter()
}

func initIngestOrchestrator(
	docs interfaces.DocumentRepository,
	kbs interfaces.KnowledgeBaseRepository,
	tenants interfaces.TenantRepository,
	chunks interfaces.ChunkRepository,
	chunkerReg *chunkers.Registry,
	dense interfaces.DenseStore,
	sparse interfaces.SparseStore,
	resolveEmbedder func(string) (interfaces.Embedder, error),
) *ingest.Orchestrator {
	return ingest.NewOrchestrator(ingest.Config{}, docs, kbs, tenants, chunks, chunkerReg, dense, sparse, resolveEmbedder)
}

func initQueryOrchestrator(
	kbs interfaces.KnowledgeBaseRepository,
	chunks interfaces.ChunkRepository,
	retrievers *retriever.Registry,
	reranker interfaces.Reranker,
) *query.Orchestrator {
	return query.NewOrchestrator(kbs, chunks, retrievers, reranker)
}

func initRAGOrchestrator(engine interfaces.QueryEngine, chat interfaces.Chat) *rag.Orchestrator {
	return rag.NewOrchestrator(rag.Config{}, engine, chat)
}

func initJobsConfig(cfg *config.Config) jobs.Config {
	if cfg.Jobs == nil {
		return jobs.Config{}
	}
	return jobs.Config{
		Addr:              cfg.Jobs.Redis.Address,
		Password:          cfg.Jobs.Redis.Password,
		Concurrency:       cfg.Jobs.Concurrency,
		StaleAfterSeconds: cfg.Jobs.StaleAfterSeconds,
		ScanBatchSize:     cfg.Jobs.ScanBatchSize,
	}
}

func extractTenantConfig(cfg *config.Config) config.TenantConfig {
	if cfg.Tenant == nil {
		return config.TenantConfig{DefaultKBQuota: types.Unlimited, DefaultDocQuota: types.Unlimited, DefaultStorageMB: types.Unlimited}
	}
	return *cfg.Tenant
}

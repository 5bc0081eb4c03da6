// Package config loads the application's configuration tree once at
// startup into an immutable *Config, passed explicitly into constructors.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the application's total configuration.
type Config struct {
	Server      *ServerConfig        `yaml:"server" json:"server"`
	Tenant      *TenantConfig        `yaml:"tenant" json:"tenant"`
	KB          *KnowledgeBaseConfig `yaml:"knowledge_base" json:"knowledge_base"`
	Retrieval   *RetrievalConfig     `yaml:"retrieval" json:"retrieval"`
	Models      []ModelConfig        `yaml:"models" json:"models"`
	RateLimiter *RateLimiterConfig   `yaml:"rate_limiter" json:"rate_limiter"`
	Stores      *StoresConfig        `yaml:"stores" json:"stores"`
	Jobs        *JobsConfig          `yaml:"jobs" json:"jobs"`
	Admin       *AdminConfig         `yaml:"admin" json:"admin"`
}

// AdminConfig configures the bootstrap admin-token check: a fixed token
// from config/environment that is always valid, so the first tenant can
// be created before any AdminToken row exists.
type AdminConfig struct {
	BootstrapToken string `yaml:"bootstrap_token" json:"bootstrap_token"`
}

// JobsConfig configures the asynq-backed stale-chunk recovery job,
// sharing its Redis connection shape with RateLimiterConfig.Redis.
type JobsConfig struct {
	Redis             RedisConfig `yaml:"redis" json:"redis"`
	Concurrency       int         `yaml:"concurrency" json:"concurrency"`
	StaleAfterSeconds int64       `yaml:"stale_after_seconds" json:"stale_after_seconds"`
	ScanBatchSize     int         `yaml:"scan_batch_size" json:"scan_batch_size"`
	RecoveryCron      string      `yaml:"recovery_cron" json:"recovery_cron"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int           `yaml:"port" json:"port"`
	Host            string        `yaml:"host" json:"host"`
	LogPath         string        `yaml:"log_path" json:"log_path"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" default:"30s"`
}

// TenantConfig configures default tenant quotas applied when a tenant is
// created without explicit overrides.
type TenantConfig struct {
	DefaultKBQuota   int64 `yaml:"default_kb_quota" json:"default_kb_quota"`
	DefaultDocQuota  int64 `yaml:"default_doc_quota" json:"default_doc_quota"`
	DefaultStorageMB int64 `yaml:"default_storage_mb" json:"default_storage_mb"`
}

// KnowledgeBaseConfig configures default chunking behavior for newly
// created knowledge bases that don't specify their own.
type KnowledgeBaseConfig struct {
	DefaultChunkType    string `yaml:"default_chunk_type" json:"default_chunk_type"`
	DefaultChunkSize    int    `yaml:"default_chunk_size" json:"default_chunk_size"`
	DefaultChunkOverlap int    `yaml:"default_chunk_overlap" json:"default_chunk_overlap"`
}

// RetrievalConfig configures default retrieval/fusion behavior.
type RetrievalConfig struct {
	DefaultTopK     int     `yaml:"default_top_k" json:"default_top_k"`
	RRFK            int     `yaml:"rrf_k" json:"rrf_k"`
	VectorThreshold float64 `yaml:"vector_threshold" json:"vector_threshold"`
	RerankTopK      int     `yaml:"rerank_top_k" json:"rerank_top_k"`
}

// ModelConfig describes one configured embedding, chat, or rerank model.
// ID is the identifier a KnowledgeBase's EmbeddingConfig.ModelID, or an
// api-key's default, refers to; Default marks the model of its Type used
// when a request doesn't name one explicitly (e.g. the RAG Orchestrator's
// chat model, or the single configured reranker).
type ModelConfig struct {
	ID         string                 `yaml:"id" json:"id"`
	Type       string                 `yaml:"type" json:"type"` // embedding, chat, rerank
	Default    bool                   `yaml:"default" json:"default"`
	Source     string                 `yaml:"source" json:"source"`
	ModelName  string                 `yaml:"model_name" json:"model_name"`
	BaseURL    string                 `yaml:"base_url" json:"base_url"`
	APIKey     string                 `yaml:"api_key" json:"api_key"`
	Dimensions int                    `yaml:"dimensions" json:"dimensions"`
	Parameters map[string]interface{} `yaml:"parameters" json:"parameters"`
}

// RateLimiterConfig configures the identity & rate limiter component.
type RateLimiterConfig struct {
	Type              string      `yaml:"type" json:"type"` // memory, redis
	DefaultPerMinute  int         `yaml:"default_per_minute" json:"default_per_minute"`
	Redis             RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig configures the Redis connection shared by the rate limiter
// and the recovery job queue.
type RedisConfig struct {
	Address  string        `yaml:"address" json:"address"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// StoresConfig configures the dense and sparse backing stores.
type StoresConfig struct {
	Postgres PostgresConfig `yaml:"postgres" json:"postgres"`
	Bleve    BleveConfig    `yaml:"bleve" json:"bleve"`
}

// PostgresConfig configures the relational store and the pgvector dense store.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn" json:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	PoolWaitTimeout time.Duration `yaml:"pool_wait_timeout" json:"pool_wait_timeout" default:"5s"`
}

// BleveConfig configures the sparse/keyword store.
type BleveConfig struct {
	IndexPath string `yaml:"index_path" json:"index_path"`
}

// Load reads the configuration file, interpolates ${ENV_VAR} references,
// and decodes it into Config.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.kbvault")
	viper.AddConfigPath("/etc/kbvault/")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	raw, err := os.ReadFile(viper.ConfigFileUsed())
	if err != nil {
		return nil, fmt.Errorf("error reading config file content: %w", err)
	}

	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	interpolated := re.ReplaceAllStringFunc(string(raw), func(match string) string {
		envVar := match[2 : len(match)-1]
		if value := os.Getenv(envVar); value != "" {
			return value
		}
		return match
	})

	if err := viper.ReadConfig(strings.NewReader(interpolated)); err != nil {
		return nil, fmt.Errorf("error re-reading interpolated config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &cfg, nil
}

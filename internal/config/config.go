package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	FileStore   FileStoreConfig  `json:"file_store"`
	Search      SearchConfig     `json:"search"`
	AI          AIConfig         `json:"ai"`
	Ingest      IngestConfig     `json:"ingest"`
	Reconcile   ReconcileConfig  `json:"reconcile"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type SearchConfig struct {
	Addresses []string `json:"addresses"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Index     string   `json:"index"`
}

type AIConfig struct {
	Provider     string      `json:"provider"`
	Data         interface{} `json:"data"`
	EmbedModel   string      `json:"embed_model"`
	EmbedDim     int         `json:"embed_dim"`
	CacheSize    int         `json:"cache_size"`
	CacheTTLMins int         `json:"cache_ttl_mins"`
}

type IngestConfig struct {
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`
	EmbedWorkers int `json:"embed_workers"`
}

type ReconcileConfig struct {
	Enable    bool   `json:"enable"`
	Cron      string `json:"cron"`
	BatchSize int    `json:"batch_size"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.FileStore.Type == "" {
		return nil, fmt.Errorf("file_store.type is required")
	}
	if len(cfg.Search.Addresses) == 0 {
		return nil, fmt.Errorf("search.addresses is required")
	}
	if cfg.Search.Index == "" {
		cfg.Search.Index = "document_chunks"
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.EmbedDim == 0 {
		cfg.AI.EmbedDim = 384
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 1000
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 200
	}
	if cfg.Ingest.ChunkOverlap >= cfg.Ingest.ChunkSize {
		return nil, fmt.Errorf("ingest.chunk_overlap must be smaller than ingest.chunk_size")
	}
	if cfg.Ingest.EmbedWorkers == 0 {
		cfg.Ingest.EmbedWorkers = 4
	}
	if cfg.Reconcile.Cron == "" {
		cfg.Reconcile.Cron = "*/10 * * * *"
	}
	if cfg.Reconcile.BatchSize == 0 {
		cfg.Reconcile.BatchSize = 20
	}
	return &cfg, nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	CORSOrigins []string         `json:"cors_origins"`
	RateLimitMS int              `json:"rate_limit_ms"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Knowledge   KnowledgeConfig  `json:"knowledge"`
	AI          AIConfig         `json:"ai"`
	Search      SearchConfig     `json:"search"`
	Session     SessionConfig    `json:"session"`
	Stats       StatsConfig      `json:"stats"`
}

type KnowledgeConfig struct {
	Path string `json:"path"`
}

type AIConfig struct {
	Provider       string                 `json:"provider"`
	Model          string                 `json:"model"`
	EmbedModel     string                 `json:"embed_model"`
	TimeoutSeconds int                    `json:"timeout_seconds"`
	EmbedCacheSize int                    `json:"embed_cache_size"`
	Data           map[string]interface{} `json:"data"`
}

type SearchConfig struct {
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	SemanticWeight      float64 `json:"semantic_weight"`
	LexicalWeight       float64 `json:"lexical_weight"`
}

type SessionConfig struct {
	Backend        string      `json:"backend"`
	HistoryLimit   int         `json:"history_limit"`
	IdleTTLSeconds int         `json:"idle_ttl_seconds"`
	Redis          RedisConfig `json:"redis"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type StatsConfig struct {
	Enable        bool   `json:"enable"`
	DBPath        string `json:"db_path"`
	RetentionDays int    `json:"retention_days"`
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
	if cfg.Knowledge.Path == "" {
		return nil, fmt.Errorf("knowledge.path is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 30
	}
	if cfg.AI.EmbedCacheSize == 0 {
		cfg.AI.EmbedCacheSize = 4096
	}
	applySearchDefaults(&cfg.Search)
	if err := applySessionDefaults(&cfg.Session); err != nil {
		return nil, err
	}
	if cfg.Stats.Enable && cfg.Stats.DBPath == "" {
		return nil, fmt.Errorf("stats.db_path is required when stats are enabled")
	}
	if cfg.Stats.RetentionDays == 0 {
		cfg.Stats.RetentionDays = 90
	}
	return &cfg, nil
}

func applySearchDefaults(sc *SearchConfig) {
	if sc.TopK <= 0 {
		sc.TopK = 5
	}
	if sc.SimilarityThreshold == 0 {
		sc.SimilarityThreshold = 0.3
	}
	if sc.SemanticWeight == 0 && sc.LexicalWeight == 0 {
		sc.SemanticWeight = 0.7
		sc.LexicalWeight = 0.3
	}
}

func applySessionDefaults(sc *SessionConfig) error {
	if sc.Backend == "" {
		sc.Backend = "memory"
	}
	switch sc.Backend {
	case "memory":
	case "redis":
		if sc.Redis.Addr == "" {
			return fmt.Errorf("session.redis.addr is required for redis backend")
		}
	default:
		return fmt.Errorf("session.backend must be memory or redis")
	}
	if sc.HistoryLimit <= 0 {
		sc.HistoryLimit = 12
	}
	if sc.IdleTTLSeconds <= 0 {
		sc.IdleTTLSeconds = 3600
	}
	return nil
}

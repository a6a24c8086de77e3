package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Neo4j      Neo4jConfig      `mapstructure:"neo4j"`
	Whitespace WhitespaceConfig `mapstructure:"whitespace"`
	Otel       OtelConfig       `mapstructure:"otel"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Mode     string `mapstructure:"mode"`
	Level    string `mapstructure:"level"`
	HashSalt string `mapstructure:"hash_salt"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr string        `mapstructure:"addr"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type Neo4jConfig struct {
	URI      string        `mapstructure:"uri"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxPool  int           `mapstructure:"max_pool"`
}

type WhitespaceConfig struct {
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Clustering     string        `mapstructure:"clustering"`
	Layout         string        `mapstructure:"layout"`
	Seed           uint64        `mapstructure:"seed"`
	PersistTimeout time.Duration `mapstructure:"persist_timeout"`
	MaxGroups      int           `mapstructure:"max_groups"`
	AssigneeCache  int           `mapstructure:"assignee_cache"`
}

type OtelConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Environment string  `mapstructure:"environment"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

const (
	ClusteringModularity = "modularity"
	ClusteringThreshold  = "threshold"
	LayoutNeighbor       = "neighbor"
	LayoutLinear         = "linear"
)

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	configFile := strings.TrimSpace(os.Getenv("WHITESPACE_CONFIG_FILE"))
	explicit := configFile != ""
	if !explicit {
		configFile = "config/whitespace.yaml"
	}

	v.SetEnvPrefix("WHITESPACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional names used by docker-compose and the old deployment.
	_ = v.BindEnv("database.url", "WHITESPACE_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("redis.addr", "WHITESPACE_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("neo4j.uri", "WHITESPACE_NEO4J_URI", "NEO4J_URI")
	_ = v.BindEnv("neo4j.user", "WHITESPACE_NEO4J_USER", "NEO4J_USER")
	_ = v.BindEnv("neo4j.password", "WHITESPACE_NEO4J_PASSWORD", "NEO4J_PASSWORD")
	_ = v.BindEnv("log.mode", "WHITESPACE_LOG_MODE", "LOG_MODE")
	_ = v.BindEnv("otel.enabled", "WHITESPACE_OTEL_ENABLED", "OTEL_ENABLED")
	_ = v.BindEnv("otel.endpoint", "WHITESPACE_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("server.port", "WHITESPACE_SERVER_PORT", "PORT")
	_ = v.BindEnv("metrics.enabled", "WHITESPACE_METRICS_ENABLED", "METRICS_ENABLED")

	if _, err := os.Stat(configFile); err == nil {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if port := strings.TrimSpace(v.GetString("server.port")); port != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(port, ":")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("log.mode", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.ttl", 10*time.Minute)
	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.timeout", 10*time.Second)
	v.SetDefault("neo4j.max_pool", 50)
	v.SetDefault("whitespace.embedding_model", "")
	v.SetDefault("whitespace.clustering", ClusteringModularity)
	v.SetDefault("whitespace.layout", LayoutNeighbor)
	v.SetDefault("whitespace.seed", 42)
	v.SetDefault("whitespace.persist_timeout", 2*time.Minute)
	v.SetDefault("whitespace.max_groups", 5)
	v.SetDefault("whitespace.assignee_cache", 1024)
	v.SetDefault("otel.service_name", "whitespace")
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.sample_ratio", 0.1)
	v.SetDefault("metrics.enabled", false)
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Whitespace.Clustering {
	case ClusteringModularity, ClusteringThreshold:
	default:
		errs = append(errs, fmt.Errorf("whitespace.clustering: unknown strategy %q", c.Whitespace.Clustering))
	}
	switch c.Whitespace.Layout {
	case LayoutNeighbor, LayoutLinear:
	default:
		errs = append(errs, fmt.Errorf("whitespace.layout: unknown strategy %q", c.Whitespace.Layout))
	}
	if c.Whitespace.MaxGroups <= 0 {
		errs = append(errs, errors.New("whitespace.max_groups must be positive"))
	}
	if c.Whitespace.PersistTimeout <= 0 {
		errs = append(errs, errors.New("whitespace.persist_timeout must be positive"))
	}
	if c.Otel.SampleRatio < 0 || c.Otel.SampleRatio > 1 {
		errs = append(errs, errors.New("otel.sample_ratio must be within [0,1]"))
	}
	return errors.Join(errs...)
}

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig              `json:"server"`
	Database  DatabaseConfig            `json:"database"`
	Redis     RedisConfig               `json:"redis"`
	Providers map[string]ProviderConfig `json:"providers"`
	Chat      ChatConfig                `json:"chat"`
	MCP       MCPConfig                 `json:"mcp"`
	Trace     TraceConfig               `json:"trace"`
}

type ServerConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	JWTSecret string `json:"jwt_secret,omitempty"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// ProviderConfig holds the credential and endpoint for one provider family.
type ProviderConfig struct {
	APIKey  string        `json:"api_key,omitempty"`
	BaseURL string        `json:"base_url,omitempty"`
	Timeout time.Duration `json:"timeout"`
}

type ChatConfig struct {
	// MaxHistory caps the memory snapshot's conversation history.
	MaxHistory int `json:"max_history"`
	// ContextWindow is the number of recent entries sent to the model.
	// Must not exceed MaxHistory.
	ContextWindow int           `json:"context_window"`
	MemoryTTL     time.Duration `json:"memory_ttl"`
	MaxTokens     int           `json:"max_tokens"`
	Temperature   float32       `json:"temperature"`
}

type MCPConfig struct {
	Timeout time.Duration `json:"timeout"`
}

type TraceConfig struct {
	PublicKey string `json:"public_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
	Host      string `json:"host"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".parley"))
	}

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "parley")
	viper.SetDefault("database.database", "parley")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("chat.max_history", 50)
	viper.SetDefault("chat.context_window", 10)
	viper.SetDefault("chat.memory_ttl", time.Hour)
	viper.SetDefault("chat.max_tokens", 4000)
	viper.SetDefault("chat.temperature", 0.7)
	viper.SetDefault("mcp.timeout", 30*time.Second)
	viper.SetDefault("trace.host", "https://cloud.langfuse.com")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := defaultConfig()
			loadEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyProviderDefaults(&cfg)
	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:      "localhost",
			Port:      8080,
			JWTSecret: "dev-secret-change-me",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "parley",
			Database: "parley",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Providers: map[string]ProviderConfig{
			"openai":    {},
			"anthropic": {},
		},
		Chat: ChatConfig{
			MaxHistory:    50,
			ContextWindow: 10,
			MemoryTTL:     time.Hour,
			MaxTokens:     4000,
			Temperature:   0.7,
		},
		MCP: MCPConfig{
			Timeout: 30 * time.Second,
		},
		Trace: TraceConfig{
			Host: "https://cloud.langfuse.com",
		},
	}
	applyProviderDefaults(cfg)
	return cfg
}

func applyProviderDefaults(cfg *Config) {
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	for _, name := range []string{"openai", "anthropic"} {
		pc := cfg.Providers[name]
		if pc.Timeout == 0 {
			pc.Timeout = 30 * time.Second
		}
		cfg.Providers[name] = pc
	}
}

func loadEnvOverrides(cfg *Config) {
	if port := os.Getenv("PARLEY_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("PARLEY_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if secret := os.Getenv("PARLEY_JWT_SECRET"); secret != "" {
		cfg.Server.JWTSecret = secret
	}

	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("POSTGRES_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = port
		}
	}
	if dbUser := os.Getenv("POSTGRES_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPass := os.Getenv("POSTGRES_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if dbName := os.Getenv("POSTGRES_DB"); dbName != "" {
		cfg.Database.Database = dbName
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		pc := cfg.Providers["openai"]
		pc.APIKey = key
		cfg.Providers["openai"] = pc
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		pc := cfg.Providers["anthropic"]
		pc.APIKey = key
		cfg.Providers["anthropic"] = pc
	}

	if key := os.Getenv("LANGFUSE_PUBLIC_KEY"); key != "" {
		cfg.Trace.PublicKey = key
	}
	if key := os.Getenv("LANGFUSE_SECRET_KEY"); key != "" {
		cfg.Trace.SecretKey = key
	}
	if host := os.Getenv("LANGFUSE_HOST"); host != "" {
		cfg.Trace.Host = host
	}
}

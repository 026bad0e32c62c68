package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env         string `mapstructure:"APP_ENV"`
	Port        string `mapstructure:"PORT"`
	ServiceName string `mapstructure:"SERVICE_NAME"`
	Version     string `mapstructure:"APP_VERSION"`
	AppURL      string `mapstructure:"APP_URL"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBDSN      string `mapstructure:"DATABASE_URL"`
	DBHost     string `mapstructure:"POSTGRES_HOST"`
	DBPort     string `mapstructure:"POSTGRES_PORT"`
	DBUser     string `mapstructure:"POSTGRES_USER"`
	DBPassword string `mapstructure:"POSTGRES_PASSWORD"`
	DBName     string `mapstructure:"POSTGRES_NAME"`
	DBSSLMode  string `mapstructure:"POSTGRES_SSLMODE"`

	JWTSecret   string        `mapstructure:"PLATFORM_JWT_SECRET"`
	JWTAudience string        `mapstructure:"PLATFORM_JWT_AUDIENCE"`
	JWTIssuer   string        `mapstructure:"PLATFORM_JWT_ISSUER"`
	JWTLeeway   time.Duration `mapstructure:"PLATFORM_JWT_LEEWAY"`

	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	WebhookSecret  string `mapstructure:"WEBHOOK_SECRET"`

	RateLimitWindow  time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`
	RateLimitChat    int           `mapstructure:"RATE_LIMIT_CHAT"`
	RateLimitSpeech  int           `mapstructure:"RATE_LIMIT_TTS"`
	RateLimitWebhook int           `mapstructure:"RATE_LIMIT_WEBHOOK"`
	WebhookLockTTL   time.Duration `mapstructure:"WEBHOOK_LOCK_TTL"`

	ChunkMaxLength       int     `mapstructure:"KNOWLEDGE_CHUNK_MAX_LENGTH"`
	EmbedConcurrency     int     `mapstructure:"KNOWLEDGE_EMBED_CONCURRENCY"`
	MatchThreshold       float64 `mapstructure:"KNOWLEDGE_MATCH_THRESHOLD"`
	MatchCount           int     `mapstructure:"KNOWLEDGE_MATCH_COUNT"`
	KnowledgeScanLimit   int     `mapstructure:"KNOWLEDGE_SCAN_LIMIT"`
	KnowledgeMaxUploadMB int     `mapstructure:"KNOWLEDGE_MAX_UPLOAD_MB"`

	ChatHistoryLimit   int `mapstructure:"CHAT_HISTORY_LIMIT"`
	ChatKnowledgeLimit int `mapstructure:"CHAT_KNOWLEDGE_CHARS"`

	VectorProvider string `mapstructure:"VECTOR_PROVIDER"`

	SeedConfigPath string `mapstructure:"SEED_CONFIG_PATH"`
}

var configDefaults = map[string]any{
	"APP_ENV":                     "development",
	"PORT":                        "8080",
	"SERVICE_NAME":                "memberhub-backend",
	"APP_VERSION":                 "",
	"APP_URL":                     "http://localhost:5173",
	"DB_DRIVER":                   "postgres",
	"DATABASE_URL":                "",
	"POSTGRES_HOST":               "localhost",
	"POSTGRES_PORT":               "5432",
	"POSTGRES_USER":               "postgres",
	"POSTGRES_PASSWORD":           "",
	"POSTGRES_NAME":               "memberhub",
	"POSTGRES_SSLMODE":            "disable",
	"PLATFORM_JWT_SECRET":         "",
	"PLATFORM_JWT_AUDIENCE":       "",
	"PLATFORM_JWT_ISSUER":         "",
	"PLATFORM_JWT_LEEWAY":         "30s",
	"ALLOWED_ORIGINS":             "",
	"WEBHOOK_SECRET":              "",
	"RATE_LIMIT_WINDOW":           "1m",
	"RATE_LIMIT_CHAT":             20,
	"RATE_LIMIT_TTS":              20,
	"RATE_LIMIT_WEBHOOK":          120,
	"WEBHOOK_LOCK_TTL":            "30s",
	"KNOWLEDGE_CHUNK_MAX_LENGTH":  1000,
	"KNOWLEDGE_EMBED_CONCURRENCY": 4,
	"KNOWLEDGE_MATCH_THRESHOLD":   0.5,
	"KNOWLEDGE_MATCH_COUNT":       5,
	"KNOWLEDGE_SCAN_LIMIT":        5000,
	"KNOWLEDGE_MAX_UPLOAD_MB":     20,
	"CHAT_HISTORY_LIMIT":          20,
	"CHAT_KNOWLEDGE_CHARS":        6000,
	"VECTOR_PROVIDER":             "",
	"SEED_CONFIG_PATH":            "config/seed.yaml",
}

// LoadConfig reads app.env from path (CONFIG_PATH, default ".") when present, then lets the
// process environment override it. Keys found only in the file are exported to the
// environment so platform adapters reading their own env see them too.
func LoadConfig(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		path = "."
	}
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	for k, def := range configDefaults {
		v.SetDefault(k, def)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		exportFileKeys(v)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func exportFileKeys(v *viper.Viper) {
	for _, k := range v.AllKeys() {
		name := strings.ToUpper(k)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if _, isDefault := configDefaults[name]; isDefault && !v.InConfig(k) {
			continue
		}
		_ = os.Setenv(name, v.GetString(k))
	}
}

func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot.
type Config struct {
	App       AppConfig
	Discord   DiscordConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Assist    AssistConfig
	Kafka     KafkaConfig
	Auth      AuthConfig
	Telemetry TelemetryConfig
	Limits    LimitsConfig
}

// AppConfig controls process level behavior and the ops HTTP server.
type AppConfig struct {
	Name     string
	Env      string
	Version  string
	HTTPAddr string
}

// DiscordConfig identifies the bot and the guild objects it relies on.
type DiscordConfig struct {
	Token            string
	MainGuildID      string
	SupportGuildID   string
	StaffRoleID      string
	TicketCategoryID string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AssistConfig configures the optional AI completion provider.
type AssistConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float32
	TimeoutSeconds int
	TriggerPrefix  string
}

// KafkaConfig configures the optional lifecycle event stream.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	Username string
	Password string
}

// AuthConfig defines ops API authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AdminPasswordHash     string
	AccessTokenTTLMinutes int
}

// TelemetryConfig configures tracing export.
type TelemetryConfig struct {
	OTLPEndpoint string
	Insecure     bool
}

// LimitsConfig holds per-user throttles.
type LimitsConfig struct {
	AIRequestsPerMinute int
}

// Load reads configuration from environment variables, applying defaults where possible.
// envFiles are loaded first without overriding the environment; with none given
// ".env" is tried. All validation problems are reported together as a *ValidationError.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	verr := &ValidationError{}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		verr.add("REDIS_DB", "must be an integer")
	}

	temperature, err := strconv.ParseFloat(getEnv("OPENAI_TEMPERATURE", "0.7"), 32)
	if err != nil {
		verr.add("OPENAI_TEMPERATURE", "must be a number")
	}

	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "ticket-relay"),
			Env:      getEnv("APP_ENV", "development"),
			Version:  getEnv("APP_VERSION", "dev"),
			HTTPAddr: getEnv("HTTP_ADDR", "0.0.0.0:8080"),
		},
		Discord: DiscordConfig{
			Token:            strings.TrimSpace(os.Getenv("DISCORD_TOKEN")),
			MainGuildID:      strings.TrimSpace(os.Getenv("MAIN_GUILD_ID")),
			SupportGuildID:   strings.TrimSpace(os.Getenv("SUPPORT_GUILD_ID")),
			StaffRoleID:      strings.TrimSpace(os.Getenv("STAFF_ROLE_ID")),
			TicketCategoryID: strings.TrimSpace(os.Getenv("TICKET_CATEGORY_ID")),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Assist: AssistConfig{
			APIKey:         strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			BaseURL:        os.Getenv("OPENAI_BASE_URL"),
			Model:          getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			MaxTokens:      getEnvAsInt("OPENAI_MAX_TOKENS", 150),
			Temperature:    float32(temperature),
			TimeoutSeconds: getEnvAsInt("OPENAI_TIMEOUT_SECONDS", 20),
			TriggerPrefix:  getEnv("AI_TRIGGER_PREFIX", "ai:"),
		},
		Kafka: KafkaConfig{
			Brokers:  splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:    getEnv("KAFKA_TOPIC", "ticket-events"),
			Username: os.Getenv("KAFKA_USERNAME"),
			Password: os.Getenv("KAFKA_PASSWORD"),
		},
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			AdminPasswordHash:     os.Getenv("AUTH_ADMIN_PASSWORD_HASH"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Insecure:     getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
		Limits: LimitsConfig{
			AIRequestsPerMinute: getEnvAsInt("AI_RATE_LIMIT_PER_MINUTE", 5),
		},
	}

	cfg.validate(verr)
	if verr.HasProblems() {
		return nil, verr
	}
	return cfg, nil
}

func (c *Config) validate(verr *ValidationError) {
	if c.Discord.Token == "" {
		verr.add("DISCORD_TOKEN", "is required")
	}
	requireSnowflake(verr, "MAIN_GUILD_ID", c.Discord.MainGuildID)
	requireSnowflake(verr, "SUPPORT_GUILD_ID", c.Discord.SupportGuildID)
	requireSnowflake(verr, "STAFF_ROLE_ID", c.Discord.StaffRoleID)
	requireSnowflake(verr, "TICKET_CATEGORY_ID", c.Discord.TicketCategoryID)

	if strings.TrimSpace(c.Assist.TriggerPrefix) == "" {
		verr.add("AI_TRIGGER_PREFIX", "must not be blank")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		verr.add("KAFKA_TOPIC", "is required when KAFKA_BROKERS is set")
	}
	if c.Auth.AdminPasswordHash != "" && c.Auth.JWTSecret == "" {
		verr.add("AUTH_JWT_SECRET", "is required when AUTH_ADMIN_PASSWORD_HASH is set")
	}
}

// AssistEnabled reports whether an AI provider credential was supplied.
func (a AssistConfig) AssistEnabled() bool {
	return a.APIKey != ""
}

// Timeout returns the provider request timeout.
func (a AssistConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the ops token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	if a.AccessTokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

func requireSnowflake(verr *ValidationError, key, val string) {
	if val == "" {
		verr.add(key, "is required")
		return
	}
	if _, err := strconv.ParseUint(val, 10, 64); err != nil {
		verr.add(key, "must be a numeric id")
	}
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Electives ElectivesConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ElectivesConfig tunes the elective status and recommendation engine.
type ElectivesConfig struct {
	Enabled bool
	// RequiredQuota is the number of distinct electives a class needs to be complete.
	RequiredQuota int
	// SuggestionLimit caps generated suggestions per class when callers do not override it.
	SuggestionLimit int
	// DefaultWeeklyHours is used when a school type has no configured weekly hour limit.
	DefaultWeeklyHours float64
	StatsCacheTTL      time.Duration
	RefreshWorkers     int
	RefreshRetries     int
	RefreshRetryDelay  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	quota := v.GetInt("ELECTIVE_REQUIRED_QUOTA")
	if quota <= 0 {
		quota = 3
	}
	limit := v.GetInt("ELECTIVE_SUGGESTION_LIMIT")
	if limit <= 0 {
		limit = 10
	}
	weekly := v.GetFloat64("ELECTIVE_DEFAULT_WEEKLY_HOURS")
	if weekly <= 0 {
		weekly = 30
	}
	cfg.Electives = ElectivesConfig{
		Enabled:            v.GetBool("ENABLE_ELECTIVES"),
		RequiredQuota:      quota,
		SuggestionLimit:    limit,
		DefaultWeeklyHours: weekly,
		StatsCacheTTL:      parseDuration(v.GetString("ELECTIVE_STATS_CACHE_TTL"), 5*time.Minute),
		RefreshWorkers:     v.GetInt("ELECTIVE_REFRESH_WORKERS"),
		RefreshRetries:     v.GetInt("ELECTIVE_REFRESH_RETRIES"),
		RefreshRetryDelay:  parseDuration(v.GetString("ELECTIVE_REFRESH_RETRY_DELAY"), 5*time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_schedule")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_ELECTIVES", true)
	v.SetDefault("ELECTIVE_REQUIRED_QUOTA", 3)
	v.SetDefault("ELECTIVE_SUGGESTION_LIMIT", 10)
	v.SetDefault("ELECTIVE_DEFAULT_WEEKLY_HOURS", 30)
	v.SetDefault("ELECTIVE_STATS_CACHE_TTL", "5m")
	v.SetDefault("ELECTIVE_REFRESH_WORKERS", 1)
	v.SetDefault("ELECTIVE_REFRESH_RETRIES", 1)
	v.SetDefault("ELECTIVE_REFRESH_RETRY_DELAY", "5s")
}

// viper reports a missing explicit config file as a path error, not ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

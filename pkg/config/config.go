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

	Redis           RedisConfig
	JWT             JWTConfig
	CORS            CORSConfig
	Log             LogConfig
	EnterpriseAPI   EnterpriseAPIConfig
	Lists           ListConfig
	SubsidyRequests SubsidyRequestsConfig
	Configuration   ConfigurationCacheConfig
	Reconcile       ReconcileConfig
	Sessions        SessionConfig
}

type RedisConfig struct {
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

// EnterpriseAPIConfig points at the remote enterprise API that owns subsidy request state.
type EnterpriseAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ListConfig tunes paginated list controllers.
type ListConfig struct {
	Debounce time.Duration
	PageSize int
}

// SubsidyRequestsConfig gates the request workflow per deployment and per enterprise.
type SubsidyRequestsConfig struct {
	Enabled             bool
	DisabledEnterprises []string
}

// EnabledFor reports whether the workflow is available to the given enterprise.
func (c SubsidyRequestsConfig) EnabledFor(enterpriseID string) bool {
	if !c.Enabled {
		return false
	}
	for _, id := range c.DisabledEnterprises {
		if strings.EqualFold(id, enterpriseID) {
			return false
		}
	}
	return true
}

// ConfigurationCacheConfig controls the read-through cache in front of configuration reads.
type ConfigurationCacheConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ReconcileConfig sizes the background worker that persists inferred channels.
type ReconcileConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// SessionConfig bounds the lifetime of mounted console sessions.
type SessionConfig struct {
	IdleTTL         time.Duration
	SweepInterval   time.Duration
	StreamHeartbeat time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
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

	cfg.EnterpriseAPI = EnterpriseAPIConfig{
		BaseURL: strings.TrimRight(v.GetString("ENTERPRISE_API_BASE_URL"), "/"),
		Timeout: parseDuration(v.GetString("ENTERPRISE_API_TIMEOUT"), 10*time.Second),
	}

	pageSize := v.GetInt("LIST_PAGE_SIZE")
	if pageSize <= 0 {
		pageSize = 25
	}
	cfg.Lists = ListConfig{
		Debounce: parseDuration(v.GetString("LIST_DEBOUNCE"), 250*time.Millisecond),
		PageSize: pageSize,
	}

	cfg.SubsidyRequests = SubsidyRequestsConfig{
		Enabled:             v.GetBool("ENABLE_SUBSIDY_REQUESTS"),
		DisabledEnterprises: splitAndTrim(v.GetString("SUBSIDY_REQUESTS_DISABLED_ENTERPRISES")),
	}

	cfg.Configuration = ConfigurationCacheConfig{
		CacheEnabled: v.GetBool("ENABLE_CONFIGURATION_CACHE"),
		CacheTTL:     parseDuration(v.GetString("CONFIGURATION_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Reconcile = ReconcileConfig{
		Workers:    v.GetInt("RECONCILE_WORKERS"),
		MaxRetries: v.GetInt("RECONCILE_RETRIES"),
		RetryDelay: parseDuration(v.GetString("RECONCILE_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Sessions = SessionConfig{
		IdleTTL:         parseDuration(v.GetString("SESSION_IDLE_TTL"), 30*time.Minute),
		SweepInterval:   parseDuration(v.GetString("SESSION_SWEEP_INTERVAL"), time.Minute),
		StreamHeartbeat: parseDuration(v.GetString("SESSION_STREAM_HEARTBEAT"), 30*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENTERPRISE_API_BASE_URL", "http://localhost:18000")
	v.SetDefault("ENTERPRISE_API_TIMEOUT", "10s")

	v.SetDefault("LIST_DEBOUNCE", "250ms")
	v.SetDefault("LIST_PAGE_SIZE", 25)

	v.SetDefault("ENABLE_SUBSIDY_REQUESTS", true)
	v.SetDefault("SUBSIDY_REQUESTS_DISABLED_ENTERPRISES", "")

	v.SetDefault("ENABLE_CONFIGURATION_CACHE", false)
	v.SetDefault("CONFIGURATION_CACHE_TTL", "5m")

	v.SetDefault("RECONCILE_WORKERS", 1)
	v.SetDefault("RECONCILE_RETRIES", 3)
	v.SetDefault("RECONCILE_RETRY_DELAY", "2s")

	v.SetDefault("SESSION_IDLE_TTL", "30m")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "1m")
	v.SetDefault("SESSION_STREAM_HEARTBEAT", "30s")
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

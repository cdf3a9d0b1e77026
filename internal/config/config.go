package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	CookieDomain  string
	// CookieSecure is forced on when Environment is production.
	CookieSecure bool
}

type LockoutConfig struct {
	Threshold int
	Window    time.Duration
	Duration  time.Duration
}

type TwoFactorConfig struct {
	Issuer  string
	CodeTTL time.Duration
}

type CSRFConfig struct {
	TokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
	// UseRedis switches to the shared-counter limiter so limits hold
	// across instances.
	UseRedis bool
}

type MailConfig struct {
	FromAddress string
	BaseURL     string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Auth             AuthConfig
	Lockout          LockoutConfig
	TwoFactor        TwoFactorConfig
	CSRF             CSRFConfig
	RateLimit        RateLimitConfig
	Mail             MailConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("SHOPLANE")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Environment == "production" {
		cfg.Auth.CookieSecure = true
		if cfg.Auth.AccessSecret == "" || cfg.Auth.RefreshSecret == "" {
			return nil, fmt.Errorf("auth secrets are required in production")
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.accessttl", "15m")
	v.SetDefault("auth.refreshttl", "168h") // 7 days
	v.SetDefault("auth.cookiesecure", false)

	v.SetDefault("lockout.threshold", 6)
	v.SetDefault("lockout.window", "15m")
	v.SetDefault("lockout.duration", "30m")

	v.SetDefault("twofactor.issuer", "Shoplane")
	v.SetDefault("twofactor.codettl", "5m")

	v.SetDefault("csrf.tokenttl", "24h")

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests", 60)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("ratelimit.useredis", false)

	v.SetDefault("mail.fromaddress", "no-reply@shoplane.dev")
	v.SetDefault("mail.baseurl", "http://localhost:8080")
}

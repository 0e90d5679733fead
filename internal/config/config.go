package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseURL        string
	RedisURL           string
	NATSURL            string
	JWTSecret          string
	OwnerPhone         string
	OwnerPassword      string
	SessionTTL         time.Duration
	CodeSessionTTL     time.Duration
	PaymentRequestTTL  time.Duration
	AccessCodeTTL      time.Duration
	CapabilityCacheTTL time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("DARSY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Darsy API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("session.ttl", "12h")
	v.SetDefault("code_session.ttl", "2h")
	v.SetDefault("payment_request.ttl", "8h")
	v.SetDefault("access_code.ttl", "24h")
	v.SetDefault("capability_cache.ttl", "60s")

	sessionTTL, err := parseTTL(v, "session.ttl")
	if err != nil {
		return Config{}, err
	}
	codeSessionTTL, err := parseTTL(v, "code_session.ttl")
	if err != nil {
		return Config{}, err
	}
	paymentTTL, err := parseTTL(v, "payment_request.ttl")
	if err != nil {
		return Config{}, err
	}
	accessCodeTTL, err := parseTTL(v, "access_code.ttl")
	if err != nil {
		return Config{}, err
	}
	capabilityTTL, err := parseTTL(v, "capability_cache.ttl")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		JWTSecret:          v.GetString("jwt.secret"),
		OwnerPhone:         v.GetString("owner.phone"),
		OwnerPassword:      v.GetString("owner.password"),
		SessionTTL:         sessionTTL,
		CodeSessionTTL:     codeSessionTTL,
		PaymentRequestTTL:  paymentTTL,
		AccessCodeTTL:      accessCodeTTL,
		CapabilityCacheTTL: capabilityTTL,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	return cfg, nil
}

func parseTTL(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	ttl, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return ttl, nil
}

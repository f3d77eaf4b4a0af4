package config

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application configuration resolved from .env and the environment.
type Config struct {
	Port      string
	Generator GeneratorConfig
	Auth      AuthConfig
	Credits   CreditsConfig
	RateLimit RateLimitConfig
}

type GeneratorConfig struct {
	Provider      string // openai or gemini
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiKey     string
	GeminiModel   string
	Temperature   float64
	Timeout       time.Duration
}

type AuthConfig struct {
	JWTSecret string
	JWKSURL   string
	Issuer    string
	Audience  string
}

type CreditsConfig struct {
	InitialGrant            int
	RefundOnUpstreamFailure bool
	Products                map[string]int
}

type RateLimitConfig struct {
	Backend string // memory or redis
	Max     int
	Window  time.Duration
}

// DefaultProducts maps store product ids to the number of credits they grant.
var DefaultProducts = map[string]int{
	"credits_5":  5,
	"credits_15": 15,
	"credits_50": 50,
}

var envBindings = map[string]string{
	"server.port":                        "PORT",
	"generator.provider":                 "GENERATOR_PROVIDER",
	"generator.timeout":                  "GENERATOR_TIMEOUT",
	"generator.temperature":              "GENERATOR_TEMPERATURE",
	"openai.api_key":                     "OPENAI_API_KEY",
	"openai.model":                       "OPENAI_MODEL",
	"openai.base_url":                    "OPENAI_BASE_URL",
	"gemini.api_key":                     "GEMINI_API_KEY",
	"gemini.model":                       "GEMINI_MODEL",
	"auth.jwt_secret":                    "JWT_SECRET_KEY",
	"auth.jwks_url":                      "AUTH_JWKS_URL",
	"auth.issuer":                        "AUTH_ISSUER",
	"auth.audience":                      "AUTH_AUDIENCE",
	"credits.initial_grant":              "INITIAL_CREDITS",
	"credits.refund_on_upstream_failure": "REFUND_ON_UPSTREAM_FAILURE",
	"credits.products":                   "CREDIT_PRODUCTS",
	"rate_limit.backend":                 "RATE_LIMIT_BACKEND",
	"rate_limit.max":                     "RATE_LIMIT_MAX",
	"rate_limit.window":                  "RATE_LIMIT_WINDOW",
	"database.host":                      "DATABASE_HOST",
	"database.port":                      "DATABASE_PORT",
	"database.user":                      "DATABASE_USER",
	"database.password":                  "DATABASE_PASSWORD",
	"database.name":                      "DATABASE_NAME",
	"database.ssl_mode":                  "DATABASE_SSL_MODE",
	"redis.host":                         "REDIS_HOST",
	"redis.port":                         "REDIS_PORT",
	"redis.password":                     "REDIS_PASSWORD",
	"redis.db":                           "REDIS_DB",
}

// Load reads .env (if present) and the environment into viper and returns
// the resolved Config. Environment variables override .env values.
func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	for key, env := range envBindings {
		viper.BindEnv(key, env)
	}
	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	return FromViper()
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("server.port", "3000")
	viper.SetDefault("generator.provider", "openai")
	viper.SetDefault("generator.timeout", 30*time.Second)
	viper.SetDefault("generator.temperature", 0.2)
	viper.SetDefault("openai.model", "gpt-4.1-mini")
	viper.SetDefault("openai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("credits.initial_grant", 7)
	viper.SetDefault("credits.refund_on_upstream_failure", true)
	viper.SetDefault("rate_limit.backend", "memory")
	viper.SetDefault("rate_limit.max", 20)
	viper.SetDefault("rate_limit.window", time.Minute)
}

// FromViper builds a Config from the current viper state.
func FromViper() *Config {
	products := DefaultProducts
	if raw := viper.GetString("credits.products"); raw != "" {
		parsed, err := ParseProducts(raw)
		if err != nil {
			log.Printf("Invalid CREDIT_PRODUCTS %q, using defaults: %v", raw, err)
		} else {
			products = parsed
		}
	}

	return &Config{
		Port: viper.GetString("server.port"),
		Generator: GeneratorConfig{
			Provider:      strings.ToLower(viper.GetString("generator.provider")),
			OpenAIKey:     viper.GetString("openai.api_key"),
			OpenAIModel:   viper.GetString("openai.model"),
			OpenAIBaseURL: viper.GetString("openai.base_url"),
			GeminiKey:     viper.GetString("gemini.api_key"),
			GeminiModel:   viper.GetString("gemini.model"),
			Temperature:   viper.GetFloat64("generator.temperature"),
			Timeout:       viper.GetDuration("generator.timeout"),
		},
		Auth: AuthConfig{
			JWTSecret: viper.GetString("auth.jwt_secret"),
			JWKSURL:   viper.GetString("auth.jwks_url"),
			Issuer:    viper.GetString("auth.issuer"),
			Audience:  viper.GetString("auth.audience"),
		},
		Credits: CreditsConfig{
			InitialGrant:            viper.GetInt("credits.initial_grant"),
			RefundOnUpstreamFailure: viper.GetBool("credits.refund_on_upstream_failure"),
			Products:                products,
		},
		RateLimit: RateLimitConfig{
			Backend: strings.ToLower(viper.GetString("rate_limit.backend")),
			Max:     viper.GetInt("rate_limit.max"),
			Window:  viper.GetDuration("rate_limit.window"),
		},
	}
}

// ParseProducts parses "id:amount" pairs separated by commas,
// e.g. "credits_5:5,credits_15:15".
func ParseProducts(raw string) (map[string]int, error) {
	products := make(map[string]int)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, amount, ok := strings.Cut(pair, ":")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, &ProductError{Pair: pair}
		}
		n, err := strconv.Atoi(strings.TrimSpace(amount))
		if err != nil || n <= 0 {
			return nil, &ProductError{Pair: pair}
		}
		products[strings.TrimSpace(id)] = n
	}
	if len(products) == 0 {
		return nil, &ProductError{Pair: raw}
	}
	return products, nil
}

// ProductError reports a malformed product catalog entry.
type ProductError struct {
	Pair string
}

func (e *ProductError) Error() string {
	return "malformed product entry " + strconv.Quote(e.Pair) + ", want id:amount with amount > 0"
}

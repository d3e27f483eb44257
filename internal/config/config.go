package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// defaultUserAgent mirrors a desktop Chrome UA. Reddit serves 403 to
// obvious bot agents on the unauthenticated JSON endpoints.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8090"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	// LLM providers
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	LLMModel        string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	RateLimitRPS    int    `env:"RATE_LIMIT_RPS" envDefault:"1"`

	// Reddit fetching
	RedditUserAgent string        `env:"REDDIT_USER_AGENT"`
	RedditTimeout   time.Duration `env:"REDDIT_TIMEOUT" envDefault:"15s"`
	RedditRPS       float64       `env:"REDDIT_RPS" envDefault:"1"`
	SubredditPause  time.Duration `env:"SUBREDDIT_PAUSE" envDefault:"1s"`

	// Outbound proxy
	ProxyEnabled  bool   `env:"PROXY_ENABLED" envDefault:"false"`
	ProxyType     string `env:"PROXY_TYPE" envDefault:"scraperapi"`
	ScraperAPIKey string `env:"SCRAPERAPI_KEY"`
	ProxyURL      string `env:"PROXY_URL"`

	// Scheduled discovery
	GlobalDiscoveryInterval time.Duration `env:"GLOBAL_DISCOVERY_INTERVAL" envDefault:"6h"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"2"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.RedditUserAgent == "" {
		cfg.RedditUserAgent = defaultUserAgent
	}

	return cfg, nil
}

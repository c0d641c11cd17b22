package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (TILES_ prefix), flags, or YAML config files.
type Config struct {
	Addr string `default:"0.0.0.0:8080" usage:"API server listen address"`
	// DatabaseURL selects the Postgres catalog. When empty the catalog is read
	// from CatalogFile, or the embedded default catalog is served.
	DatabaseURL string `usage:"PostgreSQL connection URL (TILES_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	CatalogFile string `usage:"Catalog JSON document, optionally gzipped" flag:"catalog-file"`
	Sessions    SessionsConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// SessionsConfig controls in-memory shopper sessions.
type SessionsConfig struct {
	IdleTimeout   time.Duration `default:"2h" usage:"Evict carts idle for this long" flag:"session-idle-timeout"`
	SweepInterval time.Duration `default:"1m" usage:"How often idle sessions are evicted" flag:"session-sweep-interval"`
	MaxSessions   int           `default:"100000" usage:"Maximum live sessions" flag:"max-sessions"`
}

// RateLimitConfig limits session creation per client.
type RateLimitConfig struct {
	Max    int           `default:"30" usage:"Sessions a client may create per window"`
	Window time.Duration `default:"1m" usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from command-line args, environment
// variables and YAML config files, then applies platform-specific defaults.
func LoadConfig(args []string) (*Config, error) {
	if args == nil {
		args = []string{}
	}
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		Args:      args,
		EnvPrefix: "TILES",
		Files:     []string{"config.yaml", "/etc/tiles/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults(os.Getenv)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the platform-provided DATABASE_URL and PORT
// variables onto the TILES_-prefixed configuration.
func (c *Config) applyPlatformDefaults(getenv func(string) string) {
	if c.DatabaseURL == "" {
		c.DatabaseURL = getenv("DATABASE_URL")
	}
	if port := getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL != "" && c.CatalogFile != "":
		return errors.New("database URL and catalog file are mutually exclusive")
	case c.Sessions.SweepInterval <= 0:
		return errors.Errorf("session sweep interval must be positive, got %s", c.Sessions.SweepInterval)
	}
	return nil
}

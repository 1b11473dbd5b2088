package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers understood by the repository layer.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the process configuration read from the environment.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"production"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// LogFormat is "text" or "json".
	LogFormat        string `envconfig:"LOG_FORMAT" default:"text"`
	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:"nexusbot"`
	Port             string `envconfig:"PORT" default:"8000"`

	DiscordToken string `envconfig:"DISCORD_TOKEN" required:"true"`

	StoreDriver    string `envconfig:"STORE_DRIVER" default:"postgres"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	DatabaseSchema string `envconfig:"DATABASE_SCHEMA" default:"public"`
	SQLitePath     string `envconfig:"SQLITE_PATH" default:"data/nexus.db"`
	RunMigrations  bool   `envconfig:"RUN_MIGRATIONS" default:"false"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisTLS      bool   `envconfig:"REDIS_TLS" default:"false"`

	VerificationChannelID string `envconfig:"VERIFICATION_CHANNEL_ID"`
	AdminRoleID           string `envconfig:"ADMIN_ROLE_ID"`
	TicketCategoryID      string `envconfig:"TICKET_CATEGORY_ID"`
	AnnouncementChannelID string `envconfig:"ANN_CHANNEL_ID"`
	RulesChannelID        string `envconfig:"RULES_CHANNEL_ID"`
	LinksChannelID        string `envconfig:"LINKS_CHANNEL_ID"`
	ShopInfoChannelID     string `envconfig:"SHOP_INFO_CHANNEL_ID"`
	EntryChannelID        string `envconfig:"ENTRY_CHANNEL_ID"`
	ExitChannelID         string `envconfig:"EXIT_CHANNEL_ID"`

	PresenceInterval time.Duration `envconfig:"PRESENCE_INTERVAL" default:"30s"`
	TicketCloseDelay time.Duration `envconfig:"TICKET_CLOSE_DELAY" default:"2s"`
	Timezone         string        `envconfig:"TIMEZONE" default:"Europe/Warsaw"`
	StoreWebsiteURL  string        `envconfig:"STORE_WEBSITE_URL" default:"https://myweb-psi-three.vercel.app"`
	BlikPhone        string        `envconfig:"BLIK_PHONE" default:"575 374 776"`
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process env")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DiscordToken) == "" {
		return errors.New("DISCORD_TOKEN is required")
	}
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the postgres store driver")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("SQLITE_PATH is required for the sqlite store driver")
		}
	default:
		return errors.Newf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.PresenceInterval <= 0 {
		return errors.New("PRESENCE_INTERVAL must be positive")
	}
	if c.TicketCloseDelay < 0 {
		return errors.New("TICKET_CLOSE_DELAY must not be negative")
	}
	return nil
}

// Location resolves the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ListenAddr is the liveness server address derived from PORT.
func (c *Config) ListenAddr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

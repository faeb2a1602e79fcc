// Package config reads stry.yaml, STRY_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Database string        `mapstructure:"database"`
	Logging  LoggingConfig `mapstructure:"logging"`
	Web      WebConfig     `mapstructure:"web"`
	Worker   WorkerConfig  `mapstructure:"worker"`
	Scraper  ScraperConfig `mapstructure:"scraper"`
	Importer ImportConfig  `mapstructure:"importer"`
	Watch    WatchConfig   `mapstructure:"watch"`
	Build    BuildConfig   `mapstructure:"build"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	Json  bool   `mapstructure:"json"`
}

type WebConfig struct {
	// Api is the base url of a remote stry API; empty reads the local database.
	Api       string        `mapstructure:"api"`
	Rate      float64       `mapstructure:"rate"`
	Burst     int           `mapstructure:"burst"`
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`

	// TrustedProxy reads client addresses from X-Forwarded-For.
	TrustedProxy bool `mapstructure:"trusted_proxy"`
}

type WorkerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type Delay struct {
	Min time.Duration `mapstructure:"min"`
	Max time.Duration `mapstructure:"max"`
}

type ScraperConfig struct {
	Browser bool  `mapstructure:"browser"`
	Retries int   `mapstructure:"retries"`
	Delay   Delay `mapstructure:"delay"`
}

type ImportConfig struct {
	Dir   string `mapstructure:"dir"`
	List  string `mapstructure:"list"`
	Delay Delay  `mapstructure:"delay"`
}

type WatchConfig struct {
	Paths    []string      `mapstructure:"paths"`
	Ignore   []string      `mapstructure:"ignore"`
	Command  string        `mapstructure:"command"`
	Debounce time.Duration `mapstructure:"debounce"`
}

type BuildConfig struct {
	Version string `mapstructure:"version"`
	Style   string `mapstructure:"style"`
	Script  string `mapstructure:"script"`
	Output  string `mapstructure:"output"`
	Debug   bool   `mapstructure:"debug"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8901)
	v.SetDefault("database", "stry.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)

	v.SetDefault("web.api", "")
	v.SetDefault("web.rate", 20.0)
	v.SetDefault("web.burst", 40)
	v.SetDefault("web.cache_size", 256)
	v.SetDefault("web.cache_ttl", 10*time.Minute)
	v.SetDefault("web.trusted_proxy", false)

	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.schedule", "@every 30s")

	v.SetDefault("scraper.browser", false)
	v.SetDefault("scraper.retries", 3)
	v.SetDefault("scraper.delay.min", 5*time.Second)
	v.SetDefault("scraper.delay.max", 10*time.Second)

	v.SetDefault("importer.dir", "import")
	v.SetDefault("importer.list", "stories.yaml")
	v.SetDefault("importer.delay.min", 10*time.Second)
	v.SetDefault("importer.delay.max", 30*time.Second)

	v.SetDefault("watch.paths", []string{"."})
	v.SetDefault("watch.ignore", []string{".git", "dist", "node_modules", "*.db", "*.db-*"})
	v.SetDefault("watch.command", "")
	v.SetDefault("watch.debounce", 200*time.Millisecond)

	v.SetDefault("build.version", "0.1.0")
	v.SetDefault("build.style", "assets/style.css")
	v.SetDefault("build.script", "assets/app.js")
	v.SetDefault("build.output", "dist/index.html")
	v.SetDefault("build.debug", false)
}

// Init points v at stry.yaml in the working directory or $HOME/.stry, or at
// file when it is set, and reads it. A missing default file is not an error.
func Init(v *viper.Viper, file string) error {
	SetDefaults(v)

	v.SetEnvPrefix("stry")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("stry")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.stry")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Scraper.Delay.Max < cfg.Scraper.Delay.Min {
		return nil, fmt.Errorf("scraper.delay.max %s is below scraper.delay.min %s", cfg.Scraper.Delay.Max, cfg.Scraper.Delay.Min)
	}
	if cfg.Importer.Delay.Max < cfg.Importer.Delay.Min {
		return nil, fmt.Errorf("importer.delay.max %s is below importer.delay.min %s", cfg.Importer.Delay.Max, cfg.Importer.Delay.Min)
	}
	return cfg, nil
}

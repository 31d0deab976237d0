package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/spotdeck/spotdeck/pkg/pipeline"
	"github.com/spotdeck/spotdeck/pkg/providers/describe"
	"github.com/spotdeck/spotdeck/pkg/providers/image"
)

// Config holds all user-tunable settings. Values are resolved in
// precedence order: command-line flags, then environment variables,
// then the TOML config file, then built-in defaults.
type Config struct {
	Order    int     `toml:"order"     env:"SPOTDECK_ORDER"`
	Theme    string  `toml:"theme"     env:"SPOTDECK_THEME"`
	PNGScale float64 `toml:"png_scale" env:"SPOTDECK_PNG_SCALE"`

	Concurrency       int `toml:"concurrency"         env:"SPOTDECK_CONCURRENCY"`
	RequestsPerMinute int `toml:"requests_per_minute" env:"SPOTDECK_REQUESTS_PER_MINUTE"`
	MaxAttempts       int `toml:"max_attempts"        env:"SPOTDECK_MAX_ATTEMPTS"`

	Describe DescribeConfig `toml:"describe"`
	Image    ImageConfig    `toml:"image"`
	Serve    ServeConfig    `toml:"serve"`
}

// DescribeConfig configures the symbol description provider.
type DescribeConfig struct {
	APIKey  string `toml:"api_key"  env:"SPOTDECK_DESCRIBE_API_KEY"`
	BaseURL string `toml:"base_url" env:"SPOTDECK_DESCRIBE_BASE_URL"`
	Model   string `toml:"model"    env:"SPOTDECK_DESCRIBE_MODEL"`
}

// ImageConfig configures the artwork generation provider.
type ImageConfig struct {
	APIKey  string `toml:"api_key"  env:"SPOTDECK_IMAGE_API_KEY"`
	BaseURL string `toml:"base_url" env:"SPOTDECK_IMAGE_BASE_URL"`
	Size    int    `toml:"size"     env:"SPOTDECK_IMAGE_SIZE"`
	Style   string `toml:"style"    env:"SPOTDECK_IMAGE_STYLE"`
}

// ServeConfig configures the preview server and its shared backends.
type ServeConfig struct {
	Addr string `toml:"addr" env:"SPOTDECK_SERVE_ADDR" envDefault:":8080"`

	RedisAddr     string `toml:"redis_addr"     env:"SPOTDECK_REDIS_ADDR"`
	RedisPassword string `toml:"redis_password" env:"SPOTDECK_REDIS_PASSWORD"`
	RedisDB       int    `toml:"redis_db"       env:"SPOTDECK_REDIS_DB"`

	MongoURI        string `toml:"mongo_uri"        env:"SPOTDECK_MONGO_URI"`
	MongoDatabase   string `toml:"mongo_database"   env:"SPOTDECK_MONGO_DATABASE"`
	MongoCollection string `toml:"mongo_collection" env:"SPOTDECK_MONGO_COLLECTION"`
}

// defaultConfig returns the built-in defaults.
func defaultConfig() Config {
	return Config{
		Order:    pipeline.DefaultOrder,
		PNGScale: pipeline.DefaultPNGScale,
		Describe: DescribeConfig{
			BaseURL: describe.DefaultBaseURL,
			Model:   describe.DefaultModel,
		},
		Image: ImageConfig{
			Size: image.DefaultSize,
		},
		Serve: ServeConfig{
			Addr: ":8080",
		},
	}
}

// loadConfig resolves the configuration from the TOML file at path (or the
// default location when path is empty) and the environment. A missing file
// is not an error; a file given explicitly must exist.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if path == "" {
		var err error
		if path, err = configPath(); err != nil {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); err != nil {
		if explicit {
			return cfg, fmt.Errorf("config file %s: %w", path, err)
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	// Environment variables override file values.
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// describeConfig converts to the provider's config type.
func (c Config) describeConfig() describe.Config {
	return describe.Config{
		APIKey:  c.Describe.APIKey,
		BaseURL: c.Describe.BaseURL,
		Model:   c.Describe.Model,
	}
}

// imageConfig converts to the provider's config type.
func (c Config) imageConfig() image.Config {
	return image.Config{
		APIKey:  c.Image.APIKey,
		BaseURL: c.Image.BaseURL,
		Size:    c.Image.Size,
		Style:   c.Image.Style,
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application settings.
type Config struct {
	Server struct {
		Addr            string        `mapstructure:"addr"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Firestore struct {
		ProjectID  string `mapstructure:"project_id"`
		DatabaseID string `mapstructure:"database_id"`
	} `mapstructure:"firestore"`

	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret"`
		Issuer    string        `mapstructure:"issuer"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`

	Storage struct {
		Bucket       string `mapstructure:"bucket"`
		UploadPrefix string `mapstructure:"upload_prefix"`
		PublicHost   string `mapstructure:"public_host"`
	} `mapstructure:"storage"`

	PubSub struct {
		Enabled bool   `mapstructure:"enabled"`
		Topic   string `mapstructure:"topic"`
	} `mapstructure:"pubsub"`

	Cache struct {
		MenuTTL time.Duration `mapstructure:"menu_ttl"`
	} `mapstructure:"cache"`
}

// Load reads configuration from config.yaml and LANTERN_* environment overrides.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix("LANTERN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", time.Minute)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("firestore.database_id", "(default)")
	v.SetDefault("auth.issuer", "lantern-eats")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("storage.upload_prefix", "uploads")
	v.SetDefault("pubsub.enabled", false)
	v.SetDefault("pubsub.topic", "order-events")
	v.SetDefault("cache.menu_ttl", 5*time.Minute)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		// Missing file is fine; env overrides and defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Firestore.ProjectID) == "" {
		return errors.New("config: firestore.project_id is required")
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: auth.jwt_secret is required")
	}
	if c.PubSub.Enabled && strings.TrimSpace(c.PubSub.Topic) == "" {
		return errors.New("config: pubsub.topic is required when pubsub is enabled")
	}
	return nil
}

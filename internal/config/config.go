// Package config loads client settings from a .env file, an optional YAML
// file and NUTRITO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/and161185/nutrito/internal/localstore"
	"github.com/and161185/nutrito/internal/remote"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "NUTRITO"

// Config is the client configuration.
type Config struct {
	// SupabaseURL is the backend address; empty means local-only.
	SupabaseURL string `mapstructure:"supabase_url"`
	// SupabaseAnonKey is the project api key; empty means local-only.
	SupabaseAnonKey string        `mapstructure:"supabase_anon_key"`
	Insecure        bool          `mapstructure:"insecure"`
	CACert          string        `mapstructure:"ca_cert"`
	DBPath          string        `mapstructure:"db_path"`
	KeyringDir      string        `mapstructure:"keyring_dir"`
	SyncTimeout     time.Duration `mapstructure:"sync_timeout"`
}

// DefaultConfigPath is ~/.config/nutrito/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "nutrito", "config.yaml")
}

// Load reads dotenv (when present) into the process environment, then the
// YAML file at path (when present). Environment variables win over the file.
// The VITE_SUPABASE_* names of the web client are accepted as fallbacks.
func Load(path, dotenv string) (Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	v := viper.New()
	v.SetDefault("supabase_url", "")
	v.SetDefault("supabase_anon_key", "")
	v.SetDefault("insecure", false)
	v.SetDefault("ca_cert", "")
	v.SetDefault("db_path", localstore.DefaultPath())
	v.SetDefault("keyring_dir", "")
	v.SetDefault("sync_timeout", "15s")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	if err := v.BindEnv("supabase_url", EnvPrefix+"_SUPABASE_URL", "VITE_SUPABASE_URL"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}
	if err := v.BindEnv("supabase_anon_key", EnvPrefix+"_SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			var pathErr *fs.PathError
			if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
				return Config{}, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Remote returns the backend connection settings.
func (c Config) Remote() remote.Config {
	return remote.Config{
		URL:        c.SupabaseURL,
		AnonKey:    c.SupabaseAnonKey,
		Insecure:   c.Insecure,
		CACert:     c.CACert,
		KeyringDir: c.KeyringDir,
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "LABLOANS"

var keys = []string{
	"http.address",
	"http.allowed_origins",
	"database.dsn",
	"database.max_open_conns",
	"auth.jwt_secret",
	"auth.token_ttl",
	"log.level",
	"log.format",
	"telegram.token",
	"telegram.chat_id",
	"worker.interval",
	"worker.pending_after",
}

// Loader reads configuration with the precedence defaults < file < env.
type Loader struct {
	v          *viper.Viper
	configFile string
}

func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// SetConfigFile sets an explicit config file path. A missing explicit file is an error.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	l.setup(cfg)
	if err := l.readFile(); err != nil {
		return nil, fmt.Errorf("err reading config file: %w", err)
	}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("err decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) setup(cfg *Config) {
	v := l.v
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, _ := os.UserHomeDir(); home != "" {
		v.AddConfigPath(filepath.Join(home, ".config", "labloans"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("http.address", cfg.HTTP.Address)
	v.SetDefault("http.allowed_origins", cfg.HTTP.AllowedOrigins)
	v.SetDefault("database.dsn", cfg.Database.DSN)
	v.SetDefault("database.max_open_conns", cfg.Database.MaxOpenConns)
	v.SetDefault("auth.jwt_secret", cfg.Auth.JWTSecret)
	v.SetDefault("auth.token_ttl", cfg.Auth.TokenTTL)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("telegram.token", cfg.Telegram.Token)
	v.SetDefault("telegram.chat_id", cfg.Telegram.ChatID)
	v.SetDefault("worker.interval", cfg.Worker.Interval)
	v.SetDefault("worker.pending_after", cfg.Worker.PendingAfter)

	// Unmarshal only sees env values for keys viper already knows about.
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
	v.AutomaticEnv()
}

func (l *Loader) readFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
		return l.v.ReadInConfig()
	}
	err := l.v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

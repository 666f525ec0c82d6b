package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Settings are the process-level options of the service, read from an
// optional settings file and SPENDGUARD_* environment variables.
type Settings struct {
	ListenAddr string        `mapstructure:"listen_addr" validate:"required"`
	PolicyPath string        `mapstructure:"policy_path" validate:"required"`
	LogLevel   string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Watch      bool          `mapstructure:"watch"`
	Store      StoreSettings `mapstructure:"store"`
}

// StoreSettings selects the spending ledger backend.
type StoreSettings struct {
	Driver string `mapstructure:"driver" validate:"oneof=memory sqlite postgres"`
	DSN    string `mapstructure:"dsn"`
}

// InitSettings points viper at configFile (if any) and enables environment
// overrides: SPENDGUARD_LISTEN_ADDR, SPENDGUARD_STORE_DSN, ...
func InitSettings(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("spendguard")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("SPENDGUARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("policy_path", "configs/policy.yaml")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("watch", true)
	viper.SetDefault("store.driver", "memory")

	// Nested keys need explicit binding for env support.
	_ = viper.BindEnv("store.driver")
	_ = viper.BindEnv("store.dsn")
}

// LoadSettings reads the settings file when one exists, applies environment
// overrides and validates the result.
func LoadSettings() (*Settings, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
		// No settings file: defaults and environment only.
	}

	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}
	return &s, nil
}

// Validate checks struct tags plus the DSN requirement of persistent stores.
func (s *Settings) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(s); err != nil {
		return errors.New(strings.Join(formatValidationErrors(err), "; "))
	}
	if s.Store.Driver != "memory" && s.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for driver %s", s.Store.Driver)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level; unknown values mean info.
func (s *Settings) SlogLevel() slog.Level {
	switch s.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

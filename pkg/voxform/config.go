// Package voxform assembles a runnable voice form-filling client from
// configuration: backend endpoints, audio devices, observability, and the
// form schema itself.
package voxform

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/voxform/voxform/pkg/configutil"
	"github.com/voxform/voxform/pkg/form"
)

type Config struct {
	Environment   string              `mapstructure:"environment"`
	LogLevel      string              `mapstructure:"log_level"`
	Backend       BackendConfig       `mapstructure:"backend"`
	Audio         AudioConfig         `mapstructure:"audio"`
	Session       SessionConfig       `mapstructure:"session"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Privacy       PrivacyConfig       `mapstructure:"privacy"`
	Form          FormConfig          `mapstructure:"form"`
}

type BackendConfig struct {
	URL      string `mapstructure:"url"`
	TokenURL string `mapstructure:"token_url"`
	APIKey   string `mapstructure:"api_key"`
}

type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
}

type SessionConfig struct {
	RotateInterval time.Duration `mapstructure:"rotate_interval"`
}

type ObservabilityConfig struct {
	ArtifactsDir string `mapstructure:"artifacts_dir"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

type FormConfig struct {
	Fields []form.Field `mapstructure:"fields"`
}

func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("session.rotate_interval", "5s")
	v.SetDefault("observability.artifacts_dir", "")
	v.SetDefault("privacy.redact_pii", true)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if err := configutil.RequireString(cfg.Backend.URL, "backend.url"); err != nil {
		return err
	}
	if err := configutil.RequireString(cfg.Backend.TokenURL, "backend.token_url"); err != nil {
		return err
	}
	if cfg.Session.RotateInterval < 0 {
		return fmt.Errorf("session.rotate_interval must not be negative")
	}
	if len(cfg.Form.Fields) == 0 {
		return fmt.Errorf("form.fields is required")
	}
	seen := make(map[string]bool, len(cfg.Form.Fields))
	for i, f := range cfg.Form.Fields {
		if err := configutil.RequireString(f.ID, fmt.Sprintf("form.fields[%d].id", i)); err != nil {
			return err
		}
		if seen[f.ID] {
			return fmt.Errorf("form.fields[%d].id %q is duplicated", i, f.ID)
		}
		seen[f.ID] = true
	}
	return nil
}

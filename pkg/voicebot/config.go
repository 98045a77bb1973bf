package voicebot

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`

	Clinic        ClinicConfig        `mapstructure:"clinic"`
	Vendors       VendorsConfig       `mapstructure:"vendors"`
	Transport     TransportConfig     `mapstructure:"transport"`
	Sessions      SessionsConfig      `mapstructure:"sessions"`
	Synthesis     SynthesisConfig     `mapstructure:"synthesis"`
	Privacy       PrivacyConfig       `mapstructure:"privacy"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ClinicConfig struct {
	Name     string `mapstructure:"name"`
	Location string `mapstructure:"location"`
	Phone    string `mapstructure:"phone"`
	Timezone string `mapstructure:"timezone"`
}

type VendorConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type VendorsConfig struct {
	TTS     VendorConfig `mapstructure:"tts"`
	Booking VendorConfig `mapstructure:"booking"`
}

type TransportConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type SessionsConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

type SynthesisConfig struct {
	MaxRetries        int `mapstructure:"max_retries"`
	RetryBackoffMS    int `mapstructure:"retry_backoff_ms"`
	BreakerThreshold  int `mapstructure:"breaker_threshold"`
	BreakerCooldownMS int `mapstructure:"breaker_cooldown_ms"`
	CacheTTLMinutes   int `mapstructure:"cache_ttl_minutes"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

type ObservabilityConfig struct {
	MetricsPath string  `mapstructure:"metrics_path"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("clinic.name", "Vanguard Chiropractic")
	v.SetDefault("clinic.location", "123 Main Street, Suite 456, in downtown Austin, right across from the public library")
	v.SetDefault("clinic.phone", "(830) 429-4111")
	v.SetDefault("clinic.timezone", "America/Chicago")
	v.SetDefault("transport.provider", "twilio")
	v.SetDefault("vendors.tts.provider", "mock")
	v.SetDefault("vendors.booking.provider", "mock")
	v.SetDefault("sessions.ttl_minutes", 120)
	v.SetDefault("synthesis.max_retries", 2)
	v.SetDefault("synthesis.retry_backoff_ms", 200)
	v.SetDefault("synthesis.breaker_threshold", 3)
	v.SetDefault("synthesis.breaker_cooldown_ms", 30000)
	v.SetDefault("synthesis.cache_ttl_minutes", 60)
	v.SetDefault("privacy.redact_pii", true)
	v.SetDefault("observability.metrics_path", "")
	v.SetDefault("observability.sample_rate", 1.0)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Transport.Provider) == "" {
		return fmt.Errorf("transport.provider is required")
	}
	if strings.TrimSpace(c.Vendors.TTS.Provider) == "" {
		return fmt.Errorf("vendors.tts.provider is required")
	}
	if strings.TrimSpace(c.Vendors.Booking.Provider) == "" {
		return fmt.Errorf("vendors.booking.provider is required")
	}
	if strings.TrimSpace(c.Clinic.Timezone) == "" {
		return fmt.Errorf("clinic.timezone is required")
	}
	return nil
}

// expandEnvStrings substitutes ${VAR} references so secrets stay out of
// the config file.
func expandEnvStrings(cfg *Config) {
	expandValue(reflect.ValueOf(cfg))
	cfg.Vendors.TTS.Settings = expandSettings(cfg.Vendors.TTS.Settings)
	cfg.Vendors.Booking.Settings = expandSettings(cfg.Vendors.Booking.Settings)
	cfg.Transport.Settings = expandSettings(cfg.Transport.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = expandAny(v)
		}
		return out
	default:
		return v
	}
}

func expandValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		expandValue(v.Elem())
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandValue(v.Field(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			expandValue(v.Index(i))
		}
	}
}

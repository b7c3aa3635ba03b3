// Package config loads service settings from the environment, an optional
// .env file and an optional triage.yaml.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Skufu/hearttriage/internal/model"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Port         string
	GinMode      string
	LogLevel     string
	LogFormat    string
	MaxBodyBytes int64

	Model model.Config

	StoreBackend string
	DatabaseURL  string
	SQLitePath   string
	RedisURL     string
	RedisKey     string

	// RecordAPIPredictions also stores results scored through the JSON API.
	// The form always stores.
	RecordAPIPredictions bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("max_body_bytes", 1<<20)

	v.SetDefault("model_backend", model.BackendLinear)
	v.SetDefault("preprocessor_path", "models/preprocessor.yaml")
	v.SetDefault("model_path", "models/triage_model.yaml")
	v.SetDefault("onnx_library_path", "")
	v.SetDefault("onnx_input_name", "float_input")
	v.SetDefault("onnx_label_output", "label")
	v.SetDefault("onnx_proba_output", "probabilities")
	v.SetDefault("model_url", "")
	v.SetDefault("model_timeout", "0s")

	v.SetDefault("store_backend", StoreMemory)
	v.SetDefault("database_url", "")
	v.SetDefault("sqlite_path", "data/patients.db")
	v.SetDefault("redis_url", "")
	v.SetDefault("redis_key", "hearttriage:patients")
	v.SetDefault("record_api_predictions", false)
}

// Load reads the configuration. Environment variables use the upper-case
// key names (PORT, STORE_BACKEND, ...) and override triage.yaml.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("triage")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:         v.GetString("port"),
		GinMode:      v.GetString("gin_mode"),
		LogLevel:     v.GetString("log_level"),
		LogFormat:    v.GetString("log_format"),
		MaxBodyBytes: v.GetInt64("max_body_bytes"),
		Model: model.Config{
			Backend:          strings.ToLower(v.GetString("model_backend")),
			PreprocessorPath: v.GetString("preprocessor_path"),
			ModelPath:        v.GetString("model_path"),
			ONNX: model.ONNXConfig{
				LibraryPath: v.GetString("onnx_library_path"),
				InputName:   v.GetString("onnx_input_name"),
				LabelOutput: v.GetString("onnx_label_output"),
				ProbaOutput: v.GetString("onnx_proba_output"),
			},
			URL:     v.GetString("model_url"),
			Timeout: v.GetDuration("model_timeout"),
		},
		StoreBackend:         strings.ToLower(v.GetString("store_backend")),
		DatabaseURL:          v.GetString("database_url"),
		SQLitePath:           v.GetString("sqlite_path"),
		RedisURL:             v.GetString("redis_url"),
		RedisKey:             v.GetString("redis_key"),
		RecordAPIPredictions: v.GetBool("record_api_predictions"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations that cannot start.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.Model.Backend {
	case model.BackendLinear, model.BackendONNX:
	case model.BackendRemote:
		if c.Model.URL == "" {
			return fmt.Errorf("MODEL_URL is required when MODEL_BACKEND=remote")
		}
	default:
		return fmt.Errorf("unknown MODEL_BACKEND %q", c.Model.Backend)
	}

	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if c.Model.Timeout < 0 {
		return fmt.Errorf("MODEL_TIMEOUT must not be negative")
	}
	return nil
}

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 5 * time.Second

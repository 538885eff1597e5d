// Package config loads the engine's YAML configuration: server settings,
// external collaborators, and the scoring and policy tables. Any table left
// empty in the file falls back to the built-in defaults at wiring time.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Oracle      OracleConfig      `yaml:"oracle"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Redis       RedisConfig       `yaml:"redis"`
	PubSub      PubSubConfig      `yaml:"pubsub"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Risk        RiskConfig        `yaml:"risk"`
	Progression ProgressionConfig `yaml:"progression"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Env  string `yaml:"env"`
}

type OracleConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	// APIKeyEnv names the environment variable holding the key; the key
	// itself never lives in the file.
	APIKeyEnv string `yaml:"api_key_env"`
}

// Timeout returns the oracle call timeout, defaulting to 30s.
func (o OracleConfig) Timeout() time.Duration {
	if o.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(o.TimeoutSeconds) * time.Second
}

type PostgresConfig struct {
	// URLEnv names the environment variable with the connection string.
	URLEnv string `yaml:"url_env"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type PubSubConfig struct {
	Enabled   bool   `yaml:"enabled"`
	ProjectID string `yaml:"project_id"`
	Topic     string `yaml:"topic"`
}

// ScoringConfig overrides the built-in weight tables. Keys of Weights are
// decision types; inner keys are dimension names.
type ScoringConfig struct {
	Weights         map[string]map[string]float64 `yaml:"weights"`
	HistoricalBlend float64                       `yaml:"historical_blend"`
}

type RiskConfig struct {
	HighValue      float64 `yaml:"high_value"`
	StaleDays      int     `yaml:"stale_days"`
	BulkRecipients int     `yaml:"bulk_recipients"`
}

// ProgressionConfig overrides the per-autonomy-level readiness and
// confidence bars on the progression path. Keys are levels 1 through 5.
type ProgressionConfig struct {
	Levels map[int]LevelBar `yaml:"levels"`
}

type LevelBar struct {
	Readiness  float64 `yaml:"readiness"`
	Confidence float64 `yaml:"confidence"`
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the YAML document shared by the trainer and the serving process.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Data     DataConfig     `yaml:"data"`
	Http     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	UI       UIConfig       `yaml:"ui"`
}

type ModelConfig struct {
	Name       string                 `yaml:"name"`
	Params     map[string]interface{} `yaml:"params"`
	StorePath  string                 `yaml:"store_path"`
	Oversample *bool                  `yaml:"oversample"`
	Seed       int64                  `yaml:"seed"`
	Version    int                    `yaml:"version"`
}

// OversampleEnabled reports whether SMOTE runs during training. It defaults
// to true.
func (m ModelConfig) OversampleEnabled() bool {
	return m.Oversample == nil || *m.Oversample
}

type DataConfig struct {
	TrainPath string `yaml:"train_path"`
	TestPath  string `yaml:"test_path"`
	Encoding  string `yaml:"encoding"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	// Path of the sqlite audit database. Empty disables auditing.
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type UIConfig struct {
	Labels map[int]string `yaml:"labels"`
}

// Load reads and validates the config at path.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Parse decodes and validates an in-memory YAML document.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.UnmarshalStrict(data, &config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate fills defaults and rejects unusable settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model.Name) == "" {
		return errors.New("model.name is required")
	}
	if strings.TrimSpace(c.Model.StorePath) == "" {
		return errors.New("model.store_path is required")
	}
	if c.Model.Params == nil {
		c.Model.Params = map[string]interface{}{}
	}
	if c.Model.Seed == 0 {
		c.Model.Seed = 42
	}
	if c.Model.Version == 0 {
		c.Model.Version = 1
	}
	if c.Model.Version < 0 {
		return errors.New("model.version must be positive")
	}

	if c.Data.TrainPath == "" {
		c.Data.TrainPath = "data/train.csv"
	}
	if c.Data.TestPath == "" {
		c.Data.TestPath = "data/test.csv"
	}

	if c.Http.Port == 0 {
		c.Http.Port = 8000
	}
	if c.Http.Port < 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.Http.Port)
	}
	if c.Http.Timeout == 0 {
		c.Http.Timeout = 30 * time.Second
	}
	if c.Http.Timeout < 0 {
		return errors.New("http.timeout must be positive")
	}
	if len(c.Http.AllowedOrigins) == 0 {
		c.Http.AllowedOrigins = []string{"*"}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log.format %q must be json or console", c.Log.Format)
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}

	if c.UI.Labels == nil {
		c.UI.Labels = map[int]string{}
	}
	if _, ok := c.UI.Labels[0]; !ok {
		c.UI.Labels[0] = "No Rain"
	}
	if _, ok := c.UI.Labels[1]; !ok {
		c.UI.Labels[1] = "Rain"
	}
	return nil
}

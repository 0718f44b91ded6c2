package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"cabwatch/pkg/models"
)

// Config is the root configuration.
type Config struct {
	Cabwatch CabwatchConfig `yaml:"cabwatch"`
}

// CabwatchConfig is the project configuration.
type CabwatchConfig struct {
	Input        InputConfig        `yaml:"input"`
	Publish      PublishConfig      `yaml:"publish"`
	Pipeline     PipelineConfig     `yaml:"pipeline"`
	Zones        []models.Zone      `yaml:"zones"`
	Scoring      ScoringConfig      `yaml:"scoring"`
	Predictor    PredictorConfig    `yaml:"predictor"`
	History      HistoryConfig      `yaml:"history"`
	AlertArchive AlertArchiveConfig `yaml:"alert_archive"`
	Server       ServerConfig       `yaml:"server"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// InputConfig controls the inbound position reader.
type InputConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// PublishConfig controls the outbound pub/sub fan-out.
type PublishConfig struct {
	Redis PublishRedisConfig `yaml:"redis"`
}

// RedisConfig controls Redis list input.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	Queue        string        `yaml:"queue"`
	BlockTimeout time.Duration `yaml:"block_timeout"`
}

// PublishRedisConfig controls Redis pub/sub output.
type PublishRedisConfig struct {
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	ChannelPrefix string `yaml:"channel_prefix"`
}

// PipelineConfig controls pipeline behavior.
type PipelineConfig struct {
	Workers       int           `yaml:"workers"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// ScoringConfig holds the static reference tables the risk scorer and
// distress detector read.
type ScoringConfig struct {
	RoadPoints    []models.RoadPoint    `yaml:"road_points"`
	IsolatedAreas []models.IsolatedArea `yaml:"isolated_areas"`
}

// PredictorConfig controls the handoff predictor.
type PredictorConfig struct {
	HorizonSeconds int `yaml:"horizon_seconds"`
}

// HistoryConfig controls the per-cab position ring.
type HistoryConfig struct {
	Capacity int `yaml:"capacity"`
}

// AlertArchiveConfig controls the alert archive sink.
type AlertArchiveConfig struct {
	Mode string           `yaml:"mode"` // file|none
	File FileOutputConfig `yaml:"file"`
}

// FileOutputConfig config for local JSON output.
type FileOutputConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig controls the HTTP query API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	YardBox  YardBoxConfig  `yaml:"yardbox"`
}

// StorageConfig выбирает бэкенд состояния: file | sqlite | s3 | postgres.
type StorageConfig struct {
	Driver          string `yaml:"driver"`
	DataDir         string `yaml:"data_dir"`
	SQLitePath      string `yaml:"sqlite_path"`
	HistoryCapacity int    `yaml:"history_capacity"`

	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3Prefix    string `yaml:"s3_prefix"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) ConnString() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.DBName, sslMode)
}

type KafkaConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	HistoryTopicName string `yaml:"history_topic_name"`
}

// Enabled is false when no broker is configured; history events are then not published.
func (k KafkaConfig) Enabled() bool {
	return k.Host != ""
}

func (k KafkaConfig) Brokers() []string {
	return []string{fmt.Sprintf("%s:%d", k.Host, k.Port)}
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type YardBoxConfig struct {
	HTTPAddr       string `yaml:"http_addr"`
	WorkerHTTPAddr string `yaml:"worker_http_addr"`

	// IANA зона, в которой считаются календарные дни аналитики.
	Timezone string `yaml:"timezone"`

	StateCacheTTLSeconds int `yaml:"state_cache_ttl_seconds"`
	RateLimitPerMinute   int `yaml:"rate_limit_per_minute"`

	DwellSchedule      string `yaml:"dwell_schedule"`
	DwellRetentionDays int    `yaml:"dwell_retention_days"`

	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}

package config

import (
	"errors"
	"fmt"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Supported raw file sources.
const (
	SourceKafka = "kafka"
	SourceFTP   = "ftp"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Source           string
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// FTP directory polling, used when Source is "ftp".
	FTPAddr         string
	FTPDir          string
	FTPUser         string
	FTPPassword     string
	FTPPollInterval time.Duration
	FTPTimeout      time.Duration

	// Identifier parts for files that carry no data_type or source header.
	StatemodDataType string
	StatemodSource   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	pollInterval, err := parsePositiveDuration("FTP_POLL_INTERVAL", "1m")
	if err != nil {
		return nil, err
	}

	ftpTimeout, err := parsePositiveDuration("FTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Source:             sharedcfg.EnvOrDefault("SOURCE", SourceKafka),
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "raw-statemod-files"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "statemod-series"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "statemod-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		FTPAddr:         sharedcfg.EnvOrDefault("FTP_ADDR", ""),
		FTPDir:          sharedcfg.EnvOrDefault("FTP_DIR", "/"),
		FTPUser:         sharedcfg.EnvOrDefault("FTP_USER", "anonymous"),
		FTPPassword:     sharedcfg.EnvOrDefault("FTP_PASSWORD", "anonymous"),
		FTPPollInterval: pollInterval,
		FTPTimeout:      ftpTimeout,

		StatemodDataType: sharedcfg.EnvOrDefault("STATEMOD_DATA_TYPE", ""),
		StatemodSource:   sharedcfg.EnvOrDefault("STATEMOD_SOURCE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if c.KafkaSinkTopic == "" {
		return errors.New("KAFKA_SINK_TOPIC is required")
	}

	switch c.Source {
	case SourceKafka:
		if c.KafkaSourceTopic == "" {
			return errors.New("KAFKA_SOURCE_TOPIC is required")
		}
	case SourceFTP:
		if c.FTPAddr == "" {
			return errors.New("FTP_ADDR is required when SOURCE is ftp")
		}
	default:
		return fmt.Errorf("invalid SOURCE %q: must be %s or %s", c.Source, SourceKafka, SourceFTP)
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

package kafka_config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"frontdesk/pkg/logger"
)

type Config struct {
	Brokers []string

	AppointmentEventsTopic    string
	AppointmentEventsDLQTopic string
	WebhookConsumerGroup      string

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerRequireAcks  int    // -1 = all, 0 = none, 1 = leader only
	ProducerCompression  string // "none", "gzip", "snappy", "lz4", "zstd"
	ProducerAsync        bool

	ConsumerStartOffset       int64 // -1 = newest, -2 = oldest
	ConsumerMinBytes          int
	ConsumerMaxBytes          int
	ConsumerMaxWait           time.Duration
	ConsumerCommitInterval    time.Duration
	ConsumerHeartbeatInterval time.Duration
	ConsumerSessionTimeout    time.Duration
	ConsumerRebalanceTimeout  time.Duration
	ConsumerMaxRetries        int

	EnableMiddleware bool
}

func Load() (*Config, error) {
	brokersStr := getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)
	brokers := strings.Split(brokersStr, ",")
	for i, broker := range brokers {
		brokers[i] = strings.TrimSpace(broker)
	}

	cfg := &Config{
		Brokers: brokers,

		AppointmentEventsTopic:    getEnvStr(EnvTopicAppointmentEvents, DefaultTopicAppointmentEvents),
		AppointmentEventsDLQTopic: getEnvStr(EnvTopicAppointmentEventsDLQ, DefaultTopicAppointmentEventsDLQ),
		WebhookConsumerGroup:      getEnvStr(EnvWebhookConsumerGroup, DefaultWebhookConsumerGroup),

		ProducerMaxAttempts:  getEnvInt(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts),
		ProducerBatchTimeout: getEnvDuration(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout),
		ProducerRequireAcks:  getEnvInt(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks),
		ProducerCompression:  getEnvStr(EnvKafkaProducerCompression, DefaultProducerCompression),
		ProducerAsync:        getEnvBool(EnvKafkaProducerAsync, DefaultProducerAsync),

		ConsumerStartOffset:       getEnvInt64(EnvKafkaConsumerStartOffset, DefaultConsumerStartOffset),
		ConsumerMinBytes:          getEnvInt(EnvKafkaConsumerMinBytes, DefaultConsumerMinBytes),
		ConsumerMaxBytes:          getEnvInt(EnvKafkaConsumerMaxBytes, DefaultConsumerMaxBytes),
		ConsumerMaxWait:           getEnvDuration(EnvKafkaConsumerMaxWait, DefaultConsumerMaxWait),
		ConsumerCommitInterval:    getEnvDuration(EnvKafkaConsumerCommitInterval, DefaultConsumerCommitInterval),
		ConsumerHeartbeatInterval: getEnvDuration(EnvKafkaConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval),
		ConsumerSessionTimeout:    getEnvDuration(EnvKafkaConsumerSessionTimeout, DefaultConsumerSessionTimeout),
		ConsumerRebalanceTimeout:  getEnvDuration(EnvKafkaConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout),
		ConsumerMaxRetries:        getEnvInt(EnvKafkaConsumerMaxRetries, DefaultConsumerMaxRetries),

		EnableMiddleware: getEnvBool(EnvKafkaEnableMiddleware, DefaultEnableMiddleware),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) Validate() error {
	var problems []string

	if len(cfg.Brokers) == 0 || slices.Contains(cfg.Brokers, "") {
		problems = append(problems, fmt.Sprintf("Brokers must be a non-empty list without blanks, got: %q", cfg.Brokers))
	}
	if cfg.AppointmentEventsTopic == "" {
		problems = append(problems, "AppointmentEventsTopic cannot be empty")
	}
	if cfg.AppointmentEventsDLQTopic == cfg.AppointmentEventsTopic {
		problems = append(problems, "AppointmentEventsDLQTopic must differ from AppointmentEventsTopic")
	}
	if cfg.WebhookConsumerGroup == "" {
		problems = append(problems, "WebhookConsumerGroup cannot be empty")
	}

	for name, v := range map[string]int{
		"ProducerMaxAttempts": cfg.ProducerMaxAttempts,
		"ConsumerMinBytes":    cfg.ConsumerMinBytes,
		"ConsumerMaxBytes":    cfg.ConsumerMaxBytes,
	} {
		if v <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %d", name, v))
		}
	}
	for name, d := range map[string]time.Duration{
		"ProducerBatchTimeout":      cfg.ProducerBatchTimeout,
		"ConsumerMaxWait":           cfg.ConsumerMaxWait,
		"ConsumerCommitInterval":    cfg.ConsumerCommitInterval,
		"ConsumerHeartbeatInterval": cfg.ConsumerHeartbeatInterval,
		"ConsumerSessionTimeout":    cfg.ConsumerSessionTimeout,
		"ConsumerRebalanceTimeout":  cfg.ConsumerRebalanceTimeout,
	} {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}
	if cfg.ConsumerMinBytes > cfg.ConsumerMaxBytes {
		problems = append(problems, "ConsumerMinBytes cannot exceed ConsumerMaxBytes")
	}
	if cfg.ConsumerMaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("ConsumerMaxRetries cannot be negative, got: %d", cfg.ConsumerMaxRetries))
	}

	if !slices.Contains(compressions, cfg.ProducerCompression) {
		problems = append(problems, fmt.Sprintf("ProducerCompression must be one of %v, got: %s", compressions, cfg.ProducerCompression))
	}
	if cfg.ProducerRequireAcks < -1 || cfg.ProducerRequireAcks > 1 {
		problems = append(problems, fmt.Sprintf("ProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.ProducerRequireAcks))
	}
	if cfg.ConsumerStartOffset < -2 {
		problems = append(problems, fmt.Sprintf("ConsumerStartOffset must be -1 (newest), -2 (oldest), or >= 0, got: %d", cfg.ConsumerStartOffset))
	}

	if len(problems) == 0 {
		return nil
	}
	slices.Sort(problems)
	return fmt.Errorf("kafka configuration invalid:\n  %s", strings.Join(problems, "\n  "))
}

var compressions = []string{"none", "gzip", "snappy", "lz4", "zstd"}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"topic", cfg.AppointmentEventsTopic,
		"dlq_topic", cfg.AppointmentEventsDLQTopic,
		"consumer_group", cfg.WebhookConsumerGroup,
		"producer", fmt.Sprintf("acks=%d compression=%s async=%t attempts=%d",
			cfg.ProducerRequireAcks, cfg.ProducerCompression, cfg.ProducerAsync, cfg.ProducerMaxAttempts),
		"consumer", fmt.Sprintf("offset=%d retries=%d session=%s",
			cfg.ConsumerStartOffset, cfg.ConsumerMaxRetries, cfg.ConsumerSessionTimeout),
		"enable_middleware", cfg.EnableMiddleware,
	)
}

func getEnvStr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if int64Value, err := strconv.ParseInt(value, 10, 64); err == nil {
			return int64Value
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

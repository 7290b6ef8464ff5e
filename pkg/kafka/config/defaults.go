package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	DefaultTopicAppointmentEvents    = "frontdesk.appointment-events"
	DefaultTopicAppointmentEventsDLQ = "frontdesk.appointment-events.dlq"
	DefaultWebhookConsumerGroup      = "frontdesk-webhook-worker"

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	DefaultConsumerStartOffset       = -1
	DefaultConsumerMinBytes          = 1
	DefaultConsumerMaxBytes          = 10 * 1024 * 1024 // 10MB
	DefaultConsumerMaxWait           = 500 * time.Millisecond
	DefaultConsumerCommitInterval    = 1 * time.Second
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 10 * time.Second
	DefaultConsumerRebalanceTimeout  = 60 * time.Second
	DefaultConsumerMaxRetries        = 3

	DefaultEnableMiddleware = true
)

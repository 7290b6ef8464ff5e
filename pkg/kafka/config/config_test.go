package kafka_config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AppointmentEventsTopic != DefaultTopicAppointmentEvents {
		t.Errorf("unexpected topic %q", cfg.AppointmentEventsTopic)
	}
	if len(cfg.Brokers) != 1 || cfg.Brokers[0] != "localhost:9092" {
		t.Errorf("unexpected brokers %v", cfg.Brokers)
	}
}

func TestLoad_BrokerListIsTrimmed(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "k1:9092, k2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers %v", cfg.Brokers)
	}
}

func TestLoad_RejectsDLQEqualToTopic(t *testing.T) {
	t.Setenv(EnvTopicAppointmentEvents, "events")
	t.Setenv(EnvTopicAppointmentEventsDLQ, "events")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "AppointmentEventsDLQTopic") {
		t.Fatalf("expected DLQ validation error, got %v", err)
	}
}

package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	kafka_config "frontdesk/pkg/kafka/config"
	"frontdesk/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

// Publisher is the publishing side services depend on.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

type Producer struct {
	writer     *kafka.Writer
	dlqWriter  *kafka.Writer
	topic      string
	dlqTopic   string
	middleware []ProducerMiddleware
	log        *logger.Logger
	closed     bool
	mu         sync.RWMutex
}

type ProducerMiddleware func(ctx context.Context, msg Message, next MessageHandler) error

func NewProducer(cfg *kafka_config.Config, log *logger.Logger, topic string, dlqTopic string) (*Producer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	compression := compressionCodec(cfg.ProducerCompression)

	var requiredAcks kafka.RequiredAcks
	switch cfg.ProducerRequireAcks {
	case 0:
		requiredAcks = kafka.RequireNone
	case 1:
		requiredAcks = kafka.RequireOne
	default:
		requiredAcks = kafka.RequireAll
	}

	producer := &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{}, // per-host ordering
			RequiredAcks: requiredAcks,
			Compression:  compression,
			MaxAttempts:  cfg.ProducerMaxAttempts,
			BatchTimeout: cfg.ProducerBatchTimeout,
			Async:        cfg.ProducerAsync,
			ErrorLogger:  errorLogger(log),
		},
		topic:    topic,
		dlqTopic: dlqTopic,
		log:      log,
	}

	if dlqTopic != "" {
		producer.dlqWriter = newDLQWriter(cfg, log, dlqTopic, compression)
	}

	return producer, nil
}

func (p *Producer) Use(middleware ProducerMiddleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middleware = append(p.middleware, middleware)
}

func (p *Producer) Publish(ctx context.Context, msg Message) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrProducerClosed
	}
	chain := p.middleware
	p.mu.RUnlock()

	if msg.Key == "" {
		return ErrEmptyKey
	}
	if len(msg.Value) == 0 {
		return ErrEmptyValue
	}
	msg.Topic = p.topic
	if msg.Headers == nil {
		msg.Headers = make(map[string]string)
	}

	handler := MessageHandler(p.publishInternal)
	for i := len(chain) - 1; i >= 0; i-- {
		mw := chain[i]
		next := handler
		handler = func(ctx context.Context, m Message) error {
			return mw(ctx, m, next)
		}
	}

	return handler(ctx, msg)
}

func (p *Producer) publishInternal(ctx context.Context, msg Message) error {
	err := p.writer.WriteMessages(ctx, toKafkaMessage(msg, msg.Timestamp))
	if err != nil && p.dlqWriter != nil {
		msg.Headers[HeaderOriginalTopic] = p.topic
		if dlqErr := writeDLQ(ctx, p.dlqWriter, msg, err); dlqErr != nil {
			return fmt.Errorf("failed to send to DLQ: %v (original error: %w)", dlqErr, err)
		}
	}
	return err
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	err := p.writer.Close()
	if p.dlqWriter != nil {
		if dlqErr := p.dlqWriter.Close(); err == nil {
			err = dlqErr
		}
	}
	return err
}

func (p *Producer) Stats() kafka.WriterStats {
	return p.writer.Stats()
}

func compressionCodec(name string) compress.Compression {
	switch name {
	case "none":
		return 0
	case "gzip":
		return compress.Gzip
	case "lz4":
		return compress.Lz4
	case "zstd":
		return compress.Zstd
	default:
		return compress.Snappy
	}
}

func newDLQWriter(cfg *kafka_config.Config, log *logger.Logger, topic string, compression compress.Compression) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  compression,
		MaxAttempts:  3,
		ErrorLogger:  errorLogger(log),
	}
}

func writeDLQ(ctx context.Context, w *kafka.Writer, msg Message, originalErr error) error {
	now := time.Now()
	msg.Headers[HeaderDLQError] = originalErr.Error()
	msg.Headers[HeaderDLQTimestamp] = now.UTC().Format(time.RFC3339)
	return w.WriteMessages(ctx, toKafkaMessage(msg, now))
}

func toKafkaMessage(msg Message, at time.Time) kafka.Message {
	km := kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Value,
		Time:  at,
	}
	for k, v := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return km
}

func fromKafkaMessage(km kafka.Message) Message {
	msg := Message{
		Key:       string(km.Key),
		Value:     km.Value,
		Headers:   make(map[string]string, len(km.Headers)),
		Topic:     km.Topic,
		Partition: km.Partition,
		Offset:    km.Offset,
		Timestamp: km.Time,
	}
	for _, h := range km.Headers {
		msg.Headers[h.Key] = string(h.Value)
	}
	return msg
}

func errorLogger(log *logger.Logger) kafka.Logger {
	return kafka.LoggerFunc(func(msg string, args ...any) {
		log.Error("kafka client error", "detail", fmt.Sprintf(msg, args...))
	})
}

package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kafka_config "frontdesk/pkg/kafka/config"
	"frontdesk/pkg/logger"

	"github.com/segmentio/kafka-go"
)

const (
	fetchBackoff = 1 * time.Second
	retryBackoff = 200 * time.Millisecond
)

type Consumer struct {
	reader     *kafka.Reader
	dlqWriter  *kafka.Writer
	topic      string
	groupID    string
	maxRetries int
	handler    MessageHandler
	middleware []ConsumerMiddleware
	log        *logger.Logger
	closed     bool
	mu         sync.RWMutex
	wg         sync.WaitGroup
}

type ConsumerMiddleware func(ctx context.Context, msg Message, next MessageHandler) error

func NewConsumer(cfg *kafka_config.Config, log *logger.Logger, topic, groupID, dlqTopic string, handler MessageHandler) (*Consumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("group ID cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		Topic:             topic,
		GroupID:           groupID,
		MinBytes:          cfg.ConsumerMinBytes,
		MaxBytes:          cfg.ConsumerMaxBytes,
		MaxWait:           cfg.ConsumerMaxWait,
		CommitInterval:    cfg.ConsumerCommitInterval,
		HeartbeatInterval: cfg.ConsumerHeartbeatInterval,
		SessionTimeout:    cfg.ConsumerSessionTimeout,
		RebalanceTimeout:  cfg.ConsumerRebalanceTimeout,
		StartOffset:       cfg.ConsumerStartOffset,
		ErrorLogger:       errorLogger(log),
	})

	consumer := &Consumer{
		reader:     reader,
		topic:      topic,
		groupID:    groupID,
		maxRetries: cfg.ConsumerMaxRetries,
		handler:    handler,
		log:        log.With("topic", topic, "group_id", groupID),
	}
	if dlqTopic != "" {
		consumer.dlqWriter = newDLQWriter(cfg, log, dlqTopic, compressionCodec(cfg.ProducerCompression))
	}

	return consumer, nil
}

func (c *Consumer) Use(middleware ConsumerMiddleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = append(c.middleware, middleware)
}

func (c *Consumer) Name() string {
	return "kafka-consumer:" + c.topic
}

// Run consumes until ctx is cancelled. Offsets are committed after the handler
// succeeds or the message has been dead-lettered.
func (c *Consumer) Run(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	c.mu.RUnlock()

	c.wg.Add(1)
	defer c.wg.Done()

	for {
		kafkaMsg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("failed to fetch message", "error", err)
			if !sleep(ctx, fetchBackoff) {
				return ctx.Err()
			}
			continue
		}

		msg := fromKafkaMessage(kafkaMsg)
		if err := c.processMessage(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("failed to process message",
				"offset", msg.Offset,
				"event_id", msg.GetEventID(),
				"error", err,
			)
		}

		if err := c.reader.CommitMessages(ctx, kafkaMsg); err != nil && ctx.Err() == nil {
			c.log.Error("failed to commit offset", "offset", msg.Offset, "error", err)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg Message) error {
	c.mu.RLock()
	chain := c.middleware
	c.mu.RUnlock()

	handler := c.handler
	for i := len(chain) - 1; i >= 0; i-- {
		mw := chain[i]
		next := handler
		handler = func(ctx context.Context, m Message) error {
			return mw(ctx, m, next)
		}
	}

	for {
		err := handler(ctx, msg)
		if err == nil {
			return nil
		}

		retries := msg.GetRetryCount()
		if ShouldRetry(err, retries, c.maxRetries) {
			msg.IncrementRetryCount()
			c.log.Warn("retrying message", "attempt", retries+1, "max_retries", c.maxRetries, "error", err)
			if !sleep(ctx, retryBackoff*time.Duration(retries+1)) {
				return ctx.Err()
			}
			continue
		}

		if c.dlqWriter != nil {
			msg.Headers[HeaderOriginalTopic] = c.topic
			msg.Headers[HeaderDLQGroup] = c.groupID
			if dlqErr := writeDLQ(ctx, c.dlqWriter, msg, err); dlqErr != nil {
				c.log.Error("failed to send message to DLQ", "error", dlqErr, "original_error", err)
			} else {
				c.log.Warn("message sent to DLQ", "retries", retries, "error", err)
			}
		}
		if retries >= c.maxRetries {
			return errors.Join(ErrMaxRetriesExceeded, err)
		}
		return err
	}
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()

	err := c.reader.Close()
	if c.dlqWriter != nil {
		if dlqErr := c.dlqWriter.Close(); err == nil {
			err = dlqErr
		}
	}
	return err
}

func (c *Consumer) Stats() kafka.ReaderStats {
	return c.reader.Stats()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/spot-booking/internal/config"
)

// Kafka header keys.
const (
	HeaderEventID     = "event-id"
	HeaderEventType   = "event-type"
	HeaderContentType = "content-type"
	HeaderSource      = "source"
)

const sourceName = "spot-booking"

// defaultBatchTimeout replaces kafka-go's one second default, which every
// synchronous write would otherwise wait out.
const defaultBatchTimeout = 10 * time.Millisecond

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaDispatcher publishes SpotBooked events to a topic, keyed by the
// owner's external id so one owner's events stay ordered.
type KafkaDispatcher struct {
	writer       messageWriter
	writeTimeout time.Duration
	log          *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewKafkaDispatcher builds a dispatcher for cfg. cfg must name at least one
// broker and a topic.
func NewKafkaDispatcher(cfg config.KafkaConfig, log *zap.Logger) (*KafkaDispatcher, error) {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = defaultBatchTimeout
	}

	sugar := log.Sugar()
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		BatchTimeout: batchTimeout,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger:  kafka.LoggerFunc(sugar.Errorf),
	}
	return newKafkaDispatcher(w, cfg.WriteTimeout, log), nil
}

func newKafkaDispatcher(w messageWriter, writeTimeout time.Duration, log *zap.Logger) *KafkaDispatcher {
	return &KafkaDispatcher{writer: w, writeTimeout: writeTimeout, log: log}
}

// Dispatch writes e synchronously, bounded by the configured write timeout.
func (d *KafkaDispatcher) Dispatch(ctx context.Context, e SpotBooked) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(e.OwnerExternalID, 10)),
		Value: payload,
		Time:  e.BookedAt,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(e.EventID)},
			{Key: HeaderEventType, Value: []byte(EventTypeSpotBooked)},
			{Key: HeaderContentType, Value: []byte("application/json")},
			{Key: HeaderSource, Value: []byte(sourceName)},
		},
	}

	if d.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.writeTimeout)
		defer cancel()
	}
	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", EventTypeSpotBooked, err)
	}

	d.log.Debug("booking event published",
		zap.String("event_id", e.EventID),
		zap.Int64("spot_id", e.SpotID),
	)
	return nil
}

// Close flushes and closes the writer. Further Dispatch calls fail.
func (d *KafkaDispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.writer.Close()
}

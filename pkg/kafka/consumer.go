package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

var (
	consumerMetricsOnce sync.Once
	consumerMessages    *prometheus.CounterVec
	consumerErrors      *prometheus.CounterVec
	consumerQueueDepth  *prometheus.GaugeVec
)

func initConsumerMetricsOnce() {
	consumerMetricsOnce.Do(func() {
		consumerMessages = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchtower_kafka_consumed_total",
				Help: "Total messages consumed per topic",
			},
			[]string{"topic"},
		)
		consumerErrors = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchtower_kafka_consume_errors_total",
				Help: "Total handler errors per topic",
			},
			[]string{"topic"},
		)
		consumerQueueDepth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "watchtower_kafka_queue_depth",
				Help: "Buffered messages awaiting workers",
			},
			[]string{"topic"},
		)
	})
}

type message struct {
	topic string
	data  []byte
}

// Consumer wraps Kafka readers with a worker pool and optional DLQ.
type Consumer struct {
	cfg      *ConsumerConfig
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	stopChan chan struct{}
	msgChan  chan *message
	dlq      *kafka.Writer
	readerWg sync.WaitGroup
	workerWg sync.WaitGroup
	stopOnce sync.Once
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "watchtower",
		WorkerCount: 1,
		BufferSize:  64,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    10e3,
		MaxBytes:    10e6,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	c := &Consumer{
		cfg:      cfg,
		readers:  make(map[string]*kafka.Reader),
		handlers: make(map[string]MessageHandler),
		stopChan: make(chan struct{}),
		msgChan:  make(chan *message, cfg.BufferSize),
	}

	initConsumerMetricsOnce()

	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}

	return c, nil
}

// RegisterHandler registers a message handler for a specific topic.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		log.Printf("warn: handler already registered for topic %s", topic)
		return
	}
	c.handlers[topic] = handler
}

// Start starts the Kafka readers and worker pool.
func (c *Consumer) Start() error {
	for topic := range c.handlers {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
		c.readers[topic] = reader
		log.Printf("kafka consumer: registered topic=%s", topic)
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.workerWg.Add(1)
		go c.worker()
	}

	for topic, reader := range c.readers {
		c.readerWg.Add(1)
		go c.readLoop(topic, reader)
	}

	log.Printf("kafka consumer: started workers=%d topics=%d", c.cfg.WorkerCount, len(c.readers))
	return nil
}

// Stop stops the consumer gracefully.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error
	c.stopOnce.Do(func() {
		close(c.stopChan)

		// Readers must exit before msgChan closes; a reader blocked on the
		// buffered send would otherwise hit a closed channel.
		done := make(chan struct{})
		go func() {
			c.readerWg.Wait()
			close(c.msgChan)
			c.workerWg.Wait()
			close(done)
		}()
		select {
		case <-ctx.Done():
			stopErr = fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
		case <-done:
		}

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				log.Printf("error closing reader for topic %s: %v", topic, err)
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				log.Printf("error closing dlq writer: %v", err)
			}
		}
	})
	return stopErr
}

func (c *Consumer) readLoop(topic string, reader *kafka.Reader) {
	defer c.readerWg.Done()
	for {
		select {
		case <-c.stopChan:
			return
		default:
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			msg, err := reader.ReadMessage(ctx)
			cancel()
			if err != nil {
				if !errors.Is(err, context.DeadlineExceeded) {
					log.Printf("error reading message from topic %s: %v", topic, err)
				}
				continue
			}
			select {
			case c.msgChan <- &message{topic: topic, data: msg.Value}:
				consumerQueueDepth.WithLabelValues(topic).Set(float64(len(c.msgChan)))
			case <-c.stopChan:
				return
			}
		}
	}
}

func (c *Consumer) worker() {
	defer c.workerWg.Done()
	for m := range c.msgChan {
		if m == nil {
			continue
		}
		c.handle(m)
	}
}

// handle runs the topic handler with bounded retries and exponential
// backoff; exhausted messages go to the DLQ when one is configured.
func (c *Consumer) handle(m *message) {
	handler, ok := c.handlers[m.topic]
	if !ok {
		return
	}

	backoff := c.cfg.BackoffMin
	var err error
	for attempt := 0; attempt <= c.cfg.RetryMax; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = handler.Handle(ctx, m.data)
		cancel()
		if err == nil {
			consumerMessages.WithLabelValues(m.topic).Inc()
			return
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > c.cfg.BackoffMax {
			backoff = c.cfg.BackoffMax
		}
	}

	consumerErrors.WithLabelValues(m.topic).Inc()
	log.Printf("kafka consumer: handler failed after retries topic=%s err=%v", m.topic, err)
	if c.dlq != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if derr := c.dlq.WriteMessages(ctx, kafka.Message{Topic: c.cfg.DLQTopic, Value: m.data}); derr != nil {
			log.Printf("kafka consumer: dlq write failed: %v", derr)
		}
	}
}

package kafka

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingHandler struct {
	topic string
	seen  int64
}

func (h *countingHandler) Topic() string { return h.topic }
func (h *countingHandler) Handle(context.Context, []byte) error {
	atomic.AddInt64(&h.seen, 1)
	return nil
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	if _, err := NewConsumer(); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestStopDrainsBufferedMessages(t *testing.T) {
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"127.0.0.1:9092"}),
		WithConsumerWorkers(2),
		WithConsumerBufferSize(16),
	)
	if err != nil {
		t.Fatalf("consumer: %v", err)
	}
	// No handlers registered yet, so Start spins up workers only and no
	// reader touches the broker address.
	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	h := &countingHandler{topic: "signals.raw"}
	c.handlers[h.topic] = h

	for i := 0; i < 10; i++ {
		c.msgChan <- &message{topic: h.topic, data: []byte("{}")}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := atomic.LoadInt64(&h.seen); got != 10 {
		t.Fatalf("handled %d of 10 buffered messages before stop returned", got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	c, err := NewConsumer(WithConsumerBrokers([]string{"127.0.0.1:9092"}))
	if err != nil {
		t.Fatalf("consumer: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

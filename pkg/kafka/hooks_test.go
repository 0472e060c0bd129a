package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type countingHook struct {
	before int
	after  int
	onErr  int
	fail   bool
}

func (h *countingHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	h.before++
	if h.fail {
		return ctx, km, data, errors.New("rejected")
	}
	return ctx, km, data, nil
}

func (h *countingHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	h.after++
}

func (h *countingHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	h.onErr++
}

func TestWithConsumerHook(t *testing.T) {
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}))
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	if _, ok := c.hook.(NoopHook); !ok {
		t.Fatalf("default hook = %T, want NoopHook", c.hook)
	}

	h := &countingHook{}
	c.WithConsumerHook(h)
	if c.hook != h {
		t.Fatalf("hook not replaced")
	}

	c.WithConsumerHook(nil)
	if c.hook != h {
		t.Fatalf("nil must not clear the hook")
	}
}

func TestHookChainThreadsAndReports(t *testing.T) {
	ctx := context.Background()
	msg := kafka.Message{Topic: "t"}

	a, b := &countingHook{}, &countingHook{}
	chain := NewHookChain(a, nil, b)

	if _, _, _, err := chain.BeforeHandle(ctx, "t", msg, nil); err != nil {
		t.Fatalf("before: %v", err)
	}
	chain.AfterHandle(ctx, "t", msg, nil, nil)
	if a.before != 1 || b.before != 1 || a.after != 1 || b.after != 1 {
		t.Fatalf("counts = %+v %+v", a, b)
	}

	// A failing hook stops the chain and notifies every hook once.
	a.fail = true
	if _, _, _, err := chain.BeforeHandle(ctx, "t", msg, nil); err == nil {
		t.Fatalf("expected rejection to propagate")
	}
	if b.before != 1 {
		t.Fatalf("later hooks must not run after a rejection")
	}
	if a.onErr != 1 || b.onErr != 1 {
		t.Fatalf("error counts = %d %d", a.onErr, b.onErr)
	}
}

package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestCollectorAggregatesDuplicates(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		c.AddLog("error", "tool failed", map[string]interface{}{"tool": "web_search"}, "x.go:1")
	}
	c.AddLog("error", "tool failed", map[string]interface{}{"tool": "egyptian_news"}, "x.go:1")
	if got := c.Pending(); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}

	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(pub.batches))
	}
	total := 0
	for _, e := range pub.batches[0] {
		total += e.Count
	}
	if total != 4 {
		t.Fatalf("total count = %d, want 4", total)
	}
}

func TestLoggerErrorFeedsCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Publisher: pub})
	l.Error("llm call failed", Error(errors.New("timeout")), String("provider", "openai"))
	l.Warn("ignored by collector")
	if got := l.collector.Pending(); got != 1 {
		t.Fatalf("pending = %d, want 1", got)
	}
	l.RemoveCollector()
}

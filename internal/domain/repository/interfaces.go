package repository

import (
	"context"
	"errors"

	"FinAdvisor/internal/domain/models"
)

var ErrUnknownTable = errors.New("repository: unknown table")

// Filter is an equality predicate on one column.
type Filter struct {
	Column string
	Value  string
}

// Query narrows a table read. Zero value reads the whole table.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// ByUser is the filter every user-owned table read carries.
func ByUser(userID string) Query {
	return Query{Filters: []Filter{{Column: "user_id", Value: userID}}}
}

// TableReader gives read-only row access to named tables.
type TableReader interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
}

// EventPublisher emits pipeline events to the message bus.
type EventPublisher interface {
	PublishQueryEvent(ctx context.Context, ev models.QueryEvent) error
	Close() error
}

type Metrics interface {
	RecordRoute(path, queryType string)
	RecordToolResult(tool string, success bool, seconds float64)
	RecordLLMCall(purpose string, success bool, seconds float64)
	RecordMarketFetch(category string, rows int, err error)
	RecordConversion(path string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) RecordRoute(string, string) {}
func (NopMetrics) RecordToolResult(string, bool, float64) {}
func (NopMetrics) RecordLLMCall(string, bool, float64) {}
func (NopMetrics) RecordMarketFetch(string, int, error) {}
func (NopMetrics) RecordConversion(string) {}
func (NopMetrics) RecordError(string) {}
func (NopMetrics) RecordLatency(string, float64) {}

// OrNopMetrics returns m, or NopMetrics when m is nil.
func OrNopMetrics(m Metrics) Metrics {
	if m == nil {
		return NopMetrics{}
	}
	return m
}

package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Requests and responses for the HTTP entry points.

type ChatRequest struct {
	Message string `json:"message" validate:"notblank"`
	UserID  string `json:"userId"`
	ChatID  string `json:"chatId"`
	Locale  string `json:"locale"`
}

// UnmarshalJSON takes the optional fields in whatever scalar form a client
// sends them, so {"userId": 123} still reaches the pipeline. A message that
// is not a string decodes as blank.
func (r *ChatRequest) UnmarshalJSON(b []byte) error {
	var raw struct {
		Message json.RawMessage `json:"message"`
		UserID  json.RawMessage `json:"userId"`
		ChatID  json.RawMessage `json:"chatId"`
		Locale  json.RawMessage `json:"locale"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var msg string
	_ = json.Unmarshal(raw.Message, &msg)
	r.Message = msg
	r.UserID = scalarString(raw.UserID)
	r.ChatID = scalarString(raw.ChatID)
	r.Locale = scalarString(raw.Locale)
	return nil
}

// scalarString renders a JSON string, number or bool as text; anything else is "".
func scalarString(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return ""
	}
	switch v[0] {
	case '"':
		var s string
		_ = json.Unmarshal(v, &s)
		return s
	case 'n', '{', '[':
		return ""
	}
	return string(v)
}

type ChatResponse struct {
	Response       string   `json:"response"`
	Classification string   `json:"classification,omitempty"`
	ToolsUsed      []string `json:"tools_used,omitempty"`
}

type ConvertRequest struct {
	Amount float64 `query:"amount" json:"amount" default:"1" validate:"gte=0"`
	From   string  `query:"from" json:"from" validate:"required,currency"`
	To     string  `query:"to" json:"to" validate:"omitempty,currency"`
}

type ConvertResponse struct {
	Conversion
	Formatted string `json:"formatted"`
}

type RoutePath string

const (
	PathInstant  RoutePath = "instant"
	PathDetailed RoutePath = "detailed"
	PathSimple   RoutePath = "simple"
)

// QueryEvent is published after every routed query.
type QueryEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ChatID    string    `json:"chat_id,omitempty"`
	Path      RoutePath `json:"path"`
	QueryType QueryType `json:"query_type"`
	Tools     []string  `json:"tools,omitempty"`
	Degraded  bool      `json:"degraded"`
	LatencyMs int64     `json:"latency_ms"`
	At        time.Time `json:"at"`
}

// RateUpdate is the payload of a currency rate change notification.
type RateUpdate struct {
	Rates []CurrencyRate `json:"rates"`
}

package service

import (
	"context"
	"errors"
	"time"
)

var ErrEmptyCompletion = errors.New("language model returned no content")

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// LanguageModel completes a chat transcript. Implementations must map transport
// failures and malformed responses to errors rather than panicking.
type LanguageModel interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type SearchRequest struct {
	Query       string
	ResultCount int
}

type SearchHit struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Snippet       string `json:"snippet"`
	DisplaySource string `json:"displayLink"`
}

type WebSearcher interface {
	Search(ctx context.Context, req SearchRequest) ([]SearchHit, error)
}

// PageScraper fetches readable text for one URL. Failures are per URL.
type PageScraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

type NewsItem struct {
	Title     string    `json:"title"`
	Snippet   string    `json:"snippet"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
}

type NewsFetcher interface {
	Fetch(ctx context.Context, query string) ([]NewsItem, error)
}

type Quote struct {
	Symbol        string
	Name          string
	Price         float64
	Change        float64
	ChangePercent float64
	Currency      string
}

// QuoteProvider returns live quotes for exchange symbols.
type QuoteProvider interface {
	Quotes(ctx context.Context, symbols []string) ([]Quote, error)
}

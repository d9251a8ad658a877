package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"FinAdvisor/internal/domain/service"
	"FinAdvisor/pkg/cache"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/customsearch/v1"
	maxResultCount = 10
)

// GoogleSearcher queries the Google Custom Search JSON API.
type GoogleSearcher struct {
	client   *resty.Client
	apiKey   string
	engineID string
	cache    cache.Service
	ttl      time.Duration
}

var _ service.WebSearcher = (*GoogleSearcher)(nil)

type Option func(*GoogleSearcher)

// WithCache memoizes result lists per query.
func WithCache(c cache.Service, ttl time.Duration) Option {
	return func(s *GoogleSearcher) {
		s.cache = c
		s.ttl = ttl
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *GoogleSearcher) {
		if d > 0 {
			s.client.SetTimeout(d)
		}
	}
}

func NewGoogleSearcher(baseURL, apiKey, engineID string, opts ...Option) *GoogleSearcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	s := &GoogleSearcher{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10*time.Second).
			SetHeader("Accept", "application/json"),
		apiKey:   apiKey,
		engineID: engineID,
		ttl:      10 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type searchResponse struct {
	Items []service.SearchHit `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *GoogleSearcher) Search(ctx context.Context, req service.SearchRequest) ([]service.SearchHit, error) {
	if s.apiKey == "" || s.engineID == "" {
		return nil, errors.New("search: api key and engine id are required")
	}
	num := req.ResultCount
	if num <= 0 || num > maxResultCount {
		num = 5
	}
	key := cache.GenerateKeyWithParams("search", cache.HashKey(req.Query), num)
	return cache.GetOrLoad(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]service.SearchHit, error) {
		return s.fetch(ctx, req.Query, num)
	})
}

func (s *GoogleSearcher) fetch(ctx context.Context, query string, num int) ([]service.SearchHit, error) {
	var out searchResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key": s.apiKey,
			"cx":  s.engineID,
			"q":   query,
			"num": fmt.Sprint(num),
		}).
		SetResult(&out).
		SetError(&out).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	if resp.IsError() {
		if out.Error != nil {
			return nil, fmt.Errorf("search: status %d: %s", resp.StatusCode(), out.Error.Message)
		}
		return nil, fmt.Errorf("search: status %d", resp.StatusCode())
	}
	return out.Items, nil
}

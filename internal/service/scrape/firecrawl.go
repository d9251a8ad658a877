package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"FinAdvisor/internal/domain/service"
	applogger "FinAdvisor/pkg/logger"
	xutil "FinAdvisor/pkg/util"
)

const (
	DefaultBaseURL  = "https://api.firecrawl.dev/v1/scrape"
	defaultMaxChars = 3000
	userAgent       = "Mozilla/5.0 (compatible; FinAdvisor/1.0; +https://finadvisor.app)"
)

// Scraper fetches page text through a Firecrawl-style API and, when allowed,
// falls back to fetching the page directly.
type Scraper struct {
	api      *resty.Client
	direct   *resty.Client
	baseURL  string
	apiKey   string
	fallback bool
	maxChars int
	log      *applogger.Logger
}

var _ service.PageScraper = (*Scraper)(nil)

type Option func(*Scraper)

func WithDirectFallback(enabled bool) Option {
	return func(s *Scraper) { s.fallback = enabled }
}

func WithMaxChars(n int) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.maxChars = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		if d > 0 {
			s.api.SetTimeout(d)
			s.direct.SetTimeout(d)
		}
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(s *Scraper) { s.log = l }
}

func New(baseURL, apiKey string, opts ...Option) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	s := &Scraper{
		api:      resty.New().SetTimeout(15 * time.Second),
		direct:   resty.New().SetTimeout(15*time.Second).SetHeader("User-Agent", userAgent),
		baseURL:  baseURL,
		apiKey:   apiKey,
		maxChars: defaultMaxChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = applogger.OrNop(s.log)
	return s
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
	} `json:"data"`
	Error string `json:"error"`
}

func (s *Scraper) Scrape(ctx context.Context, url string) (string, error) {
	var apiErr error
	if s.apiKey != "" {
		text, err := s.viaAPI(ctx, url)
		if err == nil {
			return text, nil
		}
		apiErr = err
		s.log.Debug("scrape api failed", applogger.String("url", url), applogger.Error(err))
	}
	if !s.fallback {
		if apiErr == nil {
			apiErr = errors.New("scrape: no api key and direct fallback disabled")
		}
		return "", apiErr
	}
	return s.viaDirect(ctx, url)
}

func (s *Scraper) viaAPI(ctx context.Context, url string) (string, error) {
	var out scrapeResponse
	resp, err := s.api.R().
		SetContext(ctx).
		SetAuthToken(s.apiKey).
		SetBody(scrapeRequest{URL: url, Formats: []string{"markdown"}, OnlyMainContent: true}).
		SetResult(&out).
		SetError(&out).
		Post(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("scrape %s: %w", url, err)
	}
	if resp.IsError() || !out.Success {
		return "", fmt.Errorf("scrape %s: status %d %s", url, resp.StatusCode(), out.Error)
	}
	text := strings.TrimSpace(out.Data.Markdown)
	if text == "" {
		return "", fmt.Errorf("scrape %s: empty content", url)
	}
	return xutil.TruncateRunes(text, s.maxChars), nil
}

func (s *Scraper) viaDirect(ctx context.Context, url string) (string, error) {
	resp, err := s.direct.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.StatusCode() >= 300 {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", url, err)
	}
	text := ExtractText(doc)
	if text == "" {
		return "", fmt.Errorf("fetch %s: no readable text", url)
	}
	return xutil.TruncateRunes(text, s.maxChars), nil
}

var contentSelectors = []string{"article", "main", "[role=main]", ".article-body", ".entry-content", "body"}

// ExtractText returns the readable text of the main content block.
func ExtractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, header, footer, aside, form, iframe").Remove()
	for _, sel := range contentSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		var parts []string
		node.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
			if t := xutil.CollapseSpaces(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		if len(parts) == 0 {
			parts = append(parts, xutil.CollapseSpaces(node.Text()))
		}
		if text := strings.TrimSpace(strings.Join(parts, "\n")); text != "" {
			return text
		}
	}
	return ""
}

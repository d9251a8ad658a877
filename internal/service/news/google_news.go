package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"FinAdvisor/internal/domain/service"
	"FinAdvisor/pkg/cache"
	xutil "FinAdvisor/pkg/util"
)

const DefaultBaseURL = "https://news.google.com/rss/search"

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title string `xml:"title"`
	Items []item `xml:"item"`
}

type item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Source      source `xml:"source"`
}

type source struct {
	URL  string `xml:"url,attr"`
	Text string `xml:",chardata"`
}

// GoogleNews reads the Google News RSS search feed.
type GoogleNews struct {
	client   *resty.Client
	language string
	country  string
	maxItems int
	cache    cache.Service
	ttl      time.Duration
}

var _ service.NewsFetcher = (*GoogleNews)(nil)

type Option func(*GoogleNews)

func WithLocale(language, country string) Option {
	return func(g *GoogleNews) {
		if language != "" {
			g.language = language
		}
		if country != "" {
			g.country = strings.ToUpper(country)
		}
	}
}

func WithMaxItems(n int) Option {
	return func(g *GoogleNews) {
		if n > 0 {
			g.maxItems = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(g *GoogleNews) {
		if d > 0 {
			g.client.SetTimeout(d)
		}
	}
}

func WithCache(c cache.Service, ttl time.Duration) Option {
	return func(g *GoogleNews) {
		g.cache = c
		g.ttl = ttl
	}
}

func NewGoogleNews(baseURL string, opts ...Option) *GoogleNews {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	g := &GoogleNews{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10*time.Second).
			SetHeader("User-Agent", "Mozilla/5.0 (compatible; FinAdvisor/1.0)"),
		language: "ar",
		country:  "EG",
		maxItems: 5,
		ttl:      30 * time.Minute,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Fetch returns the newest items for query, newest first.
func (g *GoogleNews) Fetch(ctx context.Context, query string) ([]service.NewsItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("news: empty query")
	}
	key := cache.GenerateKeyWithParams("news", cache.HashKey(query), g.language, g.country)
	items, err := cache.GetOrLoad(ctx, g.cache, key, g.ttl, func(ctx context.Context) ([]service.NewsItem, error) {
		return g.fetch(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	if len(items) > g.maxItems {
		items = items[:g.maxItems]
	}
	return items, nil
}

func (g *GoogleNews) fetch(ctx context.Context, query string) ([]service.NewsItem, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":    query,
			"hl":   g.language,
			"gl":   g.country,
			"ceid": g.country + ":" + g.language,
		}).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("news request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("news: status %d", resp.StatusCode())
	}

	var feed rss
	if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
		return nil, fmt.Errorf("news: parse feed: %w", err)
	}

	out := make([]service.NewsItem, 0, len(feed.Channel.Items))
	for _, it := range feed.Channel.Items {
		title := xutil.CollapseSpaces(it.Title)
		if title == "" || it.Link == "" {
			continue
		}
		published, _ := parsePubDate(it.PubDate)
		out = append(out, service.NewsItem{
			Title:     title,
			Snippet:   stripHTML(it.Description),
			Link:      strings.TrimSpace(it.Link),
			Source:    xutil.CollapseSpaces(it.Source.Text),
			Published: published,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Published.After(out[j].Published) })
	return out, nil
}

func parsePubDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC1123, time.RFC1123Z, time.RFC822Z} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// stripHTML turns an RSS description fragment into plain text.
func stripHTML(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return xutil.CollapseSpaces(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return xutil.CollapseSpaces(fragment)
	}
	return xutil.CollapseSpaces(doc.Text())
}

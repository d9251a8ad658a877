package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"FinAdvisor/internal/domain/models"
	"FinAdvisor/internal/domain/service"
	xutil "FinAdvisor/pkg/util"
)

const maxNewsItems = 5

var errNoNews = errors.New("no news items")

// NewsTool summarizes recent Egyptian financial news for the raw message.
type NewsTool struct {
	fetcher service.NewsFetcher
	now     func() time.Time
}

func NewNewsTool(fetcher service.NewsFetcher) *NewsTool {
	return &NewsTool{fetcher: fetcher, now: time.Now}
}

func (t *NewsTool) Name() models.ToolName { return models.ToolEgyptianNews }

func (t *NewsTool) Run(ctx context.Context, in Input) (any, error) {
	if t.fetcher == nil {
		return nil, errors.New("news fetcher not configured")
	}
	items, err := t.fetcher.Fetch(ctx, in.Message)
	if err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	if len(items) == 0 {
		return nil, errNoNews
	}
	if len(items) > maxNewsItems {
		items = items[:maxNewsItems]
	}
	return t.summarize(items, xutil.ContainsArabic(in.Message)), nil
}

func (t *NewsTool) summarize(items []service.NewsItem, arabic bool) models.NewsPayload {
	p := models.NewsPayload{
		KeyInsights: make([]string, 0, len(items)),
		Sources:     make([]models.Source, 0, len(items)),
	}
	titles := make([]string, 0, len(items))
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		titles = append(titles, title)
		insight := title
		if s := strings.TrimSpace(it.Snippet); s != "" && s != title {
			insight = title + ": " + xutil.TruncateRunes(s, 200)
		}
		p.KeyInsights = append(p.KeyInsights, insight)
		if it.Link != "" {
			p.Sources = append(p.Sources, models.Source{Title: title, URL: it.Link, Publisher: it.Source})
		}
		if it.Published.After(p.LastUpdated) {
			p.LastUpdated = it.Published
		}
	}
	if p.LastUpdated.IsZero() {
		p.LastUpdated = t.now()
	}

	if arabic {
		p.Summary = fmt.Sprintf("أحدث %d أخبار: %s", len(titles), strings.Join(titles, " | "))
	} else {
		p.Summary = fmt.Sprintf("Latest %d headlines: %s", len(titles), strings.Join(titles, " | "))
	}
	return p
}

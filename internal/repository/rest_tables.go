package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	domrepo "FinAdvisor/internal/domain/repository"
	pkghttp "FinAdvisor/pkg/http"
	applogger "FinAdvisor/pkg/logger"
)

// PostgRESTTables reads tables through a Supabase/PostgREST endpoint.
type PostgRESTTables struct {
	client  *pkghttp.Client
	baseURL string
	apiKey  string
	retries int
	l       *applogger.Logger
}

var _ domrepo.TableReader = (*PostgRESTTables)(nil)

func NewPostgRESTTables(baseURL, apiKey string, timeout time.Duration, retries int) *PostgRESTTables {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PostgRESTTables{
		client:  pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		retries: retries,
	}
}

// SetLogger injects a structured logger.
func (s *PostgRESTTables) SetLogger(l *applogger.Logger) { s.l = l }

func (s *PostgRESTTables) Select(ctx context.Context, table string, q domrepo.Query) ([]domrepo.Row, error) {
	if !domrepo.IsKnownTable(table) {
		return nil, fmt.Errorf("%w: %s", domrepo.ErrUnknownTable, table)
	}
	start := time.Now()
	var rows []domrepo.Row
	err := s.client.SendAndParseWithRetry(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         s.baseURL + "/rest/v1/" + table,
		Headers:     s.headers(),
		QueryParams: restParams(q),
	}, &rows, s.retries)
	if err != nil {
		if s.l != nil {
			s.l.Error("rest select error",
				applogger.String("table", table),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	if s.l != nil {
		s.l.Debug("rest select ok",
			applogger.String("table", table),
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return rows, nil
}

func (s *PostgRESTTables) headers() map[string]string {
	return map[string]string{
		"apikey":        s.apiKey,
		"Authorization": "Bearer " + s.apiKey,
		"Accept":        "application/json",
	}
}

// restParams renders q in PostgREST query syntax.
func restParams(q domrepo.Query) map[string][]string {
	params := map[string][]string{"select": {"*"}}
	for _, f := range q.Filters {
		params[f.Column] = append(params[f.Column], "eq."+f.Value)
	}
	if q.OrderBy != "" {
		dir := "asc"
		if q.Desc {
			dir = "desc"
		}
		params["order"] = []string{q.OrderBy + "." + dir}
	}
	if q.Limit > 0 {
		params["limit"] = []string{strconv.Itoa(q.Limit)}
	}
	return params
}

package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	domrepo "FinAdvisor/internal/domain/repository"
	pkgch "FinAdvisor/pkg/clickhouse"
	applogger "FinAdvisor/pkg/logger"
)

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type queryMapper interface {
	QueryMaps(ctx context.Context, query string, args ...any) ([]map[string]any, error)
}

// ClickHouseTables reads market tables from ClickHouse.
type ClickHouseTables struct {
	db queryMapper
	l  *applogger.Logger
}

var _ domrepo.TableReader = (*ClickHouseTables)(nil)

func NewClickHouseTables(ch *pkgch.Client) *ClickHouseTables {
	return &ClickHouseTables{db: ch}
}

// SetLogger injects a structured logger.
func (s *ClickHouseTables) SetLogger(l *applogger.Logger) { s.l = l }

func (s *ClickHouseTables) Select(ctx context.Context, table string, q domrepo.Query) ([]domrepo.Row, error) {
	query, args, err := buildSelect(table, q)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	maps, err := s.db.QueryMaps(ctx, query, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse select error",
				applogger.String("table", table),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	rows := make([]domrepo.Row, len(maps))
	for i, m := range maps {
		rows[i] = domrepo.Row(m)
	}
	if s.l != nil {
		s.l.Debug("clickhouse select ok",
			applogger.String("table", table),
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return rows, nil
}

// buildSelect renders q as a parameterised query. Table and column names are
// validated since they cannot be bound.
func buildSelect(table string, q domrepo.Query) (string, []any, error) {
	if !domrepo.IsKnownTable(table) {
		return "", nil, fmt.Errorf("%w: %s", domrepo.ErrUnknownTable, table)
	}
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(table)

	args := make([]any, 0, len(q.Filters)+1)
	for i, f := range q.Filters {
		if !identifier.MatchString(f.Column) {
			return "", nil, fmt.Errorf("select %s: invalid column %q", table, f.Column)
		}
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(f.Column)
		b.WriteString(" = ?")
		args = append(args, f.Value)
	}
	if q.OrderBy != "" {
		if !identifier.MatchString(q.OrderBy) {
			return "", nil, fmt.Errorf("select %s: invalid order column %q", table, q.OrderBy)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(q.OrderBy)
		if q.Desc {
			b.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	return b.String(), args, nil
}

package repository

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	xutil "FinAdvisor/pkg/util"
)

// Row is one loosely typed record as returned by a storage backend.
type Row map[string]any

// String returns the first non-empty value among keys, rendered as text.
func (r Row) String(keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case *string:
			if t == nil {
				continue
			}
			s = *t
		case []byte:
			s = string(t)
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// Float returns the first numeric value among keys.
func (r Row) Float(keys ...string) (float64, bool) {
	for _, k := range keys {
		if f, ok := toFloat(r[k]); ok {
			return f, true
		}
	}
	return 0, false
}

// FloatOr returns Float or def.
func (r Row) FloatOr(def float64, keys ...string) float64 {
	if f, ok := r.Float(keys...); ok {
		return f
	}
	return def
}

// Time returns the first parseable timestamp among keys.
func (r Row) Time(keys ...string) (time.Time, bool) {
	for _, k := range keys {
		switch t := r[k].(type) {
		case time.Time:
			return t, true
		case *time.Time:
			if t != nil {
				return *t, true
			}
		case string:
			if ts, ok := xutil.ParseTime(t); ok {
				return ts, true
			}
			if ts, err := time.Parse("2006-01-02", t); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// Bool reads a boolean, accepting "true"/"1" strings. Missing keys yield def.
func (r Row) Bool(def bool, key string) bool {
	switch t := r[key].(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b
		}
	case float64:
		return t != 0
	}
	return def
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case *float64:
		if t == nil {
			return 0, false
		}
		return *t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case fmt.Stringer:
		f, err := strconv.ParseFloat(t.String(), 64)
		return f, err == nil
	}
	return 0, false
}

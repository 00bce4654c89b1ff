package metabase

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	mb "github.com/angelmondragon/sellerpulse-backend/pkg/metabase"
)

// text returns the first non-empty column among keys.
func text(row mb.Row, keys ...string) string {
	for _, key := range keys {
		switch v := row[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// number reads a loosely typed numeric column. Exports sometimes carry
// numbers as strings with thousands separators, currency or percent signs.
// Missing, null and unparsable values yield nil.
func number(row mb.Row, key string) *float64 {
	switch v := row[key].(type) {
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return &f
		}
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case bool:
		f := 0.0
		if v {
			f = 1
		}
		return &f
	case string:
		s := strings.NewReplacer(",", "", "$", "", "%", "", " ", "").Replace(v)
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}

// date reads a date or timestamp column.
func date(row mb.Row, key string) (civil.Date, bool) {
	s := text(row, key)
	if s == "" {
		return civil.Date{}, false
	}
	if len(s) >= 10 {
		if d, err := civil.ParseDate(s[:10]); err == nil {
			return d, true
		}
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return civil.DateOf(ts), true
	}
	return civil.Date{}, false
}

func integer(row mb.Row, key string) int {
	if f := number(row, key); f != nil {
		return int(*f)
	}
	return 0
}

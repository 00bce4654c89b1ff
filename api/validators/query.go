package validators

import (
	"net/http"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/samber/lo"

	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
)

func ParseQueryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a boolean").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// ParseQueryDate reads a YYYY-MM-DD parameter; absent yields the zero date.
func ParseQueryDate(r *http.Request, key string) (civil.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return civil.Date{}, nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a YYYY-MM-DD date").WithDetails(map[string]any{"field": key, "value": raw})
	}
	return d, nil
}

// ParseQueryDates accepts repeated and comma separated dates.
func ParseQueryDates(r *http.Request, key string) ([]civil.Date, error) {
	raws := ParseQueryList(r, key)
	out := make([]civil.Date, 0, len(raws))
	for _, raw := range raws {
		d, err := civil.ParseDate(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must list YYYY-MM-DD dates").WithDetails(map[string]any{"field": key, "value": raw})
		}
		out = append(out, d)
	}
	return out, nil
}

// ParseQueryList accepts repeated and comma separated values, trimmed and
// without empties.
func ParseQueryList(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		out = append(out, strings.Split(raw, ",")...)
	}
	out = lo.Map(out, func(s string, _ int) string { return strings.TrimSpace(s) })
	return lo.Compact(out)
}

package analytics

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/sellerpulse-backend/api/validators"
	"github.com/angelmondragon/sellerpulse-backend/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
)

const maxSellerLen = 256

// sellerParam reads the {seller} path segment. Seller names may contain
// spaces and other escaped characters.
func sellerParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "seller")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	seller := validators.SanitizeString(raw, maxSellerLen)
	if seller == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "seller is required").WithDetails(map[string]any{"field": "seller"})
	}
	return seller, nil
}

// decodeOptional decodes a JSON body when one is sent; an empty body keeps
// dest's zero value.
func decodeOptional(r *http.Request, dest any) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return validators.Struct(dest)
	}
	return validators.DecodeJSONBody(r, dest)
}

func metricsRequest(r *http.Request) (types.MetricsRequest, error) {
	seller, err := sellerParam(r)
	if err != nil {
		return types.MetricsRequest{}, err
	}
	var req types.MetricsRequest
	if err := decodeOptional(r, &req); err != nil {
		return types.MetricsRequest{}, err
	}
	req.Seller = seller
	return req, nil
}

func gapsRequest(r *http.Request) (types.GapsRequest, error) {
	seller, err := sellerParam(r)
	if err != nil {
		return types.GapsRequest{}, err
	}
	start, err := validators.ParseQueryDate(r, "start_date")
	if err != nil {
		return types.GapsRequest{}, err
	}
	end, err := validators.ParseQueryDate(r, "end_date")
	if err != nil {
		return types.GapsRequest{}, err
	}
	query := r.URL.Query()
	return types.GapsRequest{
		Seller:      seller,
		Granularity: query.Get("granularity"),
		Level:       query.Get("aggregation_level"),
		Source:      query.Get("source"),
		StartDate:   start,
		EndDate:     end,
	}, nil
}

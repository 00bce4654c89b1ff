package analytics

import (
	"net/http"

	"github.com/angelmondragon/sellerpulse-backend/api/responses"
	"github.com/angelmondragon/sellerpulse-backend/internal/analytics"
	"github.com/angelmondragon/sellerpulse-backend/internal/analytics/types"
	"github.com/angelmondragon/sellerpulse-backend/pkg/logger"
)

func Metrics(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req, err := metricsRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := service.Metrics(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CumulativeMetrics(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req, err := metricsRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := service.CumulativeMetrics(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Pivot(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		seller, err := sellerParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req types.PivotRequest
		if err := decodeOptional(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		req.Seller = seller
		result, err := service.Pivot(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ExportCSV renders the pivot as a CSV download.
func ExportCSV(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		seller, err := sellerParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req types.ExportRequest
		if err := decodeOptional(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		req.Seller = seller
		export, err := service.ExportCSV(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCSV(w, export.Filename, export.Data)
	}
}

func YoY(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		seller, err := sellerParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req types.YoYRequest
		if err := decodeOptional(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		req.Seller = seller
		result, err := service.YoY(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

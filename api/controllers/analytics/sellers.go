package analytics

import (
	"net/http"

	"github.com/angelmondragon/sellerpulse-backend/api/responses"
	"github.com/angelmondragon/sellerpulse-backend/api/validators"
	"github.com/angelmondragon/sellerpulse-backend/internal/analytics"
	"github.com/angelmondragon/sellerpulse-backend/pkg/logger"
)

func ListSellers(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := service.Sellers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func SellerASINs(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		seller, err := sellerParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := service.Hierarchy(ctx, seller)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Coverage(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		seller, err := sellerParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := service.Coverage(ctx, seller)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Gaps(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req, err := gapsRequest(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := service.Gaps(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func FilterOptions(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := service.FilterOptions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Refresh drops a seller's cached snapshots; ?warm=true reloads them
// straight away.
func Refresh(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		seller, err := sellerParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		warm, err := validators.ParseQueryBool(r, "warm", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := service.Refresh(ctx, seller, warm)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, result)
	}
}

package tools

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/angelmondragon/sellerpulse-backend/api/responses"
	"github.com/angelmondragon/sellerpulse-backend/api/validators"
	"github.com/angelmondragon/sellerpulse-backend/internal/tools"
	"github.com/angelmondragon/sellerpulse-backend/pkg/logger"
)

// Executor runs a named tool call.
type Executor interface {
	Execute(ctx context.Context, name string, args json.RawMessage) (any, error)
}

type executeRequest struct {
	Name      string          `json:"name" validate:"required,max=64"`
	Arguments json.RawMessage `json:"arguments"`
}

type executeResponse struct {
	Tool   string `json:"tool"`
	Result any    `json:"result"`
}

func List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defs := tools.Definitions()
		responses.WriteSuccess(w, map[string]any{"tools": defs, "count": len(defs)})
	}
}

func Execute(executor Executor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req executeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := executor.Execute(ctx, req.Name, req.Arguments)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, executeResponse{Tool: req.Name, Result: result})
	}
}

package responses

import (
	"context"
	"encoding/json"
	"net/http"

	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
	"github.com/dmercado-dev/shopforge-backend/pkg/types"
)

// WriteSuccess renders data inside the standard envelope.
func WriteSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.SuccessEnvelope{Data: data})
}

// WriteError maps a coded error onto its HTTP shape. Unknown errors collapse
// to a 500 with no internals leaked; the full chain goes to the log instead.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := pkgerrors.As(err)
	code := pkgerrors.CodeInternal
	if typed != nil {
		code = typed.Code()
	}
	meta := pkgerrors.MetadataFor(code)

	if meta.HTTPStatus >= http.StatusInternalServerError && logg != nil {
		ctx = logg.WithField(ctx, "error_dump", pkgerrors.Dump(err))
		logg.Error(ctx, "request failed", err)
	}

	body := types.APIError{
		Code:    string(code),
		Message: meta.PublicMessage,
	}
	if typed != nil && meta.DetailsAllowed {
		if typed.Message() != "" {
			body.Message = typed.Message()
		}
		body.Details = typed.Details()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(meta.HTTPStatus)
	_ = json.NewEncoder(w).Encode(types.ErrorEnvelope{Error: body})
}

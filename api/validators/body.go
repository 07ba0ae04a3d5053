package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeAndValidate parses a JSON body into dst and runs struct validation.
func DecodeAndValidate(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "validation setup failed")
		}
		details := map[string]string{}
		for _, fieldErr := range fieldErrs {
			details[fieldErr.Field()] = fmt.Sprintf("failed %q constraint", fieldErr.Tag())
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "request body validation failed").WithDetails(details)
	}
	return nil
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ucu-innovators/hub/backend/pkg/logger"
	"github.com/ucu-innovators/hub/backend/pkg/response"
)

func init() {
	// report JSON field names in validation errors
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	}
}

// bindError turns a gin binding failure into a client error.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]response.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, response.FieldError{Field: fe.Field(), Message: validationMessage(fe)})
		}
		return response.NewValidation(fields...)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return response.NewBadRequest("Request body is required")
	case errors.As(err, &syntaxErr):
		return response.NewBadRequest("Malformed JSON body")
	case errors.As(err, &typeErr):
		return response.NewValidation(response.FieldError{Field: typeErr.Field, Message: "Invalid value type"})
	}
	logger.Warn().Err(err).Msg("request binding failed")
	return response.NewBadRequest("Invalid request parameters")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Please provide a valid email"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " cannot exceed " + fe.Param() + " characters"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

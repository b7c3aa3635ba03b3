package api

import (
	"errors"
	"net/http"

	"github.com/Skufu/hearttriage/internal/triage"
)

// Error codes returned alongside the message in JSON error bodies.
const (
	codeMissingField     = "MISSING_FIELD"
	codeInvalidField     = "INVALID_FIELD"
	codeInvalidBody      = "INVALID_BODY"
	codeBodyTooLarge     = "BODY_TOO_LARGE"
	codeModelUnavailable = "MODEL_UNAVAILABLE"
	codePredictionFailed = "PREDICTION_FAILED"
	codeUnknownTier      = "UNKNOWN_TIER"
	codeStoreFailed      = "STORE_FAILED"
	codeInternal         = "INTERNAL"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// bodyError is a request body that could not be read or decoded.
type bodyError struct {
	cause error
}

func (e *bodyError) Error() string {
	return "invalid JSON payload: " + e.cause.Error()
}

func (e *bodyError) Unwrap() error { return e.cause }

func badBody(err error) error {
	return &bodyError{cause: err}
}

// storeError is a failure of the patient record store.
type storeError struct {
	cause error
}

func (e *storeError) Error() string {
	return "patient store: " + e.cause.Error()
}

func (e *storeError) Unwrap() error { return e.cause }

// errorResponse maps an error to its HTTP status and JSON body.
func errorResponse(err error) (int, errorBody) {
	var (
		missing  *triage.MissingFieldError
		coercion *triage.TypeCoercionError
		tier     *triage.UnknownTierError
		predict  *triage.PredictionError
		body     *bodyError
		tooLarge *http.MaxBytesError
		st       *storeError
	)

	switch {
	case errors.As(err, &missing):
		return http.StatusBadRequest, errorBody{Error: err.Error(), Code: codeMissingField, Field: missing.Field}
	case errors.As(err, &coercion):
		return http.StatusBadRequest, errorBody{Error: err.Error(), Code: codeInvalidField, Field: coercion.Field}
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large", Code: codeBodyTooLarge}
	case errors.As(err, &body):
		return http.StatusBadRequest, errorBody{Error: err.Error(), Code: codeInvalidBody}
	case errors.Is(err, triage.ErrModelUnavailable):
		return http.StatusServiceUnavailable, errorBody{Error: err.Error(), Code: codeModelUnavailable}
	case errors.As(err, &tier):
		return http.StatusInternalServerError, errorBody{Error: err.Error(), Code: codeUnknownTier}
	case errors.As(err, &predict):
		return http.StatusInternalServerError, errorBody{Error: err.Error(), Code: codePredictionFailed}
	case errors.As(err, &st):
		return http.StatusInternalServerError, errorBody{Error: err.Error(), Code: codeStoreFailed}
	default:
		return http.StatusInternalServerError, errorBody{Error: err.Error(), Code: codeInternal}
	}
}

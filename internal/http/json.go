package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/target/onboard-ui/internal/domain/popup"
	"github.com/target/onboard-ui/internal/domain/wizard"
	apperrors "github.com/target/onboard-ui/internal/errors"
	"github.com/target/onboard-ui/internal/imaging"
)

// statusClientClosedRequest is logged when the caller went away before we answered.
const statusClientClosedRequest = 499

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteError writes a JSON error response. The public code and message are
// derived from Err so internal details never reach the client.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, errorBody{
		Error:   p.ErrCode,
		Code:    string(apperrors.PublicCodeOf(p.Err)),
		Message: publicMessage(p.Err),
		Field:   apperrors.GetField(p.Err),
	})
}

// WriteAppError classifies err and writes it with the matching status.
func WriteAppError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	WriteError(w, ErrorParams{Code: status, ErrCode: errCodeFor(err, status), Err: err})
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, wizard.ErrUnknownStep), errors.Is(err, popup.ErrMissingType), apperrors.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, imaging.ErrNoImageData):
		return http.StatusUnprocessableEntity
	case apperrors.IsUnauthorized(err):
		return http.StatusUnauthorized
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsConflict(err), errors.Is(err, popup.ErrDuplicateID):
		return http.StatusConflict
	case apperrors.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case apperrors.IsCanceled(err), errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case apperrors.GetCode(err) == apperrors.ErrCodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errCodeFor(err error, status int) string {
	switch {
	case errors.Is(err, wizard.ErrUnknownStep):
		return "unknown_step"
	case errors.Is(err, imaging.ErrNoImageData):
		return "no_image_data"
	case errors.Is(err, popup.ErrDuplicateID):
		return "duplicate_modal"
	case errors.Is(err, popup.ErrMissingType):
		return "missing_modal_type"
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	if status == statusClientClosedRequest {
		return "canceled"
	}
	return "internal"
}

// publicMessage is UserMessage with the contract-violation sentinels spelled out.
func publicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, wizard.ErrUnknownStep):
		return "That step does not exist."
	case errors.Is(err, imaging.ErrNoImageData):
		return "Choose a picture first."
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return "The request body is not valid JSON."
	}
	return apperrors.UserMessage(err)
}

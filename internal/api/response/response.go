// internal/api/response/response.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/newthinker/orderdesk/internal/core"
)

// Meta contains response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// SuccessResponse is the envelope for the /api routes.
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// JSON writes data inside the success envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	Raw(w, status, SuccessResponse{
		Data: data,
		Meta: Meta{Timestamp: time.Now().UTC()},
	})
}

// Raw writes v as the whole JSON body. The dashboard endpoints use it
// because their clients read top-level fields.
func Raw(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Text writes a plain text body.
func Text(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(msg))
}

// Error writes an error response. Errors other than *core.Error are
// reported as INTERNAL_ERROR without detail.
func Error(w http.ResponseWriter, status int, err error) {
	detail := ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	}

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		detail.Code = coreErr.Code
		detail.Message = coreErr.Message
		if coreErr.Cause != nil {
			detail.Cause = coreErr.Cause.Error()
		}
	}

	Raw(w, status, ErrorResponse{Error: detail})
}

// StatusFor maps a core error to the HTTP status the handlers answer with.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrOrderNotFound),
		errors.Is(err, core.ErrQRCodeNotFound),
		errors.Is(err, core.ErrMenuItemNotFound),
		errors.Is(err, core.ErrItemOptionNotFound),
		errors.Is(err, core.ErrSeatNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidOption),
		errors.Is(err, core.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrCSRFMissing),
		errors.Is(err, core.ErrCSRFInvalid):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

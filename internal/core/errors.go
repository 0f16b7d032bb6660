// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Store errors
	ErrOrderNotFound      = &Error{Code: "ORDER_NOT_FOUND", Message: "order not found"}
	ErrCanteenNotFound    = &Error{Code: "CANTEEN_NOT_FOUND", Message: "canteen not found"}
	ErrLabNotFound        = &Error{Code: "LAB_NOT_FOUND", Message: "lab not found"}
	ErrSeatNotFound       = &Error{Code: "SEAT_NOT_FOUND", Message: "seat not found"}
	ErrQRCodeNotFound     = &Error{Code: "QR_CODE_NOT_FOUND", Message: "qr code not found"}
	ErrMenuItemNotFound   = &Error{Code: "MENU_ITEM_NOT_FOUND", Message: "menu item not found"}
	ErrItemOptionNotFound = &Error{Code: "ITEM_OPTION_NOT_FOUND", Message: "item option not found"}
	ErrInvalidOption      = &Error{Code: "INVALID_OPTION", Message: "option does not belong to the selected menu item"}
	ErrInvalidStatus      = &Error{Code: "INVALID_STATUS", Message: "unknown order status"}

	// Dashboard client errors
	ErrNetworkFailure = &Error{Code: "NETWORK_FAILURE", Message: "request failed"}
	ErrHTTPStatus     = &Error{Code: "HTTP_STATUS", Message: "unexpected http status"}
	ErrParseFailure   = &Error{Code: "PARSE_FAILURE", Message: "malformed response body"}

	// CSRF errors
	ErrCSRFMissing = &Error{Code: "CSRF_MISSING", Message: "csrf token missing"}
	ErrCSRFInvalid = &Error{Code: "CSRF_INVALID", Message: "csrf token incorrect"}

	// Notifier errors
	ErrNotifierFailed = &Error{Code: "NOTIFIER_FAILED", Message: "notifier failed"}

	// Archive errors
	ErrArchiveFailed = &Error{Code: "ARCHIVE_FAILED", Message: "archive storage failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)

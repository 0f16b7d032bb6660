// internal/api/response/response_test.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newthinker/orderdesk/internal/core"
)

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"status": "ok"}

	JSON(w, http.StatusOK, data)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected application/json content type")
	}

	var resp SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data == nil {
		t.Error("expected data in response")
	}
	if resp.Meta.Timestamp.IsZero() {
		t.Error("expected timestamp in meta")
	}
}

func TestRaw_NoEnvelope(t *testing.T) {
	w := httptest.NewRecorder()

	Raw(w, http.StatusOK, core.Stats{NewCount: 3, DeliveredCount: 7})

	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["new_count"] != float64(3) || got["delivered_count"] != float64(7) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
	if _, ok := got["data"]; ok {
		t.Error("raw body should not be enveloped")
	}
}

func TestText(t *testing.T) {
	w := httptest.NewRecorder()

	Text(w, http.StatusBadRequest, "Please select an item")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if w.Body.String() != "Please select an item" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestError_WithCoreError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusNotFound, core.WrapError(core.ErrOrderNotFound, errors.New("abc")))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "ORDER_NOT_FOUND" {
		t.Errorf("expected ORDER_NOT_FOUND, got %s", resp.Error.Code)
	}
	if resp.Error.Cause != "abc" {
		t.Errorf("expected cause abc, got %q", resp.Error.Cause)
	}
}

func TestError_WithStandardError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusInternalServerError, errors.New("disk on fire"))

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", resp.Error.Code)
	}
	if resp.Error.Cause != "" {
		t.Error("standard errors should not leak a cause")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.WrapError(core.ErrOrderNotFound, nil), http.StatusNotFound},
		{core.ErrQRCodeNotFound, http.StatusNotFound},
		{core.ErrItemOptionNotFound, http.StatusNotFound},
		{core.ErrInvalidOption, http.StatusBadRequest},
		{core.ErrCSRFInvalid, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCSRF_SafeMethodPasses(t *testing.T) {
	handler := CSRF()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestCSRF_Unsafe(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
		want   int
	}{
		{"no cookie", "", "abc", http.StatusForbidden},
		{"no token", "abc", "", http.StatusForbidden},
		{"mismatch", "abc", "abd", http.StatusForbidden},
		{"match", "abc", "abc", http.StatusOK},
	}

	handler := CSRF()(okHandler())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mark_order_done/x/", strings.NewReader("{}"))
			req.Header.Set("Content-Type", "application/json")
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(HeaderName, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestCSRF_FormField(t *testing.T) {
	handler := CSRF()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the form stays readable downstream
		if r.PostFormValue("item_id") != "7" {
			t.Errorf("expected item_id 7, got %q", r.PostFormValue("item_id"))
		}
		w.WriteHeader(http.StatusOK)
	}))

	form := url.Values{FieldName: {"tok"}, "item_id": {"7"}}
	req := httptest.NewRequest(http.MethodPost, "/place_order/q/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "tok"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestCSRF_ErrorBody(t *testing.T) {
	handler := CSRF()(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "abc"})
	req.Header.Set(HeaderName, "xyz")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "CSRF_INVALID") {
		t.Errorf("expected CSRF_INVALID in body, got %s", w.Body.String())
	}
}

func TestEnsureToken(t *testing.T) {
	t.Run("issues cookie when absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		token := EnsureToken(w, req, true)
		if len(token) != 32 {
			t.Errorf("expected 32 char token, got %q", token)
		}

		cookies := w.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("expected 1 cookie, got %d", len(cookies))
		}
		if cookies[0].Name != CookieName || cookies[0].Value != token {
			t.Errorf("unexpected cookie %+v", cookies[0])
		}
		if !cookies[0].Secure {
			t.Error("expected secure cookie")
		}
	})

	t.Run("reuses existing cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: "existing"})
		w := httptest.NewRecorder()

		if token := EnsureToken(w, req, false); token != "existing" {
			t.Errorf("expected existing token, got %q", token)
		}
		if len(w.Result().Cookies()) != 0 {
			t.Error("expected no new cookie")
		}
	})
}

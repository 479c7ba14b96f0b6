package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func nopLogger() *zap.Logger { return zap.NewNop() }

func TestRouter_RejectsNonJSONBody(t *testing.T) {
	h := NewRouter(&AuthHandler{AuthService: &fakeAuthService{}}, &WordHandler{}, &TelegramHandler{}, &LookupHandler{}, nopLogger())

	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewBufferString("email=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", rec.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	h := NewRouter(&AuthHandler{AuthService: &fakeAuthService{}}, &WordHandler{}, &TelegramHandler{}, &LookupHandler{}, nopLogger())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/auth/logout", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "flashvocab_http_requests_total") {
		t.Error("expected request counter in exposition")
	}
}

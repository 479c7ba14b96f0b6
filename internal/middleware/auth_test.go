package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// dummyHandler is a placeholder that records if it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

type fakeResolver map[string]string

func (f fakeResolver) Authenticate(ctx context.Context, token string) (string, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return "", errors.New("unknown token")
}

func TestBearerAuth_NoToken(t *testing.T) {
	dummy := &dummyHandler{}
	h := BearerAuth(fakeResolver{})(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/words", nil)
	h.ServeHTTP(rec, req)

	if dummy.called {
		t.Error("did not expect next handler to be called without a token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized, got %d", rec.Code)
	}
}

func TestBearerAuth_InvalidToken(t *testing.T) {
	dummy := &dummyHandler{}
	h := BearerAuth(fakeResolver{"good": "u1"})(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/words", nil)
	req.Header.Set("Authorization", "Bearer bad")
	h.ServeHTTP(rec, req)

	if dummy.called {
		t.Error("did not expect next handler to be called for an unknown token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized, got %d", rec.Code)
	}
}

func TestBearerAuth_Valid(t *testing.T) {
	dummy := &dummyHandler{}
	h := BearerAuth(fakeResolver{"good": "u1"})(dummy)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/words", nil)
	req.Header.Set("Authorization", "bearer good")
	h.ServeHTTP(rec, req)

	if !dummy.called {
		t.Fatal("expected next handler to be called with a valid token")
	}
	if got := GetUserIDFromContext(dummy.ctx); got != "u1" {
		t.Errorf("expected user ID 'u1', got '%s'", got)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"BEARER  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := BearerToken(req); got != tt.want {
			t.Errorf("BearerToken(%q) = %q; want %q", tt.header, got, tt.want)
		}
	}
}

func TestGetUserIDFromContext_Missing(t *testing.T) {
	if got := GetUserIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty string, got '%s'", got)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithRequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	h := WithRequestLogging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("hello"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ok", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/fail", nil))

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	ok := entries[0].ContextMap()
	if ok["path"] != "/ok" || ok["status"] != int64(200) || ok["size"] != int64(5) {
		t.Errorf("unexpected fields: %v", ok)
	}
	if entries[1].Level != zap.WarnLevel || entries[1].ContextMap()["status"] != int64(500) {
		t.Errorf("expected warn entry for 500, got %v %v", entries[1].Level, entries[1].ContextMap())
	}
}

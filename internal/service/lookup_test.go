package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookupService_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("langpair"); got != "en|vi" {
			t.Errorf("langpair = %q", got)
		}
		switch r.URL.Query().Get("q") {
		case "run":
			_, _ = w.Write([]byte(`{"responseData":{"translatedText":" chạy "}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()
	svc := NewLookupService(srv.URL, "http://unused", srv.Client(), nil)

	got, err := svc.Translate(context.Background(), "run")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "chạy" {
		t.Errorf("Translate = %q; want chạy", got)
	}
	if _, err := svc.Translate(context.Background(), "boom"); err == nil {
		t.Error("expected upstream error")
	}
	if _, err := svc.Translate(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("error = %v; want ErrInvalidInput", err)
	}
}

func TestLookupService_Example(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/run", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"meanings":[
			{"definitions":[{"definition":"move"}]},
			{"definitions":[{"definition":"operate","example":"Run the tests."}]}
		]}]`))
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"meanings":[{"definitions":[{"definition":"x"}]}]}]`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	svc := NewLookupService("http://unused", srv.URL+"/", srv.Client(), nil)

	tests := []struct {
		word    string
		want    string
		wantErr bool
	}{
		{"Run", "Run the tests.", false},
		{"plain", "", false},
		{"unknown", "", false},
		{"broken", "", true},
	}
	for _, tt := range tests {
		got, err := svc.Example(context.Background(), tt.word)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Example(%q) error = %v; wantErr %v", tt.word, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Example(%q) = %q; want %q", tt.word, got, tt.want)
		}
	}
}

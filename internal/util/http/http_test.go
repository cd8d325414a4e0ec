package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			if !strings.HasPrefix(r.UserAgent(), UserAgentName+"/") {
				t.Errorf("Expected landtint user agent, got %q", r.UserAgent())
			}
			if r.Header.Get("X-Test") != "yes" {
				t.Errorf("Expected custom header, got %q", r.Header.Get("X-Test"))
			}
			w.Write([]byte("payload"))
		case "/big":
			w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.Error(w, "nope", http.StatusTeapot)
		}
	}))
	defer srv.Close()

	data, err := Fetch(context.Background(), srv.URL+"/ok", FetchOptions{Headers: map[string]string{"X-Test": "yes"}})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Expected payload, got %q", data)
	}

	if _, err := Fetch(context.Background(), srv.URL+"/teapot", FetchOptions{}); err == nil || !strings.Contains(err.Error(), "418") {
		t.Errorf("Expected HTTP 418 error, got %v", err)
	}

	if _, err := Fetch(context.Background(), srv.URL+"/big", FetchOptions{MaxBytes: 16}); err == nil {
		t.Error("Expected size limit error")
	}
}

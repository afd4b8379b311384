package content

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/talentsync/interviewd/internal/model"
)

func TestClientDescribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/describe" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key-1" {
			t.Fatalf("missing api key header")
		}
		json.NewEncoder(w).Encode(map[string]string{"description": "a single person at a desk"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-1", time.Second)
	description, err := client.Describe(context.Background(), "frame-data")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if description != "a single person at a desk" {
		t.Fatalf("unexpected description %q", description)
	}
}

func TestClientModerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"flagged": true})
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-1", time.Second)
	flagged, err := client.Moderate(context.Background(), "some text")
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}
	if !flagged {
		t.Fatal("expected flagged")
	}
}

func TestClientSurfacesTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-1", time.Second)
	_, err := client.Transcribe(context.Background(), "audio-data")
	if !errors.Is(err, model.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

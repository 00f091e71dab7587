package openrouter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	modelswitch "github.com/haowjy/modelswitch-go"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewProvider("sk-test", srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	return p
}

func TestGenerateNext(t *testing.T) {
	var got CompletionRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing auth header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"id":"gen-1","model":"google/gemma-3-4b-it","choices":[{"text":" blue","finish_reason":"length"}]}`)
	})

	resp, err := p.GenerateNext(context.Background(), &modelswitch.NextTokenRequest{
		Model:     "google/gemma-3-4b-it",
		Prompt:    "The sky is",
		Generated: " very",
	})
	if err != nil {
		t.Fatalf("GenerateNext() error = %v", err)
	}
	if resp.Text != " blue" || resp.Done {
		t.Errorf("response = %+v", resp)
	}
	if got.Prompt != "The sky is very" || got.MaxTokens != 1 || got.Stream {
		t.Errorf("request = %+v", got)
	}
}

func TestGenerateNext_FinishReasons(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantDone bool
		wantErr  error
	}{
		{"natural stop", `{"choices":[{"text":"","finish_reason":"stop"}]}`, true, nil},
		{"stop with final text", `{"choices":[{"text":".","finish_reason":"stop"}]}`, false, nil},
		{"no choices", `{"choices":[]}`, false, modelswitch.ErrModelProtocol},
		{"error in 200 body", `{"error":{"code":503,"message":"upstream down"}}`, false, modelswitch.ErrModelUnavailable},
		{"garbage", `<html>`, false, modelswitch.ErrModelProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			})
			resp, err := p.GenerateNext(context.Background(), &modelswitch.NextTokenRequest{Model: "a/b"})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if resp.Done != tt.wantDone {
				t.Errorf("Done = %v, want %v", resp.Done, tt.wantDone)
			}
		})
	}
}

func TestHandleErrorResponse(t *testing.T) {
	tests := []struct {
		status      int
		unavailable bool
		retryable   bool
	}{
		{http.StatusUnauthorized, true, false},
		{http.StatusPaymentRequired, true, false},
		{http.StatusRequestTimeout, true, true},
		{http.StatusTooManyRequests, true, true},
		{http.StatusBadRequest, false, false},
		{http.StatusBadGateway, true, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, `{"error":{"code":0,"message":"nope"}}`)
			})
			_, err := p.GenerateNext(context.Background(), &modelswitch.NextTokenRequest{Model: "a/b"})
			if modelswitch.IsModelUnavailable(err) != tt.unavailable {
				t.Errorf("IsModelUnavailable(%v) = %v", err, !tt.unavailable)
			}
			if modelswitch.IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable(%v) = %v", err, !tt.retryable)
			}
		})
	}
}

func TestSupportsModel(t *testing.T) {
	p, err := NewProvider("k", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !p.SupportsModel("meta-llama/llama-3.1-8b-instruct") || p.SupportsModel("gemma3:4b") {
		t.Error("SupportsModel mismatch")
	}
	if _, err := NewProvider("", "", 0); !errors.Is(err, modelswitch.ErrInvalidAPIKey) {
		t.Errorf("empty key: %v", err)
	}
}

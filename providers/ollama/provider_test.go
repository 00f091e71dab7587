package ollama

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	modelswitch "github.com/haowjy/modelswitch-go"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewProvider(srv.URL)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	return p
}

func TestGenerateNext_SendsOneTokenRawRequest(t *testing.T) {
	var got generateRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		fmt.Fprintln(w, `{"model":"gemma3:4b","response":" Paris","done":false}`)
		fmt.Fprintln(w, `{"model":"gemma3:4b","response":"","done":true,"done_reason":"length"}`)
	})

	temp := 0.2
	resp, err := p.GenerateNext(context.Background(), &modelswitch.NextTokenRequest{
		Model:     "gemma3:4b",
		Prompt:    "Question: capital of France?\n\nAnswer:",
		Generated: " It is",
		Params:    &modelswitch.RequestParams{Temperature: &temp},
	})
	if err != nil {
		t.Fatalf("GenerateNext() error = %v", err)
	}

	if resp.Text != " Paris" || resp.Done {
		t.Errorf("response = %+v", resp)
	}
	if resp.Provider != modelswitch.ProviderOllama {
		t.Errorf("Provider = %s", resp.Provider)
	}

	if got.Prompt != "Question: capital of France?\n\nAnswer: It is" {
		t.Errorf("prompt = %q, want full context", got.Prompt)
	}
	if !got.Raw || !got.Stream || got.Options.NumPredict != 1 {
		t.Errorf("request flags = %+v", got)
	}
	if got.Options.Temperature != 0.2 {
		t.Errorf("temperature = %v", got.Options.Temperature)
	}
}

func TestGenerateNext_DefaultTemperature(t *testing.T) {
	var got generateRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprintln(w, `{"response":"x","done":false}`)
	})

	if _, err := p.GenerateNext(context.Background(), &modelswitch.NextTokenRequest{Model: "m", Prompt: "p"}); err != nil {
		t.Fatal(err)
	}
	if got.Options.Temperature != modelswitch.DefaultTemperature {
		t.Errorf("temperature = %v, want %v", got.Options.Temperature, modelswitch.DefaultTemperature)
	}
}

func TestGenerateNext_EndOfGeneration(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"done flag on first line", "{\"response\":\"\",\"done\":true,\"done_reason\":\"stop\"}\n"},
		{"empty stream", ""},
		{"only blank lines", "\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			})
			resp, err := p.GenerateNext(context.Background(), &modelswitch.NextTokenRequest{Model: "m"})
			if err != nil {
				t.Fatalf("end of generation must not be an error: %v", err)
			}
			if !resp.Done {
				t.Errorf("Done = false, response = %+v", resp)
			}
		})
	}
}

func TestGenerateNext_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   error
		retryable bool
	}{
		{"model not pulled", http.StatusNotFound, `{"error":"model 'x' not found, try pulling it first"}`, modelswitch.ErrModelUnavailable, false},
		{"daemon overloaded", http.StatusServiceUnavailable, `{"error":"server busy"}`, modelswitch.ErrModelUnavailable, true},
		{"bad request", http.StatusBadRequest, `{"error":"invalid options"}`, modelswitch.ErrModelProtocol, false},
		{"malformed line", http.StatusOK, "not json\n", modelswitch.ErrModelProtocol, false},
		{"error line in stream", http.StatusOK, `{"error":"llama runner crashed"}` + "\n", modelswitch.ErrModelProtocol, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := p.GenerateNext(context.Background(), &modelswitch.NextTokenRequest{Model: "x"})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if modelswitch.IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable = %v, want %v", !tt.retryable, tt.retryable)
			}
		})
	}
}

func TestGenerateNext_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	p, err := NewProvider(addr)
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.GenerateNext(context.Background(), &modelswitch.NextTokenRequest{Model: "m"})
	if !modelswitch.IsModelUnavailable(err) {
		t.Errorf("error = %v, want model unavailable", err)
	}
}

func TestGenerateNext_Cancelled(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.GenerateNext(ctx, &modelswitch.NextTokenRequest{Model: "m"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if modelswitch.IsRetryable(err) {
		t.Error("cancellation must not be retryable")
	}
}

func TestListModels(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `{"models":[{"name":"gemma3:4b"},{"model":"gemma3:270m"}]}`)
	})

	models, err := p.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if strings.Join(models, ",") != "gemma3:4b,gemma3:270m" {
		t.Errorf("models = %v", models)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", DefaultBaseURL, false},
		{"localhost:11434", "http://localhost:11434", false},
		{"http://10.0.0.5:11434/", "http://10.0.0.5:11434", false},
		{"https://ollama.internal", "https://ollama.internal", false},
		{"ftp://host", "", true},
		{"http://", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeBaseURL(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, %v", tt.in, got, err)
		}
		if err != nil && !modelswitch.IsInvalidConfig(err) {
			t.Errorf("error should be an invalid config error")
		}
	}
}

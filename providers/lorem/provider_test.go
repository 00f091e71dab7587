package lorem

import (
	"context"
	"errors"
	"strings"
	"testing"

	modelswitch "github.com/haowjy/modelswitch-go"
)

func TestProvider_SupportsModel(t *testing.T) {
	provider := NewProvider()

	tests := []struct {
		model    string
		expected bool
	}{
		{"lorem-big", true},
		{"lorem-small", true},
		{"lorem-anything", true},
		{"claude-haiku-4-5", false},
		{"gemma3:4b", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := provider.SupportsModel(tt.model); got != tt.expected {
				t.Errorf("SupportsModel(%q) = %v, want %v", tt.model, got, tt.expected)
			}
		})
	}
}

func TestProvider_GenerateNext(t *testing.T) {
	provider := NewProvider(WithoutDelay())

	resp, err := provider.GenerateNext(context.Background(), &modelswitch.NextTokenRequest{
		Model:  "lorem-big",
		Prompt: "Question: hi\n\nAnswer:",
	})
	if err != nil {
		t.Fatalf("GenerateNext() error = %v", err)
	}
	if resp.Done {
		t.Fatal("first token should not end generation")
	}
	if !strings.HasPrefix(resp.Text, " ") || strings.TrimSpace(resp.Text) == "" {
		t.Errorf("expected a single space-prefixed word, got %q", resp.Text)
	}
	if len(strings.Fields(resp.Text)) != 1 {
		t.Errorf("expected exactly one word, got %q", resp.Text)
	}
	if resp.Provider != modelswitch.ProviderLorem || resp.Model != "lorem-big" {
		t.Errorf("response metadata = %+v", resp)
	}
}

func TestProvider_EndAfter(t *testing.T) {
	provider := NewProvider(WithoutDelay(), WithEndAfter(3))

	resp, err := provider.GenerateNext(context.Background(), &modelswitch.NextTokenRequest{
		Model:     "lorem-small",
		Generated: " one two three",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Done || resp.Text != "" {
		t.Errorf("expected end of generation with no text, got %+v", resp)
	}
}

func TestProvider_Cancelled(t *testing.T) {
	provider := NewProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.GenerateNext(ctx, &modelswitch.NextTokenRequest{Model: "lorem-slow"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestProvider_RejectsForeignModel(t *testing.T) {
	_, err := NewProvider(WithoutDelay()).GenerateNext(context.Background(), &modelswitch.NextTokenRequest{Model: "gpt-4"})
	if !errors.Is(err, modelswitch.ErrInvalidModel) {
		t.Errorf("error = %v, want ErrInvalidModel", err)
	}
}

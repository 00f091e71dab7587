package modelswitch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryClient(t *testing.T) {
	unavailable := NewUnavailableError(ProviderOllama, errors.New("connection reset"))
	protocol := NewProtocolError(ProviderOllama, "garbage")

	tests := []struct {
		name      string
		failures  []error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{"success first try", nil, 3, 1, nil},
		{"recovers after transient failure", []error{unavailable}, 3, 2, nil},
		{"gives up after max attempts", []error{unavailable, unavailable, unavailable}, 3, 3, ErrModelUnavailable},
		{"protocol errors are not retried", []error{protocol}, 3, 1, ErrModelProtocol},
		{"single attempt", []error{unavailable}, 1, 1, ErrModelUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			next := ModelClientFunc(func(ctx context.Context, req *NextTokenRequest) (*ModelResponse, error) {
				calls++
				if calls <= len(tt.failures) {
					return nil, tt.failures[calls-1]
				}
				return &ModelResponse{Text: "ok"}, nil
			})

			c := NewRetryClient(next, RetryConfig{MaxAttempts: tt.attempts, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})
			c.sleep = func(ctx context.Context, d time.Duration) error { return nil }

			resp, err := c.GenerateNext(context.Background(), &NextTokenRequest{Model: "m"})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil {
				if err != nil || resp.Text != "ok" {
					t.Errorf("GenerateNext() = %+v, %v", resp, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryClient_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	next := ModelClientFunc(func(ctx context.Context, req *NextTokenRequest) (*ModelResponse, error) {
		calls++
		return nil, NewUnavailableError(ProviderOllama, ctx.Err())
	})

	c := NewRetryClient(next, DefaultRetryConfig())
	if _, err := c.GenerateNext(ctx, &NextTokenRequest{}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

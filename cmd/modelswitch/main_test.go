package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	modelswitch "github.com/haowjy/modelswitch-go"
	"github.com/haowjy/modelswitch-go/internal/config"
	"github.com/haowjy/modelswitch-go/providers/lorem"
)

// testApp isolates config discovery and keeps cli.Exit from exiting the test binary.
func testApp(t *testing.T, stdin string) (*cli.Command, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Chdir(dir)

	var out bytes.Buffer
	app := newApp(strings.NewReader(stdin), &out)
	app.ExitErrHandler = func(context.Context, *cli.Command, error) {}
	return app, &out
}

func TestAsk_Lorem(t *testing.T) {
	app, out := testApp(t, "")

	err := app.Run(context.Background(), []string{
		"modelswitch", "--big", "lorem-big", "--small", "lorem-small",
		"--no-color", "-m", "6", "--min-tokens", "2", "-r", "0.5",
		"why is the sky blue?",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"[big=lorem-big, small=lorem-small, ratio=0.5]",
		"\n---\nTokens: 6 | Big: 4 | Small: 2 (33%)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestAsk_PromptsForQuestion(t *testing.T) {
	app, out := testApp(t, "what is 2+2?\n")

	err := app.Run(context.Background(), []string{
		"modelswitch", "ask", "--big", "lorem-big", "--small", "lorem-small", "--no-color", "-m", "2",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "Question: ") {
		t.Errorf("expected interactive prompt, got %q", out.String())
	}
}

func TestAsk_InvalidRatio(t *testing.T) {
	app, _ := testApp(t, "")

	err := app.Run(context.Background(), []string{
		"modelswitch", "--big", "lorem-big", "--small", "lorem-small", "-r", "1.5", "hi",
	})
	var exit cli.ExitCoder
	if !errors.As(err, &exit) || exit.ExitCode() != 2 {
		t.Fatalf("error = %v, want exit code 2", err)
	}
}

type failingProvider struct{ after int }

func (p *failingProvider) Name() modelswitch.ProviderID    { return modelswitch.ProviderOllama }
func (p *failingProvider) SupportsModel(model string) bool { return true }
func (p *failingProvider) GenerateNext(ctx context.Context, req *modelswitch.NextTokenRequest) (*modelswitch.ModelResponse, error) {
	if strings.Count(req.Generated, " ") >= p.after {
		return nil, modelswitch.NewUnavailableError(p.Name(), errors.New("connection refused"))
	}
	return &modelswitch.ModelResponse{Text: " tok"}, nil
}

func TestRunAsk_FailureShowsPartialOutput(t *testing.T) {
	cfg := config.Default()
	cfg.NoColor = true
	cfg.MinWarmupTokens = 0
	reg := modelswitch.NewRegistry(&failingProvider{after: 3}, lorem.NewProvider())

	var out bytes.Buffer
	err := runAsk(context.Background(), cfg, reg, "hi", &out)

	var exit cli.ExitCoder
	if !errors.As(err, &exit) || exit.ExitCode() != 1 {
		t.Fatalf("error = %v, want exit code 1", err)
	}
	got := out.String()
	if !strings.Contains(got, " tok tok tok") {
		t.Errorf("partial output missing:\n%s", got)
	}
	// positions 0 and 2 are small with no warm-up
	if !strings.Contains(got, "Tokens: 3 | Big: 1 | Small: 2 (67%)") {
		t.Errorf("summary of emitted tokens missing:\n%s", got)
	}
	if !strings.Contains(got, "error: ") {
		t.Errorf("error line missing:\n%s", got)
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	app, out := testApp(t, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "big_model: lorem-big\nsmall_model: lorem-small\nmax_tokens: 3\nmin_warmup_tokens: 0\nno_color: true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	err := app.Run(context.Background(), []string{"modelswitch", "--config", path, "-m", "4", "hi"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// models, warm-up and color come from the file; max tokens from the flag
	if !strings.Contains(out.String(), "[big=lorem-big, small=lorem-small, ratio=0.5]") {
		t.Errorf("config file ignored:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Tokens: 4 | Big: 2 | Small: 2 (50%)") {
		t.Errorf("flag did not override file:\n%s", out.String())
	}
}

func TestVersion(t *testing.T) {
	app, out := testApp(t, "")
	if err := app.Run(context.Background(), []string{"modelswitch", "version"}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "version: ") {
		t.Errorf("got %q", out.String())
	}
}

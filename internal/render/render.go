// Package render prints a run to a terminal, coloring each token by the
// model that produced it.
package render

import (
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/lipgloss"

	modelswitch "github.com/haowjy/modelswitch-go"
)

var (
	warmupColor = lipgloss.Color("#87CEEB")
	smallColor  = lipgloss.Color("#FF6B6B")
	dimColor    = lipgloss.Color("#555555")
)

// Renderer writes run output to w. Warm-up tokens are light blue, small
// model tokens red and big model tokens plain.
type Renderer struct {
	w       io.Writer
	noColor bool

	warmup lipgloss.Style
	small  lipgloss.Style
	dim    lipgloss.Style
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithoutColor prints tokens verbatim.
func WithoutColor() Option {
	return func(r *Renderer) { r.noColor = true }
}

// New creates a Renderer. Color support is detected from w, so pipes and
// buffers get plain text.
func New(w io.Writer, opts ...Option) *Renderer {
	lr := lipgloss.NewRenderer(w)
	r := &Renderer{
		w:      w,
		warmup: lr.NewStyle().Foreground(warmupColor),
		small:  lr.NewStyle().Foreground(smallColor),
		dim:    lr.NewStyle().Foreground(dimColor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Header prints the run banner, e.g. [big=gemma3:4b, small=gemma3:270m, ratio=0.5].
func (r *Renderer) Header(cfg modelswitch.GenerationConfig) error {
	_, err := fmt.Fprintf(r.w, "\n%s\n\n", cfg.String())
	return err
}

// Token prints one token as soon as it arrives. It has the switcher.EmitFunc shape.
func (r *Renderer) Token(ev modelswitch.TokenEvent) error {
	_, err := io.WriteString(r.w, r.style(ev))
	return err
}

func (r *Renderer) style(ev modelswitch.TokenEvent) string {
	if r.noColor {
		return ev.Text
	}
	switch {
	case ev.Phase == modelswitch.PhaseWarmup:
		return r.warmup.Render(ev.Text)
	case ev.Role == modelswitch.RoleSmall:
		return r.small.Render(ev.Text)
	default:
		return ev.Text
	}
}

// Summary prints the separator and token counts.
func (r *Renderer) Summary(s *modelswitch.RunSummary) error {
	_, err := fmt.Fprintf(r.w, "\n\n---\n%s\n", FormatSummary(s))
	return err
}

// Cost prints the estimated cost line when the tracker could price the run.
func (r *Renderer) Cost(c *CostTracker) error {
	line, ok := c.Line()
	if !ok {
		return nil
	}
	text := line
	if !r.noColor {
		text = r.dim.Render(line)
	}
	_, err := fmt.Fprintln(r.w, text)
	return err
}

// Error prints a failure after the partial output.
func (r *Renderer) Error(err error) error {
	text := "error: " + err.Error()
	if !r.noColor {
		text = r.small.Render(text)
	}
	_, werr := fmt.Fprintln(r.w, text)
	return werr
}

// FormatSummary renders "Tokens: N | Big: B | Small: S (P%)". P is 0 when
// nothing was emitted.
func FormatSummary(s *modelswitch.RunSummary) string {
	if s == nil {
		s = &modelswitch.RunSummary{}
	}
	pct := int(math.Round(s.SmallFraction() * 100))
	return fmt.Sprintf("Tokens: %d | Big: %d | Small: %d (%d%%)", s.Total, s.Big, s.Small, pct)
}

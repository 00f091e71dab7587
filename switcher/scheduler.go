// Package switcher drives token-level generation across a big and a small model.
//
// A Scheduler owns the selection policy and the shared context for exactly one
// run. For each position it picks a model, sends that model the complete
// context (prompt plus every token so far, whichever model produced it), and
// emits the returned token tagged with its provenance. The loop is strictly
// sequential: at most one model call is outstanding at any time.
//
// A run ends cleanly when MaxTokens tokens have been emitted or when the
// selected model signals end of generation. Any model failure ends the run
// with a *RunError carrying the partial output; the scheduler never retries
// and never substitutes the other model.
package switcher

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	modelswitch "github.com/haowjy/modelswitch-go"
)

// Binding attaches a model client to one role.
type Binding struct {
	Client   modelswitch.ModelClient
	Provider modelswitch.ProviderID
}

// Models holds the two role bindings of a run.
type Models struct {
	Big   Binding
	Small Binding
}

// For returns the binding of role.
func (m Models) For(role modelswitch.Role) Binding {
	if role == modelswitch.RoleSmall {
		return m.Small
	}
	return m.Big
}

// EmitFunc receives each token as soon as it is generated.
// Returning an error aborts the run.
type EmitFunc func(ev modelswitch.TokenEvent) error

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPolicy overrides the policy derived from the config.
func WithPolicy(p Policy) Option {
	return func(s *Scheduler) { s.policy = p }
}

// WithObserver adds a telemetry observer. Repeated options all receive events.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = Observers(s.observer, o) }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// Scheduler runs one generation. Create it with New.
type Scheduler struct {
	cfg      modelswitch.GenerationConfig
	models   Models
	policy   Policy
	observer Observer
	logger   *zap.Logger
	started  atomic.Bool
}

// New validates cfg and prepares a run. Invalid configs are rejected here,
// before any model is called, with an error wrapping modelswitch.ErrInvalidConfig.
func New(cfg modelswitch.GenerationConfig, models Models, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if models.Big.Client == nil {
		return nil, &modelswitch.ValidationError{Field: "big_model", Value: cfg.BigModel, Reason: "no client bound"}
	}
	if models.Small.Client == nil {
		return nil, &modelswitch.ValidationError{Field: "small_model", Value: cfg.SmallModel, Reason: "no client bound"}
	}

	s := &Scheduler{
		cfg:      cfg,
		models:   models,
		observer: NopObserver{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy == nil {
		s.policy = PolicyFor(cfg)
	}
	return s, nil
}

// Config returns the run configuration.
func (s *Scheduler) Config() modelswitch.GenerationConfig {
	return s.cfg
}

// Generate validates cfg and runs it to completion, delivering tokens to emit.
func Generate(ctx context.Context, cfg modelswitch.GenerationConfig, models Models, emit EmitFunc, opts ...Option) (*modelswitch.RunSummary, error) {
	s, err := New(cfg, models, opts...)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, emit)
}

// Run generates until a terminal state, calling emit for each token as it
// arrives. Cancellation of ctx is honored between tokens.
//
// On failure Run returns a *RunError together with a summary of the tokens
// emitted so far (StopReason empty). A Scheduler can only run once.
func (s *Scheduler) Run(ctx context.Context, emit EmitFunc) (*modelswitch.RunSummary, error) {
	if !s.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}

	start := time.Now()
	gc := NewGenerationContext(s.cfg.Prompt)
	summary := &modelswitch.RunSummary{}

	log := s.logger.With(
		zap.String("big_model", s.cfg.BigModel),
		zap.String("small_model", s.cfg.SmallModel),
	)
	log.Info("generation started",
		zap.Float64("switch_ratio", s.cfg.SwitchRatio),
		zap.Int("min_warmup_tokens", s.cfg.MinWarmupTokens),
		zap.Int("max_tokens", s.cfg.MaxTokens),
	)

	fail := func(role modelswitch.Role, model string, err error) (*modelswitch.RunSummary, error) {
		runErr := &RunError{
			Emitted:   gc.Position(),
			Role:      role,
			Model:     model,
			Generated: gc.Generated(),
			Err:       err,
		}
		s.finish(summary, gc, start)
		log.Error("generation failed",
			zap.Int("emitted", runErr.Emitted),
			zap.String("role", role.String()),
			zap.Error(err),
		)
		s.observer.OnFinish(summary, runErr)
		return summary, runErr
	}

	for gc.Position() < s.cfg.MaxTokens {
		pos := gc.Position()
		if err := ctx.Err(); err != nil {
			return fail("", "", err)
		}

		role := s.policy.Select(pos)
		model := s.cfg.ModelFor(role)
		client := s.models.For(role).Client

		callStart := time.Now()
		resp, err := client.GenerateNext(ctx, gc.Request(model, s.cfg.Params))
		latency := time.Since(callStart)
		if err == nil && resp == nil {
			err = modelswitch.NewProtocolError(s.models.For(role).Provider, "empty response for model %s", model)
		}
		if err != nil {
			s.observer.OnFailure(role, err)
			return fail(role, model, err)
		}

		if resp.Done || resp.Text == "" {
			log.Debug("end of generation",
				zap.Int("position", pos),
				zap.String("role", role.String()),
				zap.String("stop_reason", resp.StopReason),
			)
			summary.StopReason = modelswitch.StopReasonEndOfGeneration
			break
		}

		ev := modelswitch.TokenEvent{
			Text:     resp.Text,
			Role:     role,
			Position: pos,
			Phase:    Phase(pos, s.cfg.MinWarmupTokens),
			Model:    model,
		}
		if emit != nil {
			if err := emit(ev); err != nil {
				return fail(role, model, err)
			}
		}
		gc.Append(ev.Text, role)
		count(summary, ev)
		s.observer.OnToken(ev, latency)

		log.Debug("token",
			zap.Int("position", pos),
			zap.String("role", role.String()),
			zap.Duration("latency", latency),
		)
	}

	if summary.StopReason == "" {
		summary.StopReason = modelswitch.StopReasonMaxTokens
	}
	s.finish(summary, gc, start)
	log.Info("generation finished",
		zap.Int("tokens", summary.Total),
		zap.Int("small", summary.Small),
		zap.String("stop_reason", summary.StopReason),
		zap.Duration("duration", summary.Duration),
	)
	s.observer.OnFinish(summary, nil)
	return summary, nil
}

// Stream runs the generation on its own goroutine and delivers one
// StreamEvent per token, then a final event carrying either the summary or
// the error. The channel is closed after the final event. Cancelling ctx
// stops the run at the next token boundary.
func (s *Scheduler) Stream(ctx context.Context) <-chan modelswitch.StreamEvent {
	ch := make(chan modelswitch.StreamEvent)

	go func() {
		defer close(ch)

		send := func(ev modelswitch.StreamEvent) error {
			select {
			case ch <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		summary, err := s.Run(ctx, func(ev modelswitch.TokenEvent) error {
			return send(modelswitch.StreamEvent{Token: &ev})
		})
		if err != nil {
			_ = send(modelswitch.StreamEvent{Error: err})
			return
		}
		_ = send(modelswitch.StreamEvent{Summary: summary})
	}()

	return ch
}

func (s *Scheduler) finish(summary *modelswitch.RunSummary, gc *GenerationContext, start time.Time) {
	summary.Text = gc.Generated()
	summary.Duration = time.Since(start)
}

func count(summary *modelswitch.RunSummary, ev modelswitch.TokenEvent) {
	summary.Total++
	if ev.Role == modelswitch.RoleSmall {
		summary.Small++
	} else {
		summary.Big++
	}
	if ev.Phase == modelswitch.PhaseWarmup {
		summary.Warmup++
	}
}

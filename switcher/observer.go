package switcher

import (
	"time"

	modelswitch "github.com/haowjy/modelswitch-go"
)

// Observer receives run telemetry. Calls happen on the run's goroutine, in
// order, so implementations must not block.
type Observer interface {
	// OnToken is called for every emitted token with the latency of the model call
	OnToken(ev modelswitch.TokenEvent, latency time.Duration)

	// OnFailure is called when a model call fails
	OnFailure(role modelswitch.Role, err error)

	// OnFinish is called once per run; err is nil for clean completions
	OnFinish(summary *modelswitch.RunSummary, err error)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) OnToken(modelswitch.TokenEvent, time.Duration) {}
func (NopObserver) OnFailure(modelswitch.Role, error)             {}
func (NopObserver) OnFinish(*modelswitch.RunSummary, error)       {}

// Observers fans every call out to each of obs in order.
func Observers(obs ...Observer) Observer {
	var out multiObserver
	for _, o := range obs {
		switch o := o.(type) {
		case nil, NopObserver:
		case multiObserver:
			out = append(out, o...)
		default:
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return NopObserver{}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

type multiObserver []Observer

func (m multiObserver) OnToken(ev modelswitch.TokenEvent, latency time.Duration) {
	for _, o := range m {
		o.OnToken(ev, latency)
	}
}

func (m multiObserver) OnFailure(role modelswitch.Role, err error) {
	for _, o := range m {
		o.OnFailure(role, err)
	}
}

func (m multiObserver) OnFinish(summary *modelswitch.RunSummary, err error) {
	for _, o := range m {
		o.OnFinish(summary, err)
	}
}

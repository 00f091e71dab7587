package switcher

import (
	"math/rand/v2"

	modelswitch "github.com/haowjy/modelswitch-go"
)

// Policy decides which model answers a position.
// Implementations are consulted once per position, in increasing order.
type Policy interface {
	Select(position int) modelswitch.Role
}

// Phase reports the scheduler state for a position.
func Phase(position, warmup int) modelswitch.Phase {
	if position < warmup {
		return modelswitch.PhaseWarmup
	}
	return modelswitch.PhaseSwitching
}

// Periodic is the reference policy: after warm-up, every Nth position is
// small, starting with the first switching position.
type Periodic struct {
	Warmup   int
	Interval int // 0 means never small
}

// NewPeriodic builds the periodic policy for ratio r with N = round(1/r).
func NewPeriodic(warmup int, r float64) *Periodic {
	return &Periodic{Warmup: warmup, Interval: modelswitch.SmallInterval(r)}
}

// Select implements Policy.
func (p *Periodic) Select(position int) modelswitch.Role {
	if position < p.Warmup || p.Interval <= 0 {
		return modelswitch.RoleBig
	}
	if (position-p.Warmup)%p.Interval == 0 {
		return modelswitch.RoleSmall
	}
	return modelswitch.RoleBig
}

// Random flips a seeded coin with probability Ratio at each switching
// position. It matches the periodic policy in expectation, with variance.
type Random struct {
	Warmup int
	Ratio  float64
	rng    *rand.Rand
}

// NewRandom builds a reproducible random policy.
func NewRandom(warmup int, r float64, seed int64) *Random {
	return &Random{
		Warmup: warmup,
		Ratio:  r,
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
	}
}

// Select implements Policy.
func (p *Random) Select(position int) modelswitch.Role {
	if position < p.Warmup || p.Ratio <= 0 {
		return modelswitch.RoleBig
	}
	if p.Ratio >= 1 || p.rng.Float64() < p.Ratio {
		return modelswitch.RoleSmall
	}
	return modelswitch.RoleBig
}

// PolicyFor builds the policy a config asks for. The name is normalized the
// same way GenerationConfig.Validate reads it.
func PolicyFor(cfg modelswitch.GenerationConfig) Policy {
	if kind, err := modelswitch.ParsePolicyKind(string(cfg.Policy)); err == nil && kind == modelswitch.PolicyRandom {
		return NewRandom(cfg.MinWarmupTokens, cfg.SwitchRatio, cfg.Seed)
	}
	return NewPeriodic(cfg.MinWarmupTokens, cfg.SwitchRatio)
}

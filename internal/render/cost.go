package render

import (
	"fmt"
	"time"

	modelswitch "github.com/haowjy/modelswitch-go"
)

// charsPerToken approximates tokenizer output for pricing.
const charsPerToken = 4

// CostTracker estimates what a run costs from catalog prices. Every token
// call sends the whole context, so input usage grows with each position.
// It implements switcher.Observer.
type CostTracker struct {
	catalog *modelswitch.CapabilityRegistry
	models  map[modelswitch.Role]pricedModel

	contextChars int
	inputChars   map[modelswitch.Role]int
	outputTokens map[modelswitch.Role]int
}

type pricedModel struct {
	provider modelswitch.ProviderID
	model    string
}

// NewCostTracker prices the big and small models of a run. A nil catalog
// uses the global one.
func NewCostTracker(catalog *modelswitch.CapabilityRegistry, cfg modelswitch.GenerationConfig, bigProvider, smallProvider modelswitch.ProviderID) *CostTracker {
	if catalog == nil {
		catalog = modelswitch.GetCapabilityRegistry()
	}
	return &CostTracker{
		catalog: catalog,
		models: map[modelswitch.Role]pricedModel{
			modelswitch.RoleBig:   {bigProvider, cfg.BigModel},
			modelswitch.RoleSmall: {smallProvider, cfg.SmallModel},
		},
		contextChars: len(cfg.Prompt),
		inputChars:   map[modelswitch.Role]int{},
		outputTokens: map[modelswitch.Role]int{},
	}
}

func (c *CostTracker) OnToken(ev modelswitch.TokenEvent, _ time.Duration) {
	c.inputChars[ev.Role] += c.contextChars
	c.outputTokens[ev.Role]++
	c.contextChars += len(ev.Text)
}

func (c *CostTracker) OnFailure(modelswitch.Role, error) {}

func (c *CostTracker) OnFinish(*modelswitch.RunSummary, error) {}

// Estimate returns the USD cost of the run so far and the cost of the same
// output had the big model produced every token. ok is false when either
// model is missing from the catalog.
func (c *CostTracker) Estimate() (actual, bigOnly float64, ok bool) {
	big := c.models[modelswitch.RoleBig]
	small := c.models[modelswitch.RoleSmall]

	bigCost, ok := c.catalog.EstimateCost(big.provider, big.model,
		c.inputChars[modelswitch.RoleBig]/charsPerToken, c.outputTokens[modelswitch.RoleBig])
	if !ok {
		return 0, 0, false
	}
	smallCost, ok := c.catalog.EstimateCost(small.provider, small.model,
		c.inputChars[modelswitch.RoleSmall]/charsPerToken, c.outputTokens[modelswitch.RoleSmall])
	if !ok {
		return 0, 0, false
	}
	bigOnly, _ = c.catalog.EstimateCost(big.provider, big.model,
		(c.inputChars[modelswitch.RoleBig]+c.inputChars[modelswitch.RoleSmall])/charsPerToken,
		c.outputTokens[modelswitch.RoleBig]+c.outputTokens[modelswitch.RoleSmall])
	return bigCost + smallCost, bigOnly, true
}

// Line formats Estimate for display. ok is false when nothing could be
// priced or both models are free.
func (c *CostTracker) Line() (string, bool) {
	actual, bigOnly, ok := c.Estimate()
	if !ok || bigOnly == 0 {
		return "", false
	}
	saved := (1 - actual/bigOnly) * 100
	return fmt.Sprintf("Est. cost: $%.6f (big only: $%.6f, saved %.0f%%)", actual, bigOnly, saved), true
}

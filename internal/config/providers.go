package config

import (
	"fmt"

	"go.uber.org/zap"

	modelswitch "github.com/haowjy/modelswitch-go"
	"github.com/haowjy/modelswitch-go/providers/anthropic"
	"github.com/haowjy/modelswitch-go/providers/lorem"
	"github.com/haowjy/modelswitch-go/providers/ollama"
	"github.com/haowjy/modelswitch-go/providers/openrouter"
	"github.com/haowjy/modelswitch-go/switcher"
)

// BuildRegistry constructs every provider the config can reach. Ollama and
// lorem are always present; Anthropic and OpenRouter need their API keys.
func BuildRegistry(cfg Config, log *zap.Logger) (*modelswitch.Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}

	ol, err := ollama.NewProvider(cfg.OllamaURL,
		ollama.WithTimeout(cfg.Timeout),
		ollama.WithLogger(log.Named("ollama")),
	)
	if err != nil {
		return nil, err
	}

	reg := modelswitch.NewRegistry(
		ol,
		lorem.NewProvider(lorem.WithEndAfter(cfg.LoremEndAfter), lorem.WithLogger(log.Named("lorem"))),
	)

	if cfg.AnthropicAPIKey != "" {
		p, err := anthropic.NewProvider(cfg.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("anthropic: %w", err)
		}
		reg.Register(p)
	}
	if cfg.OpenRouterAPIKey != "" {
		p, err := openrouter.NewProvider(cfg.OpenRouterAPIKey, cfg.OpenRouterURL, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("openrouter: %w", err)
		}
		reg.Register(p)
	}
	return reg, nil
}

// Models binds the big and small models of cfg to clients from reg,
// wrapping each in a RetryClient when Retries is positive.
func Models(cfg Config, reg *modelswitch.Registry) (switcher.Models, error) {
	bind := func(role modelswitch.Role, model string) (switcher.Binding, error) {
		id := cfg.ProviderFor(role)
		client, err := reg.Client(id, model)
		if err != nil {
			return switcher.Binding{}, fmt.Errorf("%s model %q: %w", role, model, err)
		}
		if cfg.Retries > 0 {
			rc := modelswitch.DefaultRetryConfig()
			rc.MaxAttempts = cfg.Retries + 1
			client = modelswitch.NewRetryClient(client, rc)
		}
		return switcher.Binding{Client: client, Provider: id}, nil
	}

	big, err := bind(modelswitch.RoleBig, cfg.BigModel)
	if err != nil {
		return switcher.Models{}, err
	}
	small, err := bind(modelswitch.RoleSmall, cfg.SmallModel)
	if err != nil {
		return switcher.Models{}, err
	}
	return switcher.Models{Big: big, Small: small}, nil
}

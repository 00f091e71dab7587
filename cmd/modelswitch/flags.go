package main

import (
	"time"

	"github.com/urfave/cli/v3"

	"github.com/haowjy/modelswitch-go/internal/config"
)

// options receives every flag value. Config-file and environment values
// are only overridden by flags the user actually set.
type options struct {
	configPath string
	logLevel   string
	logFormat  string

	bigModel      string
	smallModel    string
	bigProvider   string
	smallProvider string
	smallRatio    float64
	maxTokens     int
	minTokens     int
	temperature   float64
	policy        string
	seed          int64
	raw           bool
	noColor       bool

	ollamaURL string
	timeout   time.Duration
	retries   int
}

func (o *options) globalFlags() []cli.Flag {
	d := config.Default()
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &o.configPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "warn",
			Destination: &o.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (console, json)",
			Value:       "console",
			Destination: &o.logFormat,
		},
		&cli.StringFlag{
			Name:        "ollama-url",
			Usage:       "Ollama address (URL or host:port)",
			Value:       "http://localhost:11434",
			Destination: &o.ollamaURL,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "per-token request timeout",
			Value:       d.Timeout,
			Destination: &o.timeout,
		},
		&cli.IntFlag{
			Name:        "retries",
			Usage:       "retries per token on transient model errors (same model)",
			Destination: &o.retries,
		},
	}
}

func (o *options) generationFlags() []cli.Flag {
	d := config.Default()
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "big",
			Usage:       "big model",
			Value:       d.BigModel,
			Destination: &o.bigModel,
		},
		&cli.StringFlag{
			Name:        "small",
			Usage:       "small model",
			Value:       d.SmallModel,
			Destination: &o.smallModel,
		},
		&cli.StringFlag{
			Name:        "big-provider",
			Usage:       "provider of the big model (ollama, anthropic, openrouter, lorem; inferred when empty)",
			Destination: &o.bigProvider,
		},
		&cli.StringFlag{
			Name:        "small-provider",
			Usage:       "provider of the small model (inferred when empty)",
			Destination: &o.smallProvider,
		},
		&cli.Float64Flag{
			Name:        "small-ratio",
			Aliases:     []string{"r"},
			Usage:       "ratio of small model tokens after warm-up",
			Value:       d.SwitchRatio,
			Destination: &o.smallRatio,
		},
		&cli.IntFlag{
			Name:        "max-tokens",
			Aliases:     []string{"m"},
			Usage:       "max tokens",
			Value:       d.MaxTokens,
			Destination: &o.maxTokens,
		},
		&cli.IntFlag{
			Name:        "min-tokens",
			Usage:       "min tokens before switching",
			Value:       d.MinWarmupTokens,
			Destination: &o.minTokens,
		},
		&cli.Float64Flag{
			Name:        "temperature",
			Aliases:     []string{"t"},
			Usage:       "sampling temperature",
			Value:       d.Temperature,
			Destination: &o.temperature,
		},
		&cli.StringFlag{
			Name:        "policy",
			Usage:       "switching policy (periodic, random)",
			Value:       d.Policy,
			Destination: &o.policy,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "seed for the random policy",
			Destination: &o.seed,
		},
		&cli.BoolFlag{
			Name:        "raw",
			Usage:       "send the prompt as-is instead of the Question/Answer template",
			Destination: &o.raw,
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "disable colored token output",
			Destination: &o.noColor,
		},
	}
}

// resolveConfig loads the layered config and applies explicitly set flags.
func (o *options) resolveConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{Path: o.configPath})
	if err != nil {
		return cfg, err
	}
	o.apply(cmd, &cfg)
	return cfg, cfg.Validate()
}

func (o *options) apply(cmd *cli.Command, cfg *config.Config) {
	setString := func(name string, dst *string, v string) {
		if cmd.IsSet(name) {
			*dst = v
		}
	}
	setString("big", &cfg.BigModel, o.bigModel)
	setString("small", &cfg.SmallModel, o.smallModel)
	setString("big-provider", &cfg.BigProvider, o.bigProvider)
	setString("small-provider", &cfg.SmallProvider, o.smallProvider)
	setString("policy", &cfg.Policy, o.policy)
	setString("ollama-url", &cfg.OllamaURL, o.ollamaURL)
	setString("log-level", &cfg.LogLevel, o.logLevel)
	setString("log-format", &cfg.LogFormat, o.logFormat)

	if cmd.IsSet("small-ratio") {
		cfg.SwitchRatio = o.smallRatio
	}
	if cmd.IsSet("max-tokens") {
		cfg.MaxTokens = o.maxTokens
	}
	if cmd.IsSet("min-tokens") {
		cfg.MinWarmupTokens = o.minTokens
	}
	if cmd.IsSet("temperature") {
		cfg.Temperature = o.temperature
	}
	if cmd.IsSet("seed") {
		cfg.Seed = o.seed
	}
	if cmd.IsSet("raw") {
		cfg.Raw = o.raw
	}
	if cmd.IsSet("no-color") {
		cfg.NoColor = o.noColor
	}
	if cmd.IsSet("timeout") {
		cfg.Timeout = o.timeout
	}
	if cmd.IsSet("retries") {
		cfg.Retries = o.retries
	}
}

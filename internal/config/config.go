// Package config resolves run settings from defaults, .env files, a YAML
// config file and the environment, and wires the providers they name.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	modelswitch "github.com/haowjy/modelswitch-go"
	"github.com/haowjy/modelswitch-go/providers/ollama"
)

// EnvPrefix prefixes every environment override (MODELSWITCH_BIG_MODEL, ...).
const EnvPrefix = "modelswitch"

// Config holds every setting of the CLI and the server.
// Flags override it field by field; see the cmd package.
type Config struct {
	// Models
	BigModel      string `yaml:"big_model" split_words:"true"`
	SmallModel    string `yaml:"small_model" split_words:"true"`
	BigProvider   string `yaml:"big_provider" split_words:"true"`
	SmallProvider string `yaml:"small_provider" split_words:"true"`

	// Schedule
	SwitchRatio     float64 `yaml:"switch_ratio" split_words:"true"`
	MinWarmupTokens int     `yaml:"min_warmup_tokens" split_words:"true"`
	MaxTokens       int     `yaml:"max_tokens" split_words:"true"`
	Policy          string  `yaml:"policy"`
	Seed            int64   `yaml:"seed"`

	// Sampling
	Temperature float64  `yaml:"temperature"`
	TopP        *float64 `yaml:"top_p" ignored:"true"`
	TopK        *int     `yaml:"top_k" ignored:"true"`

	// Prompting and output. NO_COLOR is also honored by presence, see Load.
	Raw     bool `yaml:"raw"`
	NoColor bool `yaml:"no_color" split_words:"true"`

	// Transports. Only these three fall back to their conventional
	// unprefixed names (OLLAMA_HOST, ANTHROPIC_API_KEY, OPENROUTER_API_KEY).
	OllamaURL        string        `yaml:"ollama_url" envconfig:"OLLAMA_HOST"`
	AnthropicAPIKey  string        `yaml:"-" envconfig:"ANTHROPIC_API_KEY"`
	OpenRouterAPIKey string        `yaml:"-" envconfig:"OPENROUTER_API_KEY"`
	OpenRouterURL    string        `yaml:"openrouter_url" split_words:"true"`
	Timeout          time.Duration `yaml:"timeout"`
	Retries          int           `yaml:"retries"`
	LoremEndAfter    int           `yaml:"lorem_end_after" split_words:"true"`

	// Server. MaxRequestTokens caps max_tokens and min_warmup_tokens per HTTP request.
	ServerAddress    string `yaml:"server_address" split_words:"true"`
	MaxRequestTokens int    `yaml:"max_request_tokens" split_words:"true"`

	// Logging
	LogLevel  string `yaml:"log_level" split_words:"true"`
	LogFormat string `yaml:"log_format" split_words:"true"`
}

// Default returns the built-in settings: gemma3:4b and gemma3:270m on a
// local Ollama, half of post-warm-up tokens small, 10 warm-up, 300 max.
func Default() Config {
	return Config{
		BigModel:        "gemma3:4b",
		SmallModel:      "gemma3:270m",
		SwitchRatio:     0.5,
		MinWarmupTokens: 10,
		MaxTokens:       300,
		Policy:          string(modelswitch.PolicyPeriodic),
		Temperature:     modelswitch.DefaultTemperature,
		Timeout:         60 * time.Second,
		LoremEndAfter:   60,
		ServerAddress:   "127.0.0.1:8080",

		MaxRequestTokens: 4096,
	}
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// Path is an explicit config file. Missing explicit files are an error;
	// a missing default file is not.
	Path string

	// WorkDir is where the .env search starts (the working directory when empty).
	WorkDir string

	// SkipDotEnv disables .env discovery.
	SkipDotEnv bool
}

// Load resolves defaults, then .env, then the YAML file, then environment variables.
// Environment variables are MODELSWITCH_ prefixed (MODELSWITCH_OPEN_ROUTER_URL
// for OpenRouterURL), except the conventional OLLAMA_HOST, the provider API
// keys and NO_COLOR, which turns color off when set to any non-empty value.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if !opts.SkipDotEnv {
		if err := LoadDotEnv(opts.WorkDir); err != nil {
			return cfg, err
		}
	}

	path := opts.Path
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return cfg, err
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}
	if v, ok := os.LookupEnv("NO_COLOR"); ok && v != "" {
		cfg.NoColor = true
	}
	return cfg, nil
}

// DefaultPath is config.yaml under the user config directory, or "" when
// there is none.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "modelswitch", "config.yaml")
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads the first .env found walking up from dir. Variables
// already set in the environment win. No file is not an error.
func LoadDotEnv(dir string) error {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil
		}
		dir = wd
	}

	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("loading %s: %w", envPath, err)
			}
			return nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

// Validate checks names and ranges that do not need a provider to verify.
func (c Config) Validate() error {
	var errs []error
	for _, p := range []struct{ field, name string }{
		{"big_provider", c.BigProvider},
		{"small_provider", c.SmallProvider},
	} {
		if p.name == "" {
			continue
		}
		if _, err := modelswitch.ParseProviderID(p.name); err != nil {
			errs = append(errs, &modelswitch.ValidationError{Field: p.field, Value: p.name, Reason: "unknown provider"})
		}
	}
	if _, err := modelswitch.ParsePolicyKind(c.Policy); err != nil {
		errs = append(errs, &modelswitch.ValidationError{Field: "policy", Value: c.Policy, Reason: "must be periodic or random"})
	}
	if c.Timeout < 0 {
		errs = append(errs, &modelswitch.ValidationError{Field: "timeout", Value: c.Timeout, Reason: "must not be negative"})
	}
	if c.MaxRequestTokens < 0 {
		errs = append(errs, &modelswitch.ValidationError{Field: "max_request_tokens", Value: c.MaxRequestTokens, Reason: "must not be negative"})
	}
	if c.Retries < 0 {
		errs = append(errs, &modelswitch.ValidationError{Field: "retries", Value: c.Retries, Reason: "must not be negative"})
	}
	if _, err := ollama.NormalizeBaseURL(c.OllamaURL); err != nil {
		errs = append(errs, err)
	}
	if err := modelswitch.ValidateRequestParams(c.Params()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Params returns the sampling parameters forwarded to every model call.
func (c Config) Params() *modelswitch.RequestParams {
	temp := c.Temperature
	return &modelswitch.RequestParams{
		Temperature: &temp,
		TopP:        c.TopP,
		TopK:        c.TopK,
	}
}

// Generation builds the run configuration for prompt, applying the
// question template unless Raw is set.
func (c Config) Generation(prompt string) (modelswitch.GenerationConfig, error) {
	policy, err := modelswitch.ParsePolicyKind(c.Policy)
	if err != nil {
		return modelswitch.GenerationConfig{}, err
	}
	if !c.Raw {
		prompt = modelswitch.FormatQuestion(prompt)
	}

	gen := modelswitch.GenerationConfig{
		Prompt:          prompt,
		BigModel:        c.BigModel,
		SmallModel:      c.SmallModel,
		SwitchRatio:     c.SwitchRatio,
		MinWarmupTokens: c.MinWarmupTokens,
		MaxTokens:       c.MaxTokens,
		Policy:          policy,
		Seed:            c.Seed,
		Params:          c.Params(),
	}
	return gen, gen.Validate()
}

// ProviderFor returns the configured provider of role, inferred from the
// model name when unset.
func (c Config) ProviderFor(role modelswitch.Role) modelswitch.ProviderID {
	name, model := c.BigProvider, c.BigModel
	if role == modelswitch.RoleSmall {
		name, model = c.SmallProvider, c.SmallModel
	}
	if name != "" {
		return modelswitch.ProviderID(strings.ToLower(name))
	}
	return InferProvider(model)
}

// InferProvider guesses a provider from a model identifier:
// lorem-* is lorem, claude-* is anthropic, vendor/model is openrouter,
// anything else is an Ollama tag.
func InferProvider(model string) modelswitch.ProviderID {
	switch {
	case strings.HasPrefix(model, "lorem-"):
		return modelswitch.ProviderLorem
	case strings.HasPrefix(model, "claude-"):
		return modelswitch.ProviderAnthropic
	case strings.Contains(model, "/"):
		return modelswitch.ProviderOpenRouter
	default:
		return modelswitch.ProviderOllama
	}
}

// Package config loads git-commit-ai settings from defaults, a YAML file, a
// .env file, the environment and command-line flags, in that order of
// increasing precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fwojciec/commitsplit"
	"github.com/fwojciec/commitsplit/fs"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Supported text generation providers.
const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderGemini   = "gemini"
)

// EnvPrefix prefixes the environment variable of every key.
const EnvPrefix = "COMMIT_AI"

// FileName is the name of the per-repository config file.
const FileName = ".git-commit-ai.yaml"

// Config holds all settings of a session.
type Config struct {
	Provider    string  `mapstructure:"provider" validate:"omitempty,oneof=openai deepseek gemini"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	Offline     bool    `mapstructure:"offline"`

	MaxCommitSize       int                        `mapstructure:"max_commit_size" validate:"gte=1"`
	ComplexityThreshold float64                    `mapstructure:"complexity_threshold" validate:"gte=0"`
	MinGroupSize        int                        `mapstructure:"min_group_size" validate:"gte=1"`
	Metrics             commitsplit.MetricsWeights `mapstructure:"metrics"`

	// DiffLimit bounds the diff sent to each provider, in characters.
	DiffLimit map[string]int `mapstructure:"diff_limit" validate:"dive,gte=0"`

	// Concurrency bounds concurrent generator and platform calls.
	Concurrency int `mapstructure:"concurrency" validate:"gte=1,lte=16"`

	// ContextMessages is the number of recent commit messages sent as
	// style context.
	ContextMessages int `mapstructure:"context_messages" validate:"gte=0,lte=20"`

	OpenAI   ProviderConfig `mapstructure:"openai"`
	DeepSeek ProviderConfig `mapstructure:"deepseek"`
	Gemini   ProviderConfig `mapstructure:"gemini"`
	GitHub   PlatformConfig `mapstructure:"github"`
	GitLab   PlatformConfig `mapstructure:"gitlab"`
	History  HistoryConfig  `mapstructure:"history"`
	Log      LogConfig      `mapstructure:"log"`
}

// ProviderConfig holds the credentials of a text generation provider.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}

// PlatformConfig holds the settings of a hosting platform.
type PlatformConfig struct {
	Token   string `mapstructure:"token"`
	URL     string `mapstructure:"url" validate:"omitempty,url"`
	PerPage int    `mapstructure:"per_page" validate:"gte=1,lte=100"`
}

// HistoryConfig controls the message history file.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderOpenAI)
	v.SetDefault("model", "")
	v.SetDefault("temperature", 0.3)
	v.SetDefault("offline", false)

	split := commitsplit.DefaultSplitConfig()
	v.SetDefault("max_commit_size", split.MaxCommitSize)
	v.SetDefault("complexity_threshold", split.ComplexityThreshold)
	v.SetDefault("min_group_size", split.MinGroupSize)

	w := commitsplit.DefaultMetricsWeights()
	v.SetDefault("metrics.file_weight", w.FileWeight)
	v.SetDefault("metrics.line_weight", w.LineWeight)
	v.SetDefault("metrics.directory_weight", w.DirectoryWeight)
	v.SetDefault("metrics.category_weight", w.CategoryWeight)
	v.SetDefault("metrics.directory_depth", w.DirectoryDepth)

	v.SetDefault("diff_limit.openai", 12000)
	v.SetDefault("diff_limit.deepseek", 12000)
	v.SetDefault("diff_limit.gemini", 30000)

	v.SetDefault("concurrency", commitsplit.DefaultConcurrency)
	v.SetDefault("context_messages", 3)

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("deepseek.api_key", "")
	v.SetDefault("deepseek.base_url", "")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", "")

	v.SetDefault("github.token", "")
	v.SetDefault("github.url", "")
	v.SetDefault("github.per_page", 30)
	v.SetDefault("gitlab.token", "")
	v.SetDefault("gitlab.url", "https://gitlab.com")
	v.SetDefault("gitlab.per_page", 20)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
}

// Options select the sources Load reads besides defaults and the
// environment.
type Options struct {
	// File is an explicit config file. When empty the first existing
	// candidate of SearchPaths is used, if any.
	File string

	// EnvFile is the dotenv file to read. Defaults to ".env"; a missing file
	// is ignored.
	EnvFile string

	// Flags are bound over every other source. Only flags set on the command
	// line take precedence.
	Flags *pflag.FlagSet
}

// SearchPaths returns the config files looked up when no file is given,
// in order of preference.
func SearchPaths() []string {
	return []string{FileName, filepath.Join(fs.DefaultConfigDir(), "config.yaml")}
}

// Load reads the configuration and validates it.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrapf(err, "read %s", envFile)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	file := opts.File
	if file == "" {
		file = findFile(SearchPaths())
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WithHint(
				errors.Wrapf(err, "read config %s", file),
				"check the YAML syntax of the config file",
			)
		}
	}

	if opts.Flags != nil {
		if err := BindFlags(v, opts.Flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if cfg.History.Path == "" {
		cfg.History.Path = fs.DefaultHistoryPath()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindEnv binds the conventional provider variables next to the prefixed
// ones. The prefixed name wins when both are set.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("openai.api_key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("deepseek.api_key", EnvPrefix+"_DEEPSEEK_API_KEY", "DEEPSEEK_API_KEY")
	_ = v.BindEnv("gemini.api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("gitlab.token", EnvPrefix+"_GITLAB_TOKEN", "GITLAB_TOKEN")
	_ = v.BindEnv("gitlab.url", EnvPrefix+"_GITLAB_URL", "GITLAB_URL")
}

func findFile(candidates []string) string {
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// flagKeys maps flag names that differ from their config key.
var flagKeys = map[string]string{
	"log-level":    "log.level",
	"log-format":   "log.format",
	"history-file": "history.path",
	"no-history":   "",
	"gitlab-url":   "gitlab.url",
}

// FlagKey returns the config key a flag is bound to, or "" for flags that
// have no key.
func FlagKey(name string) string {
	if key, ok := flagKeys[name]; ok {
		return key
	}
	return strings.ReplaceAll(name, "-", "_")
}

// BindFlags binds every flag of the set to its config key and returns all
// binding failures together.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var result *multierror.Error
	flags.VisitAll(func(f *pflag.Flag) {
		key := FlagKey(f.Name)
		if key == "" {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "bind flag --%s", f.Name))
		}
	})
	return result.ErrorOrNil()
}

// SplitConfig returns the split policy.
func (c *Config) SplitConfig() commitsplit.SplitConfig {
	return commitsplit.SplitConfig{
		MaxCommitSize:       c.MaxCommitSize,
		ComplexityThreshold: c.ComplexityThreshold,
		MinGroupSize:        c.MinGroupSize,
	}
}

// DiffLimitFor returns the diff limit of a provider. Zero means no limit.
func (c *Config) DiffLimitFor(provider string) int {
	return c.DiffLimit[provider]
}

// ProviderConfig returns the settings of the named provider.
func (c *Config) ProviderConfig(provider string) (ProviderConfig, bool) {
	switch provider {
	case ProviderOpenAI:
		return c.OpenAI, true
	case ProviderDeepSeek:
		return c.DeepSeek, true
	case ProviderGemini:
		return c.Gemini, true
	}
	return ProviderConfig{}, false
}

// Validate checks field constraints, the split policy and the metrics
// weights, and reports every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errors.Wrap(err, "validate config")
		}
		for _, fe := range verrs {
			result = multierror.Append(result, fieldError(fe))
		}
	}
	if err := c.SplitConfig().Validate(); err != nil {
		result = appendUnique(result, err)
	}
	if err := c.Metrics.Validate(); err != nil {
		var ce *commitsplit.ConfigError
		if errors.As(err, &ce) {
			ce.Field = "metrics." + ce.Field
		}
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// ValidateProvider checks that the selected provider can be used. An
// offline session needs no provider.
func (c *Config) ValidateProvider() error {
	if c.Offline {
		return nil
	}
	var result *multierror.Error
	p, ok := c.ProviderConfig(c.Provider)
	if !ok {
		result = multierror.Append(result, &commitsplit.ConfigError{
			Field:  "provider",
			Reason: "must be one of openai, deepseek, gemini",
		})
		return result.ErrorOrNil()
	}
	if p.APIKey == "" {
		result = multierror.Append(result, errors.WithHint(
			errors.Mark(&commitsplit.ConfigError{Field: c.Provider + ".api_key", Reason: "is not set"}, commitsplit.ErrAuthentication),
			"set "+strings.ToUpper(c.Provider)+"_API_KEY or pass --offline",
		))
	}
	if c.DiffLimitFor(c.Provider) < 0 {
		result = multierror.Append(result, &commitsplit.ConfigError{
			Field:  "diff_limit." + c.Provider,
			Reason: "must not be negative",
		})
	}
	return result.ErrorOrNil()
}

// ValidateGitHub checks the GitHub settings.
func (c *Config) ValidateGitHub() error {
	return validatePlatform("github", c.GitHub, "GITHUB_TOKEN").ErrorOrNil()
}

// ValidateGitLab checks the GitLab settings.
func (c *Config) ValidateGitLab() error {
	result := validatePlatform("gitlab", c.GitLab, "GITLAB_TOKEN")
	if c.GitLab.URL == "" {
		result = multierror.Append(result, &commitsplit.ConfigError{Field: "gitlab.url", Reason: "is not set"})
	}
	return result.ErrorOrNil()
}

func validatePlatform(name string, p PlatformConfig, env string) *multierror.Error {
	var result *multierror.Error
	if p.Token == "" {
		result = multierror.Append(result, errors.WithHint(
			errors.Mark(&commitsplit.ConfigError{Field: name + ".token", Reason: "is not set"}, commitsplit.ErrAuthentication),
			"set "+env,
		))
	}
	if p.PerPage < 1 || p.PerPage > 100 {
		result = multierror.Append(result, &commitsplit.ConfigError{
			Field:  name + ".per_page",
			Reason: "must be between 1 and 100",
		})
	}
	return result
}

// fieldError converts a validator failure into a ConfigError named by the
// mapstructure key of the field.
func fieldError(fe validator.FieldError) *commitsplit.ConfigError {
	field := keyOf(fe.StructNamespace())
	var reason string
	switch fe.Tag() {
	case "oneof":
		reason = "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gte":
		reason = "must be at least " + fe.Param()
	case "lte":
		reason = "must be at most " + fe.Param()
	case "url":
		reason = "must be a URL"
	default:
		reason = "fails " + fe.Tag()
	}
	return &commitsplit.ConfigError{Field: field, Reason: reason}
}

// fieldKeys maps struct namespaces to config keys.
var fieldKeys = map[string]string{
	"Config.Provider":            "provider",
	"Config.Temperature":         "temperature",
	"Config.MaxCommitSize":       "max_commit_size",
	"Config.ComplexityThreshold": "complexity_threshold",
	"Config.MinGroupSize":        "min_group_size",
	"Config.Concurrency":         "concurrency",
	"Config.ContextMessages":     "context_messages",
	"Config.OpenAI.BaseURL":      "openai.base_url",
	"Config.DeepSeek.BaseURL":    "deepseek.base_url",
	"Config.Gemini.BaseURL":      "gemini.base_url",
	"Config.GitHub.URL":          "github.url",
	"Config.GitHub.PerPage":      "github.per_page",
	"Config.GitLab.URL":          "gitlab.url",
	"Config.GitLab.PerPage":      "gitlab.per_page",
	"Config.Log.Level":           "log.level",
	"Config.Log.Format":          "log.format",
}

func keyOf(namespace string) string {
	if key, ok := fieldKeys[namespace]; ok {
		return key
	}
	if strings.HasPrefix(namespace, "Config.DiffLimit[") {
		return "diff_limit." + strings.TrimSuffix(strings.TrimPrefix(namespace, "Config.DiffLimit["), "]")
	}
	return strings.ToLower(strings.TrimPrefix(namespace, "Config."))
}

// appendUnique appends err unless an error for the same field is already
// present.
func appendUnique(result *multierror.Error, err error) *multierror.Error {
	var ce *commitsplit.ConfigError
	if errors.As(err, &ce) && result != nil {
		for _, e := range result.Errors {
			var prev *commitsplit.ConfigError
			if errors.As(e, &prev) && prev.Field == ce.Field {
				return result
			}
		}
	}
	return multierror.Append(result, err)
}

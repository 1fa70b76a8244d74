package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	env "github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/formancehq/apistd/internal/linter"
	"github.com/formancehq/apistd/internal/report"
	"github.com/formancehq/apistd/internal/spec"
)

// EnvPrefix prefixes every environment variable read into Config.
const EnvPrefix = "APISTD_"

// Config captures all inputs of check and annotate after merging defaults,
// environment, config file values and CLI overrides, in that order.
type Config struct {
	ConfigPath  string        `env:"CONFIG"`
	Input       string        `env:"INPUT"`
	RuleSet     string        `env:"RULE_SET"`
	Enable      []string      `env:"ENABLE"`
	Disable     []string      `env:"DISABLE"`
	Format      string        `env:"FORMAT"`
	NoColor     bool          `env:"NO_COLOR"`
	Strict      bool          `env:"STRICT"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT"`
	Verbose     bool          `env:"VERBOSE"`
	LogLevel    string        `env:"LOG_LEVEL"`

	// Used by annotate only.
	Out          string `env:"OUT"`
	OutputFormat string `env:"OUTPUT_FORMAT"`
	Force        bool   `env:"FORCE"`
	DryRun       bool   `env:"DRY_RUN"`
	StripMarkers bool   `env:"STRIP_MARKERS"`

	stdout io.Writer
	stderr io.Writer
}

func defaultConfig() Config {
	return Config{
		RuleSet:     linter.SetRecommended,
		Format:      report.FormatText,
		HTTPTimeout: spec.DefaultSettings().HTTPTimeout,
	}
}

// environ is swapped by tests.
var environ = func() map[string]string {
	return env.ToMap(os.Environ())
}

func registerCommonFlags(flags *pflag.FlagSet) {
	flags.String("input", "", "Path or URL to the OpenAPI/Swagger document")
	flags.String("rule-set", "", "Linter rule set (recommended|all|none); defaults to recommended")
	flags.StringSlice("enable", nil, "Enable additional lint rules by name")
	flags.StringSlice("disable", nil, "Disable lint rules by name")
	flags.String("format", "", "Diagnostics format (text|json|table); defaults to text")
	flags.Bool("no-color", false, "Disable colored diagnostics")
	flags.Bool("strict", false, "Reject documents that fail OpenAPI validation in any way")
	flags.Duration("http-timeout", 0, "Timeout for each HTTP request when --input is a URL")
}

func resolveConfig(cmd *cobra.Command) (*Config, error) {
	cfg := defaultConfig()

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix, Environment: environ()}); err != nil {
		return nil, newUsageError(fmt.Sprintf("environment: %v", err))
	}

	flags := cmd.Flags()
	if flags.Changed("config") {
		configPath, err := flags.GetString("config")
		if err != nil {
			return nil, err
		}
		cfg.ConfigPath = configPath
	}
	cfg.ConfigPath = strings.TrimSpace(cfg.ConfigPath)
	if cfg.ConfigPath != "" {
		if err := applyConfigFromFile(&cfg, cfg.ConfigPath); err != nil {
			return nil, err
		}
	}

	if err := applyFlagOverrides(flags, &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	cfg.stdout = cmd.OutOrStdout()
	cfg.stderr = cmd.ErrOrStderr()
	return &cfg, nil
}

func applyFlagOverrides(flags *pflag.FlagSet, cfg *Config) error {
	strs := map[string]*string{
		"input":         &cfg.Input,
		"rule-set":      &cfg.RuleSet,
		"format":        &cfg.Format,
		"log-level":     &cfg.LogLevel,
		"out":           &cfg.Out,
		"output-format": &cfg.OutputFormat,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
	}

	bools := map[string]*bool{
		"no-color":      &cfg.NoColor,
		"strict":        &cfg.Strict,
		"verbose":       &cfg.Verbose,
		"force":         &cfg.Force,
		"dry-run":       &cfg.DryRun,
		"strip-markers": &cfg.StripMarkers,
	}
	for name, dst := range bools {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}

	slices := map[string]*[]string{
		"enable":  &cfg.Enable,
		"disable": &cfg.Disable,
	}
	for name, dst := range slices {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = sanitizeNames(value)
	}

	if flags.Changed("http-timeout") {
		value, err := flags.GetDuration("http-timeout")
		if err != nil {
			return err
		}
		cfg.HTTPTimeout = value
	}
	return nil
}

func (c *Config) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.RuleSet = strings.ToLower(strings.TrimSpace(c.RuleSet))
	if c.RuleSet == "none" {
		c.RuleSet = ""
	}
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format == "" {
		c.Format = report.FormatText
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Out = strings.TrimSpace(c.Out)
	c.OutputFormat = strings.ToLower(strings.TrimSpace(c.OutputFormat))
	c.Enable = sanitizeNames(c.Enable)
	c.Disable = sanitizeNames(c.Disable)
}

func (c *Config) validate(command string) error {
	if c.Input == "" {
		return newUsageError(fmt.Sprintf("%s: --input is required (set via flag, config file or %sINPUT)", command, EnvPrefix))
	}
	switch c.RuleSet {
	case "", linter.SetRecommended, linter.SetAll:
	default:
		return newUsageError(fmt.Sprintf("%s: unsupported --rule-set %q (allowed: recommended, all, none)", command, c.RuleSet))
	}
	switch c.Format {
	case report.FormatText, report.FormatJSON, report.FormatTable:
	default:
		return newUsageError(fmt.Sprintf("%s: unsupported --format %q (allowed: %s)", command, c.Format, strings.Join(report.Formats(), ", ")))
	}
	switch c.OutputFormat {
	case "", spec.FormatYAML, spec.FormatJSON:
	default:
		return newUsageError(fmt.Sprintf("%s: unsupported --output-format %q (allowed: yaml, json)", command, c.OutputFormat))
	}
	if overlap := intersect(c.Enable, c.Disable); len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("%s: rules both enabled and disabled: %s", command, strings.Join(overlap, ", ")))
	}
	return nil
}

func sanitizeNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

func applyConfigFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	for key, value := range raw {
		if err := applyConfigField(cfg, normalizeKey(key), value); err != nil {
			if errors.Is(err, errUnknownField) {
				return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
			}
			return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
		}
	}
	return nil
}

var errUnknownField = errors.New("unknown field")

func applyConfigField(cfg *Config, key string, value any) error {
	var err error
	switch key {
	case "input":
		cfg.Input, err = valueAsString(value)
	case "ruleset":
		cfg.RuleSet, err = valueAsString(value)
	case "enable":
		cfg.Enable, err = valueAsStringSlice(value)
	case "disable":
		cfg.Disable, err = valueAsStringSlice(value)
	case "format":
		cfg.Format, err = valueAsString(value)
	case "nocolor":
		cfg.NoColor, err = valueAsBool(value)
	case "strict":
		cfg.Strict, err = valueAsBool(value)
	case "httptimeout":
		cfg.HTTPTimeout, err = valueAsDuration(value)
	case "verbose":
		cfg.Verbose, err = valueAsBool(value)
	case "loglevel":
		cfg.LogLevel, err = valueAsString(value)
	case "out":
		cfg.Out, err = valueAsString(value)
	case "outputformat":
		cfg.OutputFormat, err = valueAsString(value)
	case "force":
		cfg.Force, err = valueAsBool(value)
	case "dryrun":
		cfg.DryRun, err = valueAsBool(value)
	case "stripmarkers":
		cfg.StripMarkers, err = valueAsBool(value)
	default:
		return errUnknownField
	}
	return err
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		}
		return false, fmt.Errorf("invalid boolean value %q", val)
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

// valueAsDuration accepts Go duration strings or a plain number of seconds.
func valueAsDuration(v any) (time.Duration, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", val)
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Second, nil
	case int64:
		return time.Duration(val) * time.Second, nil
	case float64:
		return time.Duration(val * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("expected duration, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

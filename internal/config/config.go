// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults for optional run parameters.
const (
	DefaultAssistantName = "Campaign Assistant"
	DefaultAPIURL        = "http://localhost:3000"
	DefaultDelay         = 5 * time.Second
	DefaultConcurrency   = 10
	DefaultMaxPolls      = 30
	DefaultPollInterval  = 5 * time.Second
	DefaultLogFormat     = "console"
)

// Config represents the campaign configuration that can be loaded from a JSON
// or YAML file. All fields are optional in a file; required values are checked
// after CLI flags and defaults have been merged.
type Config struct {
	// Files
	Input  string `json:"input,omitempty" yaml:"input,omitempty"`   // Contacts CSV
	Output string `json:"output,omitempty" yaml:"output,omitempty"` // Results CSV

	// Call parameters
	AssistantID   string `json:"assistant_id,omitempty" yaml:"assistant_id,omitempty"`
	AssistantName string `json:"assistant_name,omitempty" yaml:"assistant_name,omitempty"`
	FromNumber    string `json:"from_number,omitempty" yaml:"from_number,omitempty"` // Originating trunk number
	APIURL        string `json:"api_url,omitempty" yaml:"api_url,omitempty" validate:"omitempty,url"`

	// Execution
	Delay       Duration `json:"delay,omitempty" yaml:"delay,omitempty"`
	Concurrency int      `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"gte=0"`

	// Transcript polling
	SkipTranscript bool     `json:"skip_transcript,omitempty" yaml:"skip_transcript,omitempty"`
	MaxPolls       int      `json:"max_polls,omitempty" yaml:"max_polls,omitempty" validate:"gte=0"`
	PollInterval   Duration `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`
	MatchEarliest  bool     `json:"match_earliest,omitempty" yaml:"match_earliest,omitempty"`

	// Transcript provider credentials (usually taken from the environment)
	APIKey           string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	UserUID          string `json:"user_uid,omitempty" yaml:"user_uid,omitempty"`
	TranscriptAPIURL string `json:"transcript_api_url,omitempty" yaml:"transcript_api_url,omitempty" validate:"omitempty,url"`

	// Integrations
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty" validate:"omitempty,hostname_port"`

	// Output
	LogFormat string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,oneof=console json"`
	Verbose   bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// LoadConfig loads configuration from a JSON (.json) or YAML (.yaml, .yml)
// file. Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	data, path, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	switch format(path) {
	case "yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	return &cfg, nil
}

// LoadDocument loads a config file as a generic document, suitable for
// JSON-schema validation.
func LoadDocument(path string) (map[string]any, error) {
	data, path, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}

	doc := map[string]any{}
	switch format(path) {
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	return doc, nil
}

func readConfigFile(path string) ([]byte, string, error) {
	if path == "" {
		return nil, "", fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return data, path, nil
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// after merging flags and defaults (see ValidateForRun).
func (c *Config) Validate() error {
	var fields []FieldError

	if err := validator.New().Struct(c); err != nil {
		fields = append(fields, fieldErrors(err)...)
	}
	if c.Delay.Duration < 0 {
		fields = append(fields, FieldError{Field: "delay", Message: "must be non-negative"})
	}
	if c.PollInterval.Duration < 0 {
		fields = append(fields, FieldError{Field: "poll_interval", Message: "must be non-negative"})
	}
	if c.Input != "" {
		if _, err := os.Stat(c.Input); os.IsNotExist(err) {
			fields = append(fields, FieldError{Field: "input", Message: "file not found: " + c.Input})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// runRequirements are the constraints a fully merged configuration must meet
// before any call is placed.
type runRequirements struct {
	Input       string `validate:"required"`
	Output      string `validate:"required"`
	AssistantID string `validate:"required"`
	FromNumber  string `validate:"required"`
	APIURL      string `validate:"required,url"`
	Concurrency int    `validate:"min=1"`
	MaxPolls    int    `validate:"min=1"`
}

// ValidateForRun checks required fields and ranges of a merged configuration.
func (c *Config) ValidateForRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	req := runRequirements{
		Input:       c.Input,
		Output:      c.Output,
		AssistantID: c.AssistantID,
		FromNumber:  c.FromNumber,
		APIURL:      c.APIURL,
		Concurrency: c.Concurrency,
		MaxPolls:    c.MaxPolls,
	}
	if err := validator.New().Struct(req); err != nil {
		return &ValidationError{Fields: fieldErrors(err)}
	}
	return nil
}

var fieldNames = map[string]string{
	"Input":            "input",
	"Output":           "output",
	"AssistantID":      "assistant_id",
	"FromNumber":       "from_number",
	"APIURL":           "api_url",
	"Concurrency":      "concurrency",
	"MaxPolls":         "max_polls",
	"TranscriptAPIURL": "transcript_api_url",
	"MetricsAddr":      "metrics_addr",
	"LogFormat":        "log_format",
}

func fieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "(config)", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		name, ok := fieldNames[fe.Field()]
		if !ok {
			name = fe.Field()
		}
		out = append(out, FieldError{Field: name, Message: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "gte":
		return "must be non-negative"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "hostname_port":
		return "must be host:port"
	default:
		return "failed '" + fe.Tag() + "' check"
	}
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags, and
// built-in defaults after that.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&result.Input, defaults.Input},
		{&result.Output, defaults.Output},
		{&result.AssistantID, defaults.AssistantID},
		{&result.AssistantName, defaults.AssistantName},
		{&result.FromNumber, defaults.FromNumber},
		{&result.APIURL, defaults.APIURL},
		{&result.APIKey, defaults.APIKey},
		{&result.UserUID, defaults.UserUID},
		{&result.TranscriptAPIURL, defaults.TranscriptAPIURL},
		{&result.DatabaseURL, defaults.DatabaseURL},
		{&result.MetricsAddr, defaults.MetricsAddr},
		{&result.LogFormat, defaults.LogFormat},
	} {
		if *f.dst == "" {
			*f.dst = f.src
		}
	}

	// Numeric fields: use default if zero
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.MaxPolls == 0 {
		result.MaxPolls = defaults.MaxPolls
	}
	// Durations given explicitly in a file, including 0, are kept
	if !result.Delay.IsSet() {
		result.Delay = defaults.Delay
	}
	if !result.PollInterval.IsSet() {
		result.PollInterval = defaults.PollInterval
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Defaults returns the built-in values for optional parameters.
func Defaults() Config {
	return Config{
		AssistantName: DefaultAssistantName,
		APIURL:        DefaultAPIURL,
		Delay:         Duration{Duration: DefaultDelay},
		Concurrency:   DefaultConcurrency,
		MaxPolls:      DefaultMaxPolls,
		PollInterval:  Duration{Duration: DefaultPollInterval},
		LogFormat:     DefaultLogFormat,
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeFile(t, "campaign.json", `{
		"input": "contacts.csv",
		"assistant_id": "asst-1",
		"from_number": "+13157918262",
		"concurrency": 4,
		"delay": "2s",
		"poll_interval": 10,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "contacts.csv", cfg.Input)
	assert.Equal(t, "asst-1", cfg.AssistantID)
	assert.Equal(t, "+13157918262", cfg.FromNumber)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.Delay.Duration)
	assert.Equal(t, 10*time.Second, cfg.PollInterval.Duration)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeFile(t, "campaign.yaml", `
input: contacts.csv
output: results.csv
assistant_id: asst-1
skip_transcript: true
max_polls: 12
delay: 1m30s
poll_interval: 3
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "results.csv", cfg.Output)
	assert.True(t, cfg.SkipTranscript)
	assert.Equal(t, 12, cfg.MaxPolls)
	assert.Equal(t, 90*time.Second, cfg.Delay.Duration)
	assert.Equal(t, 3*time.Second, cfg.PollInterval.Duration)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yml", "delay: [1, 2]\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestLoadDocument(t *testing.T) {
	path := writeFile(t, "campaign.yaml", "concurrency: 3\nlog_format: json\n")

	doc, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, 3, doc["concurrency"])
	assert.Equal(t, "json", doc["log_format"])
}

func TestValidate_NegativeValues(t *testing.T) {
	cfg := &Config{
		Concurrency: -1,
		Delay:       Duration{Duration: -time.Second},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency")
	assert.Contains(t, err.Error(), "delay")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)
}

func TestValidate_Formats(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"bad api url", Config{APIURL: "not a url"}, "api_url"},
		{"bad log format", Config{LogFormat: "xml"}, "log_format"},
		{"bad metrics addr", Config{MetricsAddr: "9090"}, "metrics_addr"},
		{"missing input file", Config{Input: "/nonexistent/contacts.csv"}, "input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		APIURL:      "http://localhost:3000",
		Concurrency: 5,
		LogFormat:   "json",
		MetricsAddr: ":9090",
	}

	assert.NoError(t, cfg.Validate())
}

func TestValidateForRun(t *testing.T) {
	input := writeFile(t, "contacts.csv", "name,number\n")
	base := Config{
		Input:       input,
		Output:      "results.csv",
		AssistantID: "asst-1",
		FromNumber:  "+13157918262",
	}
	merged := base.MergeWithDefaults(Defaults())
	require.NoError(t, merged.ValidateForRun())

	partial := Config{Input: input}
	missing := partial.MergeWithDefaults(Defaults())
	err := missing.ValidateForRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'output' is required")
	assert.Contains(t, err.Error(), "'assistant_id' is required")
	assert.Contains(t, err.Error(), "'from_number' is required")

	zero := merged
	zero.Concurrency = 0
	zero.MaxPolls = 0
	err = zero.ValidateForRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'concurrency' must be at least 1")
	assert.Contains(t, err.Error(), "'max_polls' must be at least 1")
}

func TestMergeWithDefaults(t *testing.T) {
	partial := Config{
		Input:       "contacts.csv",
		Concurrency: 1,
		APIKey:      "from-file",
	}

	env := FromEnv(func(key string) string {
		return map[string]string{
			EnvAPIKey:  "from-env",
			EnvUserUID: "user-1",
		}[key]
	})

	merged := partial.MergeWithDefaults(env)
	merged = merged.MergeWithDefaults(Defaults())

	// Custom values should be preserved
	assert.Equal(t, "contacts.csv", merged.Input)
	assert.Equal(t, 1, merged.Concurrency)
	assert.Equal(t, "from-file", merged.APIKey)

	// Defaults should fill in empty fields
	assert.Equal(t, "user-1", merged.UserUID)
	assert.Equal(t, DefaultAssistantName, merged.AssistantName)
	assert.Equal(t, DefaultAPIURL, merged.APIURL)
	assert.Equal(t, DefaultMaxPolls, merged.MaxPolls)
	assert.Equal(t, DefaultDelay, merged.Delay.Duration)
	assert.Equal(t, DefaultPollInterval, merged.PollInterval.Duration)
	assert.Equal(t, DefaultLogFormat, merged.LogFormat)
}

func TestMergeWithDefaults_KeepsExplicitZeroDurations(t *testing.T) {
	for _, name := range []string{"campaign.yaml", "campaign.json"} {
		t.Run(name, func(t *testing.T) {
			content := "delay: 0\npoll_interval: \"0s\"\n"
			if filepath.Ext(name) == ".json" {
				content = `{"delay": 0, "poll_interval": "0s"}`
			}
			cfg, err := LoadConfig(writeFile(t, name, content))
			require.NoError(t, err)

			merged := cfg.MergeWithDefaults(Defaults())
			assert.Equal(t, time.Duration(0), merged.Delay.Duration)
			assert.Equal(t, time.Duration(0), merged.PollInterval.Duration)
		})
	}

	var omitted Config
	merged := omitted.MergeWithDefaults(Defaults())
	assert.Equal(t, DefaultDelay, merged.Delay.Duration)
	assert.Equal(t, DefaultPollInterval, merged.PollInterval.Duration)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{Input: "contacts.csv", Concurrency: 2}

	merged := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, cfg, merged)
}

func TestCredentials(t *testing.T) {
	cfg := Config{APIKey: "monade_d8325992-cf93", UserUID: "user-1", TranscriptAPIURL: "http://transcripts.local"}
	creds := cfg.Credentials()

	require.NoError(t, creds.Validate())
	assert.Equal(t, "user=user-1 key=monade_d... url=http://transcripts.local", creds.String())
	assert.NotContains(t, creds.String(), "cf93")

	err := Credentials{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvAPIKey)
	assert.Contains(t, err.Error(), EnvUserUID)
	assert.Contains(t, err.Error(), EnvTranscriptAPIURL)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		err  bool
	}{
		{"5s", 5 * time.Second, false},
		{"250ms", 250 * time.Millisecond, false},
		{"7", 7 * time.Second, false},
		{"1.5", 1500 * time.Millisecond, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDuration(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}
}

package config

import (
	"fmt"
	"os"

	"github.com/jonathan/campaign-runner/internal/logging"
)

// Environment variables read by FromEnv.
const (
	EnvAPIKey           = "MONADE_API_KEY"
	EnvUserUID          = "MONADE_USER_UID"
	EnvTranscriptAPIURL = "MONADE_API_URL"
	EnvDatabaseURL      = "DATABASE_URL"
)

// Credentials identify the account on the transcript provider. They are built
// once at startup and passed by value to the clients that need them.
type Credentials struct {
	APIKey           string
	UserUID          string
	TranscriptAPIURL string
}

// Credentials extracts the provider credentials from a merged configuration.
func (c *Config) Credentials() Credentials {
	return Credentials{
		APIKey:           c.APIKey,
		UserUID:          c.UserUID,
		TranscriptAPIURL: c.TranscriptAPIURL,
	}
}

// Validate reports missing credentials. They are only needed when transcripts
// are polled.
func (c Credentials) Validate() error {
	var fields []FieldError
	if c.APIKey == "" {
		fields = append(fields, FieldError{Field: "api_key", Message: fmt.Sprintf("is required (set %s)", EnvAPIKey)})
	}
	if c.UserUID == "" {
		fields = append(fields, FieldError{Field: "user_uid", Message: fmt.Sprintf("is required (set %s)", EnvUserUID)})
	}
	if c.TranscriptAPIURL == "" {
		fields = append(fields, FieldError{Field: "transcript_api_url", Message: fmt.Sprintf("is required (set %s)", EnvTranscriptAPIURL)})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// String masks the API key so credentials can be logged.
func (c Credentials) String() string {
	return fmt.Sprintf("user=%s key=%s url=%s", c.UserUID, logging.MaskSecret(c.APIKey), c.TranscriptAPIURL)
}

// FromEnv returns a Config holding only the values available from the
// environment. getenv defaults to os.Getenv.
func FromEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	return Config{
		APIKey:           getenv(EnvAPIKey),
		UserUID:          getenv(EnvUserUID),
		TranscriptAPIURL: getenv(EnvTranscriptAPIURL),
		DatabaseURL:      getenv(EnvDatabaseURL),
	}
}

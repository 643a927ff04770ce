package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Environment variables consulted when the matching field is empty.
const (
	EnvLogLevel  = "BLOCKGRAPH_LOG_LEVEL"
	EnvLogFormat = "BLOCKGRAPH_LOG_FORMAT"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	LogFormat string `validate:"oneof=text json"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	// HealthcheckPort enables the /health and /metrics server during runs. 0 disables it.
	HealthcheckPort int `validate:"gte=0,lte=65535"`
	// StepLimit bounds supersteps per graph invocation. 0 keeps the engine default.
	StepLimit int `validate:"gte=0"`
	// MaxDepth bounds sub-graph nesting. 0 keeps the compiler default.
	MaxDepth int `validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewConfig fills empty log settings from the environment and defaults, then
// validates the result.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv(EnvLogLevel)
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = os.Getenv(EnvLogFormat)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
		return nil, errors.New(strings.Join(msgs, "; "))
	}
	return &cfg, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("invalid %s %q: must be one of %s", fe.Field(), fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte", "lte":
		return fmt.Sprintf("invalid %s %v: must be %s %s", fe.Field(), fe.Value(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("invalid %s: failed %s", fe.Field(), fe.Tag())
}

// Package openaiclient builds go-openai clients from node and reference config.
package openaiclient

import (
	"fmt"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/vk/blockgraph/internal/document"
)

// Config keys read by New.
const (
	KeyAPIKeyEnv = "api_key_env"
	KeyBaseURL   = "base_url"
)

// DefaultAPIKeyEnv is read when config does not name another variable.
const DefaultAPIKeyEnv = "OPENAI_API_KEY"

// New returns a client for cfg. The API key comes from the environment
// variable named by api_key_env. A key is only optional when base_url points
// at a compatible local server.
func New(cfg document.Config) (*openai.Client, error) {
	env := cfg.String(KeyAPIKeyEnv)
	if env == "" {
		env = DefaultAPIKeyEnv
	}
	key := strings.TrimSpace(os.Getenv(env))
	baseURL := cfg.String(KeyBaseURL)
	if key == "" && baseURL == "" {
		return nil, fmt.Errorf("%s environment variable not set", env)
	}

	conf := openai.DefaultConfig(key)
	if baseURL != "" {
		conf.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return openai.NewClientWithConfig(conf), nil
}

// Package llm provides the "llm" node type: it renders an f-string prompt
// from its inputs and returns the model's completion.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/prompts"

	"github.com/vk/blockgraph/internal/ctxlog"
	"github.com/vk/blockgraph/internal/document"
	"github.com/vk/blockgraph/internal/node"
	"github.com/vk/blockgraph/internal/nodetype"
	"github.com/vk/blockgraph/internal/openaiclient"
	"github.com/vk/blockgraph/internal/registry"
)

// Providers.
const (
	ProviderOpenAI = "openai"
	ProviderEcho   = "echo"
)

// DefaultModel is used when config.model is empty.
const DefaultModel = "gpt-4o-mini"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the llm node strategy.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterNode(nodetype.LLM, registry.NodeStrategyFunc(
		func(ctx context.Context, def document.NodeDef, baseDir string, res registry.Resources) (*node.Runnable, error) {
			return node.BuildFunction(ctx, def, baseDir, res, &llmNode{})
		}))
}

type llmNode struct {
	cfg          document.Config
	provider     string
	model        string
	template     string
	systemPrompt string
	temperature  float32
	maxTokens    int

	client *openai.Client
}

func (n *llmNode) ParseConfig(def document.NodeDef, _ string) error {
	n.cfg = def.Config
	n.provider = def.Config.String("provider")
	if n.provider == "" {
		n.provider = ProviderOpenAI
	}
	if n.provider != ProviderOpenAI && n.provider != ProviderEcho {
		return fmt.Errorf("unsupported provider %q (want %s or %s)", n.provider, ProviderOpenAI, ProviderEcho)
	}
	n.model = def.Config.String("model")
	if n.model == "" {
		n.model = DefaultModel
	}
	n.systemPrompt = def.Config.String("system_prompt")

	n.template = def.Config.String("prompt_template")
	if n.template == "" {
		keys, err := node.ParseInputKeys(def.InputKeys)
		if err != nil {
			return err
		}
		if len(keys) != 1 {
			return errors.New("prompt_template is required unless the node has exactly one input key")
		}
		n.template = "{" + keys[0].Dest + "}"
	}

	param := def.Config.Param()
	n.temperature = float32(param.Float("temperature", 0))
	n.maxTokens = param.Int("max_tokens", 0)
	return nil
}

// ProvidesMetadata reports whether calls return completion metadata.
func (n *llmNode) ProvidesMetadata() bool {
	return n.provider == ProviderOpenAI
}

func (n *llmNode) ImportTargetFunction(_ context.Context, _ node.Resources) error {
	if n.provider == ProviderEcho {
		return nil
	}
	client, err := openaiclient.New(n.cfg)
	if err != nil {
		return err
	}
	n.client = client
	return nil
}

func (n *llmNode) CallTargetFunction(ctx context.Context, inputs map[string]any) (any, error) {
	prompt, err := prompts.RenderTemplate(n.template, prompts.TemplateFormatFString, inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}
	if n.provider == ProviderEcho {
		return prompt, nil
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Generating text via OpenAI", "model", n.model)

	var messages []openai.ChatCompletionMessage
	if n.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: n.systemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	req := openai.ChatCompletionRequest{
		Model:       n.model,
		Messages:    messages,
		Temperature: n.temperature,
		MaxTokens:   n.maxTokens,
	}
	resp, err := n.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("OpenAI returned no choices")
	}

	choice := resp.Choices[0]
	logger.Debug("Received response from OpenAI", "finish_reason", choice.FinishReason)
	return node.Result{
		Value: strings.TrimSpace(choice.Message.Content),
		Metadata: map[string]any{
			"model":         resp.Model,
			"finish_reason": string(choice.FinishReason),
			"total_tokens":  resp.Usage.TotalTokens,
		},
	}, nil
}

// Package llm invokes Anthropic models on behalf of registered agents and
// runs agents against their coordination queue.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// DefaultMaxTokens caps a single response when the config leaves it unset.
const DefaultMaxTokens = 4096

// ErrNoAPIKey is returned when neither the config nor the environment holds a key.
var ErrNoAPIKey = errors.New("ANTHROPIC_API_KEY environment variable is not set")

// Turn is one message of a conversation history.
type Turn struct {
	// Role is "user" or "assistant".
	Role    string
	Content string
}

// InvokeRequest is the input of InvokeModel.
type InvokeRequest struct {
	AgentID      string
	SystemPrompt string
	History      []Turn
	UserMessage  string
}

// InvokeResult is the model's reply with its usage.
type InvokeResult struct {
	Text       string
	TokensUsed int64
	// Cost is the estimated USD cost of this call.
	Cost float64
}

// Invoker calls a model. Client implements it.
type Invoker interface {
	InvokeModel(ctx context.Context, req InvokeRequest) (*InvokeResult, error)
}

// Client wraps the Anthropic SDK client with token tracking.
type Client struct {
	inner     anthropic.Client
	model     anthropic.Model
	maxTokens int64
	tracker   *TokenTracker
}

// ClientConfig contains configuration for creating a new Client.
type ClientConfig struct {
	// Model is the Claude model to use. Defaults to Sonnet 4.
	Model anthropic.Model
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY env var.
	APIKey string
	// MaxTokens bounds each response. Defaults to DefaultMaxTokens.
	MaxTokens int64
	// UseAWSBedrock routes calls through AWS Bedrock instead of the direct API.
	UseAWSBedrock bool
	AWSRegion     string
	AWSProfile    string
}

// NewClient creates a new Anthropic API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, ErrNoAPIKey
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseAWSBedrock {
		model = bedrockModel(model)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &Client{
		inner:     anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		tracker:   NewTokenTracker(),
	}, nil
}

// bedrockModels maps Anthropic model names to Bedrock cross-region inference profiles.
var bedrockModels = map[anthropic.Model]string{
	anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
	anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
	anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
	anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
	anthropic.ModelClaudeOpus4_5_20251101:   "us.anthropic.claude-opus-4-5-20251101-v1:0",
	anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
}

// bedrockModel returns the inference profile for model, or model unchanged
// when it is unknown or already in Bedrock form.
func bedrockModel(model anthropic.Model) anthropic.Model {
	if m, ok := bedrockModels[model]; ok {
		return anthropic.Model(m)
	}
	return model
}

// Model returns the configured model name.
func (c *Client) Model() anthropic.Model {
	return c.model
}

// Tracker returns the token tracker for this client.
func (c *Client) Tracker() *TokenTracker {
	return c.tracker
}

// InvokeModel sends one conversation turn and returns the text reply.
func (c *Client) InvokeModel(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	messages, err := buildMessages(req.History, req.UserMessage)
	if err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  messages,
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("invoke %s for %s: %w", c.model, req.AgentID, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}

	in, out := resp.Usage.InputTokens, resp.Usage.OutputTokens
	c.tracker.Add(in, out)

	return &InvokeResult{
		Text:       text.String(),
		TokensUsed: in + out,
		Cost:       PriceFor(c.model).Cost(in, out),
	}, nil
}

// buildMessages converts the history and the new user message into SDK params.
func buildMessages(history []Turn, userMessage string) ([]anthropic.MessageParam, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, errors.New("user message is required")
	}
	messages := make([]anthropic.MessageParam, 0, len(history)+1)
	for i, turn := range history {
		switch turn.Role {
		case "user":
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		default:
			return nil, fmt.Errorf("history turn %d: unknown role %q", i, turn.Role)
		}
	}
	return append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage))), nil
}

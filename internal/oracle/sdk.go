package oracle

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	// DefaultModel handles the reasoning-heavy calls (pattern analysis,
	// test synthesis). Overridable via PATTERNHUNTER_MODEL.
	DefaultModel = "claude-sonnet-4-5-20250929"

	// DefaultSDKTimeout bounds a single SDK request.
	DefaultSDKTimeout = 120 * time.Second

	defaultMaxTokens = 4096
)

// SDKConfig holds SDK oracle client configuration.
type SDKConfig struct {
	APIKey    string        // falls back to ANTHROPIC_API_KEY
	Model     string        // falls back to PATTERNHUNTER_MODEL, then DefaultModel
	MaxTokens int           // per-response cap (default 4096)
	Timeout   time.Duration // per-request timeout (default 120s)

	// CallsPerMinute rate-limits requests; 0 disables limiting.
	CallsPerMinute int
	// MaxConcurrent caps in-flight requests; 0 disables the cap. The
	// pipeline itself is sequential, so this only matters when the client
	// is shared.
	MaxConcurrent int
}

// SDKClient calls the reasoning service through its native SDK.
type SDKClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
	limiter   *rate.Limiter
	sem       *semaphore.Weighted
}

// NewSDKClient creates an SDK oracle client.
func NewSDKClient(cfg SDKConfig) (*SDKClient, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	model := cfg.Model
	if model == "" {
		model = os.Getenv("PATTERNHUNTER_MODEL")
	}
	if model == "" {
		model = DefaultModel
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultSDKTimeout
	}

	var limiter *rate.Limiter
	if cfg.CallsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.CallsPerMinute)/60.0), 1)
	}
	var sem *semaphore.Weighted
	if cfg.MaxConcurrent > 0 {
		sem = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &SDKClient{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
		limiter:   limiter,
		sem:       sem,
	}, nil
}

// GenerateText issues one message request and concatenates the text blocks
// of the response.
func (c *SDKClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return "", &CallError{Variant: "sdk", Err: err}
		}
		defer c.sem.Release(1)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &CallError{Variant: "sdk", Err: err}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if callCtx.Err() == context.DeadlineExceeded {
		return "", &CallError{Variant: "sdk", Err: fmt.Errorf("%w after %v", ErrTimeout, c.timeout)}
	}
	if err != nil {
		return "", &CallError{Variant: "sdk", Err: err}
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

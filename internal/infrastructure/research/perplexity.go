package research

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/reubenai/dealsense/internal/config"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	"github.com/reubenai/dealsense/pkg/errors"
)

// PerplexityClient calls the Perplexity chat-completions API.  Perplexity is
// the pack pipeline's web-grounded researcher: its responses carry citation
// URLs that flow into EnrichmentResult.Sources.
type PerplexityClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	policy  retryPolicy
	logger  logging.Logger
}

// NewPerplexityClient builds a Perplexity provider from the research config.
func NewPerplexityClient(cfg config.ResearchConfig, logger logging.Logger) *PerplexityClient {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PerplexityClient{
		apiKey:  cfg.PerplexityAPIKey,
		model:   cfg.PerplexityModel,
		baseURL: cfg.PerplexityBaseURL,
		http:    &http.Client{Timeout: cfg.CallTimeout},
		policy:  retryPolicy{MaxRetries: cfg.MaxRetries, InitialBackoff: cfg.InitialBackoff},
		logger:  logger.Named("perplexity"),
	}
}

// Name implements Provider.
func (c *PerplexityClient) Name() string { return "perplexity" }

// Research implements Provider.
func (c *PerplexityClient) Research(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	err := doWithRetry(ctx, c.policy, func() error {
		var callErr error
		resp, callErr = c.call(ctx, req)
		return callErr
	})
	return resp, err
}

func (c *PerplexityClient) call(ctx context.Context, req Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshal perplexity request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "build perplexity request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.ErrCodeProviderTimeout, "perplexity call timed out")
		}
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "perplexity call failed")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, httpResp.Body)
		return nil, errorForStatus(c.Name(), httpResp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderParseError, "decode perplexity response")
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New(errors.ErrCodeProviderParseError, "perplexity response has no choices")
	}

	return &Response{
		Text:       parsed.Choices[0].Message.Content,
		Citations:  parsed.Citations,
		Provider:   c.Name(),
		Model:      c.model,
		TokensUsed: parsed.Usage.TotalTokens,
	}, nil
}

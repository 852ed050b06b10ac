package research

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/reubenai/dealsense/internal/config"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	"github.com/reubenai/dealsense/pkg/errors"
)

const defaultMaxTokens = 1024

// OpenAIClient calls the OpenAI chat-completions API.
type OpenAIClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	policy  retryPolicy
	logger  logging.Logger
}

// NewOpenAIClient builds an OpenAI provider from the research config.
func NewOpenAIClient(cfg config.ResearchConfig, logger logging.Logger) *OpenAIClient {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &OpenAIClient{
		apiKey:  cfg.OpenAIAPIKey,
		model:   cfg.OpenAIModel,
		baseURL: cfg.OpenAIBaseURL,
		http:    &http.Client{Timeout: cfg.CallTimeout},
		policy:  retryPolicy{MaxRetries: cfg.MaxRetries, InitialBackoff: cfg.InitialBackoff},
		logger:  logger.Named("openai"),
	}
}

// Name implements Provider.
func (c *OpenAIClient) Name() string { return "openai" }

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Citations []string `json:"citations"`
}

// Research implements Provider.
func (c *OpenAIClient) Research(ctx context.Context, req Request) (*Response, error) {
	started := time.Now()

	var resp *Response
	err := doWithRetry(ctx, c.policy, func() error {
		var callErr error
		resp, callErr = c.call(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("research call completed",
		logging.String("model", c.model),
		logging.Int("tokens", resp.TokensUsed),
		logging.Duration("elapsed", time.Since(started)))
	return resp, nil
}

func (c *OpenAIClient) call(ctx context.Context, req Request) (*Response, error) {
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
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshal openai request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "build openai request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.ErrCodeProviderTimeout, "openai call timed out")
		}
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "openai call failed")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, httpResp.Body)
		return nil, errorForStatus(c.Name(), httpResp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderParseError, "decode openai response")
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New(errors.ErrCodeProviderParseError, "openai response has no choices")
	}

	return &Response{
		Text:       parsed.Choices[0].Message.Content,
		Provider:   c.Name(),
		Model:      c.model,
		TokensUsed: parsed.Usage.TotalTokens,
	}, nil
}

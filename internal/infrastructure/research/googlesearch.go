package research

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/reubenai/dealsense/internal/config"
	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	"github.com/reubenai/dealsense/pkg/errors"
)

// googleResultLimit caps how many search results feed one research answer.
const googleResultLimit = 5

// GoogleSearchClient calls the Google Custom Search JSON API.  It adapts
// search results to the Provider contract: the request prompt becomes the
// query, the response text is the concatenated snippets, and the result
// links become citations.
type GoogleSearchClient struct {
	apiKey   string
	engineID string
	baseURL  string
	http     *http.Client
	policy   retryPolicy
	logger   logging.Logger
}

// NewGoogleSearchClient builds a Google search provider from the research
// config.
func NewGoogleSearchClient(cfg config.ResearchConfig, logger logging.Logger) *GoogleSearchClient {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &GoogleSearchClient{
		apiKey:   cfg.GoogleSearchAPIKey,
		engineID: cfg.GoogleSearchCX,
		baseURL:  cfg.GoogleSearchURL,
		http:     &http.Client{Timeout: cfg.CallTimeout},
		policy:   retryPolicy{MaxRetries: cfg.MaxRetries, InitialBackoff: cfg.InitialBackoff},
		logger:   logger.Named("googlesearch"),
	}
}

// Name implements Provider.
func (c *GoogleSearchClient) Name() string { return "google_search" }

type searchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Research implements Provider.  The SystemPrompt and MaxTokens fields are
// ignored; search has no completion to steer.
func (c *GoogleSearchClient) Research(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	err := doWithRetry(ctx, c.policy, func() error {
		var callErr error
		resp, callErr = c.call(ctx, req.Prompt)
		return callErr
	})
	return resp, err
}

func (c *GoogleSearchClient) call(ctx context.Context, query string) (*Response, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", "5")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "build search request")
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(err, errors.ErrCodeProviderTimeout, "search call timed out")
		}
		return nil, errors.Wrap(err, errors.ErrCodeProviderUnavailable, "search call failed")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, httpResp.Body)
		return nil, errorForStatus(c.Name(), httpResp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderParseError, "decode search response")
	}

	var text strings.Builder
	var citations []string
	for i, item := range parsed.Items {
		if i >= googleResultLimit {
			break
		}
		text.WriteString(item.Title)
		text.WriteString(": ")
		text.WriteString(item.Snippet)
		text.WriteString("\n")
		citations = append(citations, item.Link)
	}

	return &Response{
		Text:      text.String(),
		Citations: citations,
		Provider:  c.Name(),
	}, nil
}

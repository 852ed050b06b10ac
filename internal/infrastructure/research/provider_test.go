package research

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reubenai/dealsense/internal/config"
	"github.com/reubenai/dealsense/pkg/errors"
)

func researchConfig(serverURL string) config.ResearchConfig {
	return config.ResearchConfig{
		OpenAIAPIKey:       "sk-test",
		OpenAIModel:        "gpt-4o-mini",
		OpenAIBaseURL:      serverURL,
		PerplexityAPIKey:   "pplx-test",
		PerplexityModel:    "sonar",
		PerplexityBaseURL:  serverURL,
		GoogleSearchAPIKey: "goog-test",
		GoogleSearchCX:     "cx-test",
		GoogleSearchURL:    serverURL,
		CallTimeout:        2 * time.Second,
		MaxRetries:         2,
		InitialBackoff:     time.Millisecond,
	}
}

func TestOpenAIClient_Research(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{
			"choices":[{"message":{"content":"The TAM is $1.5 trillion."}}],
			"usage":{"total_tokens":321}
		}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(researchConfig(srv.URL), nil)
	resp, err := c.Research(context.Background(), Request{
		Prompt:       "What is the fintech TAM?",
		SystemPrompt: "You are a market analyst.",
	})
	require.NoError(t, err)
	assert.Equal(t, "The TAM is $1.5 trillion.", resp.Text)
	assert.Equal(t, "openai", resp.Provider)
	assert.Equal(t, 321, resp.TokensUsed)
}

func TestOpenAIClient_RetriesRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(researchConfig(srv.URL), nil)
	resp, err := c.Research(context.Background(), Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestOpenAIClient_AuthFailureNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewOpenAIClient(researchConfig(srv.URL), nil)
	_, err := c.Research(context.Background(), Request{Prompt: "q"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProviderAuthFailed, errors.GetCode(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "auth failures must fail fast")
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(researchConfig(srv.URL), nil)
	_, err := c.Research(context.Background(), Request{Prompt: "q"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProviderParseError, errors.GetCode(err))
}

func TestPerplexityClient_Citations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"choices":[{"message":{"content":"Growth is 18% CAGR."}}],
			"citations":["https://example.com/report","https://example.com/data"]
		}`))
	}))
	defer srv.Close()

	c := NewPerplexityClient(researchConfig(srv.URL), nil)
	resp, err := c.Research(context.Background(), Request{Prompt: "fintech growth"})
	require.NoError(t, err)
	assert.Equal(t, "Growth is 18% CAGR.", resp.Text)
	assert.Equal(t, []string{"https://example.com/report", "https://example.com/data"}, resp.Citations)
	assert.Equal(t, "perplexity", resp.Provider)
}

func TestGoogleSearchClient_SnippetsAndLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "goog-test", r.URL.Query().Get("key"))
		assert.Equal(t, "cx-test", r.URL.Query().Get("cx"))
		assert.Equal(t, "acme analytics funding", r.URL.Query().Get("q"))
		w.Write([]byte(`{"items":[
			{"title":"Acme raises $30M","link":"https://news.example.com/a","snippet":"Series B round."},
			{"title":"Acme profile","link":"https://db.example.com/acme","snippet":"Analytics startup."}
		]}`))
	}))
	defer srv.Close()

	c := NewGoogleSearchClient(researchConfig(srv.URL), nil)
	resp, err := c.Research(context.Background(), Request{Prompt: "acme analytics funding"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "Acme raises $30M")
	assert.Contains(t, resp.Text, "Series B round.")
	assert.Len(t, resp.Citations, 2)
	assert.Equal(t, "google_search", resp.Provider)
}

func TestGoogleSearchClient_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewGoogleSearchClient(researchConfig(srv.URL), nil)
	resp, err := c.Research(context.Background(), Request{Prompt: "zqxv"})
	require.NoError(t, err)
	assert.Empty(t, resp.Text)
	assert.Empty(t, resp.Citations)
}

func TestResearch_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"choices":[{"message":{"content":"late"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(researchConfig(srv.URL), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Research(ctx, Request{Prompt: "q"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeProviderTimeout, errors.GetCode(err))
}

func TestErrorForStatus(t *testing.T) {
	assert.Equal(t, errors.ErrCodeProviderRateLimited, errorForStatus("p", 429).Code)
	assert.Equal(t, errors.ErrCodeProviderAuthFailed, errorForStatus("p", 401).Code)
	assert.Equal(t, errors.ErrCodeProviderAuthFailed, errorForStatus("p", 403).Code)
	assert.Equal(t, errors.ErrCodeProviderUnavailable, errorForStatus("p", 503).Code)
	assert.Equal(t, errors.ErrCodeProviderUnavailable, errorForStatus("p", 418).Code)
}

package inference

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/vinayprograms/fleetagent/errors"
)

// DefaultTimeout bounds a single inference request. Generation can be
// slow, so this is deliberately generous.
const DefaultTimeout = 5 * time.Minute

// DefaultPort is the conventional listen port for the inference server.
const DefaultPort = 11434

// Config holds the settings for an inference Client.
type Config struct {
	Host    string
	Port    int
	Timeout time.Duration // defaults to DefaultTimeout
}

// Client talks to one Ollama-compatible inference server. It holds no
// state beyond the connection pool and is safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the inference server at cfg.Host:cfg.Port.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.InvalidConfig("inference host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, errors.InvalidConfig(fmt.Sprintf("inference port %d out of range", cfg.Port))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// BaseURL returns the server address this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat sends a non-streaming chat request and returns the completed turn.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req.Stream = false
	var resp ChatResponse
	if err := c.post(ctx, "/api/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Generate sends a non-streaming raw-prompt completion request.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	req.Stream = false
	var resp GenerateResponse
	if err := c.post(ctx, "/api/generate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Embed returns the embedding vector for a single prompt.
func (c *Client) Embed(ctx context.Context, req EmbedRequest) (*EmbedResponse, error) {
	var resp EmbedResponse
	if err := c.post(ctx, "/api/embeddings", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListModels returns the models available on the server.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	url := c.baseURL + "/api/tags"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating model list request")
	}

	var resp listModelsResponse
	if err := c.do(httpReq, url, &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// Close releases idle connections held by the client's pool. In-flight
// requests are unaffected.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

// post marshals payload, POSTs it to path and decodes the body into out.
func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshaling inference request")
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "creating inference request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq, url, out)
}

func (c *Client) do(req *http.Request, url string, out interface{}) error {
	httpResp, err := c.client.Do(req)
	if err != nil {
		var netErr net.Error
		if stderrors.As(err, &netErr) && netErr.Timeout() {
			return errors.Timeout(fmt.Sprintf("timeout talking to %s", url),
				errors.WithCause(err), errors.WithEndpoint(url))
		}
		return errors.NetworkErr(fmt.Sprintf("connection failed to %s", url),
			errors.WithCause(err), errors.WithEndpoint(url))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return errors.Wrap(err, "reading inference response")
	}

	if httpResp.StatusCode != http.StatusOK {
		return errors.UnexpectedStatus(httpResp.StatusCode, string(respBody), errors.WithEndpoint(url))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Wrap(err, "parsing inference response")
	}
	return nil
}

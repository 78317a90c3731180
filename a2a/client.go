package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cling-godaddy/muse-sub001/retry"
)

// httpStatusError carries the HTTP status of a failed call so the retry
// layer can classify it.
type httpStatusError struct {
	code int
}

func (e *httpStatusError) Error() string   { return fmt.Sprintf("unexpected http status %d", e.code) }
func (e *httpStatusError) StatusCode() int { return e.code }

// Client is an A2A protocol client for calling a remote builder.
type Client struct {
	endpoint   string
	httpClient *http.Client
	retry      retry.Config
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithRetry overrides the default retry policy for transport failures.
func WithRetry(cfg retry.Config) ClientOption {
	return func(client *Client) {
		client.retry = cfg
	}
}

// NewClient creates a new A2A client for the given JSON-RPC endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
		retry:      retry.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendMessageRequest represents a message/send request.
type SendMessageRequest struct {
	Message  Message        `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// jsonRPCRequest represents a JSON-RPC 2.0 request.
type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// jsonRPCResponse represents a JSON-RPC 2.0 response.
type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	rpcReq := jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      "1",
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(rpcReq)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	// Retries cover transport failures only; JSON-RPC errors come back in a
	// well-formed response and are never retried.
	respBody, err := retry.Do(ctx, c.retry, func() ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, &httpStatusError{code: resp.StatusCode}
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return err
	}

	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("failed to parse result: %w", err)
	}
	return nil
}

// SendMessage sends a message to the remote builder and returns the task.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*Task, error) {
	var task Task
	if err := c.call(ctx, "message/send", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SendText is a convenience method that sends a text message.
func (c *Client) SendText(ctx context.Context, text string) (*Task, error) {
	return c.SendMessage(ctx, SendMessageRequest{
		Message: NewMessage(MessageRoleUser, NewTextPart(text)),
	})
}

// GetTask fetches a task by id. historyLength limits the returned history to
// the last n messages; zero returns it all.
func (c *Client) GetTask(ctx context.Context, id string, historyLength int) (*Task, error) {
	params := map[string]any{"id": id}
	if historyLength > 0 {
		params["historyLength"] = historyLength
	}
	var task Task
	if err := c.call(ctx, "tasks/get", params, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CancelTask requests cancellation of a task.
func (c *Client) CancelTask(ctx context.Context, id string) (*Task, error) {
	var task Task
	if err := c.call(ctx, "tasks/cancel", map[string]any{"id": id}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Client speaks JSON-RPC to an A2A agent over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	extensions []string
	authToken  string
	intercept  []MessageInterceptor
	nextID     atomic.Int64
}

// MessageInterceptor rewrites each outbound message before it is sent.
type MessageInterceptor func(*Message)

type ClientOption func(*Client)

// WithExtensions activates extensions on every request via the
// X-A2A-Extensions header.
func WithExtensions(uris ...string) ClientOption {
	return func(c *Client) {
		c.extensions = append(c.extensions, uris...)
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMessageInterceptor runs fn on a copy of every message the client sends
// with message/send or message/stream.
func WithMessageInterceptor(fn MessageInterceptor) ClientOption {
	return func(c *Client) {
		c.intercept = append(c.intercept, fn)
	}
}

func WithAuthToken(token string) ClientOption {
	return func(c *Client) {
		c.authToken = token
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CallResult carries the response of a Call together with the extensions the
// server reported as activated.
type CallResult struct {
	Activated ExtensionSet
}

// Call invokes method with params and decodes the result into out. A
// JSON-RPC error is returned as *JSONRPCError.
func (c *Client) Call(ctx context.Context, method string, params, out any) (CallResult, error) {
	if p, ok := params.(MessageSendParams); ok && len(c.intercept) > 0 {
		p.Message.Metadata = CloneMetadata(p.Message.Metadata)
		for _, fn := range c.intercept {
			fn(&p.Message)
		}
		params = p
	}
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return CallResult{}, fmt.Errorf("a2a: encoding params: %w", err)
		}
		raw = b
	}
	body, err := json.Marshal(JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  raw,
	})
	if err != nil {
		return CallResult{}, fmt.Errorf("a2a: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/", bytes.NewReader(body))
	if err != nil {
		return CallResult{}, fmt.Errorf("a2a: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if len(c.extensions) > 0 {
		req.Header.Set(ExtensionsHeader, strings.Join(c.extensions, ", "))
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CallResult{}, fmt.Errorf("a2a: calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	res := CallResult{Activated: ParseExtensions(resp.Header.Values(ExtensionsHeader)...)}
	if resp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("a2a: %s returned %s", method, resp.Status)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *JSONRPCError   `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return res, fmt.Errorf("a2a: decoding response: %w", err)
	}
	if envelope.Error != nil {
		return res, envelope.Error
	}
	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return res, fmt.Errorf("a2a: decoding result: %w", err)
		}
	}
	return res, nil
}

// SendText sends a single text message.
func (c *Client) SendText(ctx context.Context, text string, metadata map[string]any) (SendResult, error) {
	msg := NewTextMessage(RoleUser, text)
	msg.Metadata = metadata
	return c.SendMessage(ctx, *msg)
}

func (c *Client) SendMessage(ctx context.Context, msg Message) (SendResult, error) {
	var res SendResult
	_, err := c.Call(ctx, MethodMessageSend, MessageSendParams{Message: msg}, &res)
	return res, err
}

func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var task Task
	if _, err := c.Call(ctx, MethodTasksGet, TaskIDParams{ID: id}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) ExtendedCard(ctx context.Context) (*AgentCard, error) {
	var card AgentCard
	if _, err := c.Call(ctx, MethodExtendedCard, nil, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// AgentCard fetches the public card from the well-known path.
func (c *Client) AgentCard(ctx context.Context) (*AgentCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/.well-known/agent-card.json", nil)
	if err != nil {
		return nil, fmt.Errorf("a2a: building request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("a2a: fetching agent card: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("a2a: agent card returned %s", resp.Status)
	}

	var card AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("a2a: decoding agent card: %w", err)
	}
	return &card, nil
}

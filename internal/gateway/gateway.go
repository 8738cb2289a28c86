// Package gateway is the single choke point for calls to the external
// generation backend. Its contract is transport only: send a structured
// request, hand back the normalized raw response or a typed GenerationError.
// Interpreting the response shape is the dispatcher's job.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/NivraSD/SignalDesk-sub005/internal/types"
)

// Request is the structured generation request.
type Request struct {
	Message   string                 `json:"message"`
	Context   map[string]string      `json:"context"`
	Mode      types.ConsultationMode `json:"mode"`
	SessionID string                 `json:"sessionId"`
}

// RawWorkItem mirrors the backend's optional workItems entries. Fields may
// be missing; consumers treat absent fields as empty.
type RawWorkItem struct {
	Type             string          `json:"type"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	GeneratedContent json.RawMessage `json:"generatedContent"`
}

// Response is the backend payload with the primary text field resolved at
// the boundary. The backend is inconsistent about whether the text arrives
// in "response" or "data"; both are accepted here so the ambiguity does not
// leak into call sites.
type Response struct {
	Text              string
	StrategicAnalysis string
	WorkItems         []RawWorkItem
}

// Generator is implemented by every backend the gateway can route to.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

// wireResponse is the loose decode target for the REST backend.
type wireResponse struct {
	Response          json.RawMessage `json:"response"`
	Data              json.RawMessage `json:"data"`
	StrategicAnalysis string          `json:"strategicAnalysis"`
	WorkItems         []RawWorkItem   `json:"workItems"`
	Error             string          `json:"error"`
}

// Config holds REST client settings.
type Config struct {
	BaseURL string
	Path    string
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// RESTClient implements Generator over the backend's HTTP contract:
// POST {message, context, mode, sessionId} as JSON.
type RESTClient struct {
	baseURL    string
	path       string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRESTClient creates the REST backend client.
func NewRESTClient(cfg Config) (*RESTClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway base URL is required")
	}
	if cfg.Path == "" {
		cfg.Path = "/api/generate"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &RESTClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		path:    cfg.Path,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: cfg.Logger,
	}, nil
}

func (c *RESTClient) Name() string { return "rest" }

// Generate sends the request and normalizes the response. Failures are
// classified into TIMEOUT, NETWORK, or BACKEND_ERROR; no retries happen at
// this layer.
func (c *RESTClient) Generate(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, newError(KindBackend, "failed to marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewReader(body))
	if err != nil {
		return nil, newError(KindNetwork, "failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, newError(KindTimeout, "backend did not respond in time", err)
		}
		return nil, newError(KindNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindNetwork, "failed to read response", err)
	}

	c.logger.Debug("gateway response received",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return nil, newError(KindBackend,
			fmt.Sprintf("backend returned status %d: %s", resp.StatusCode, truncate(string(raw), 200)), nil)
	}

	var wire wireResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, newError(KindBackend, "failed to parse response body", err)
	}
	if wire.Error != "" {
		return nil, newError(KindBackend, wire.Error, nil)
	}

	return &Response{
		Text:              resolveText(wire.Response, wire.Data),
		StrategicAnalysis: wire.StrategicAnalysis,
		WorkItems:         wire.WorkItems,
	}, nil
}

// resolveText picks the primary text from "response" or "data", in that
// order. String values are unquoted; any other non-null JSON value is kept
// as its raw text so nothing is silently dropped.
func resolveText(candidates ...json.RawMessage) string {
	for _, raw := range candidates {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s != "" {
				return s
			}
			continue
		}
		return string(raw)
	}
	return ""
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	if errors.As(err, &t) {
		return t.Timeout()
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Package apicall provides the generic outbound HTTP call node with a
// configurable per-call timeout.
package apicall

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

const NodeType = "api_call"

const defaultTimeout = 30 * time.Second

func NewHandlerFactory() *HandlerFactory {
	return &HandlerFactory{}
}

type HandlerFactory struct{}

func (f *HandlerFactory) ID() string {
	return NodeType
}

func (f *HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url":     map[string]any{"type": "string", "format": "uri"},
			"method":  map[string]any{"type": "string", "enum": []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"}},
			"headers": map[string]any{"type": "object"},
			"body":    map[string]any{},
			"timeout": map[string]any{"type": "number", "description": "Timeout in seconds", "minimum": 0},
		},
		"required": []string{"url"},
	}
}

func (f *HandlerFactory) Create(config map[string]any) (protocol.Handler, error) {
	url, _ := config["url"].(string)

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	headers := make(map[string]string)
	if headersConfig, ok := config["headers"].(map[string]any); ok {
		for k, v := range headersConfig {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}

	timeout := defaultTimeout
	if seconds, ok := config["timeout"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds * float64(time.Second))
	}

	return &Handler{
		client:  resty.New().SetTimeout(timeout),
		url:     url,
		method:  strings.ToUpper(method),
		headers: headers,
		body:    config["body"],
	}, nil
}

type Handler struct {
	client  *resty.Client
	url     string
	method  string
	headers map[string]string
	body    any
}

// Execute performs the call. An expired timeout is a failure result, not a
// crash.
func (h *Handler) Execute(ctx context.Context, node *models.FlowNode, executionCtx *models.ExecutionContext, logger *slog.Logger) models.ExecutionResult {
	logger.InfoContext(ctx, "Calling API", "url", h.url, "method", h.method)

	request := h.client.R().
		SetContext(ctx).
		SetHeaders(h.headers)

	if h.body != nil {
		request.SetBody(h.body)
	}

	response, err := request.Execute(h.method, h.url)
	if err != nil {
		return models.Fail(fmt.Errorf("api call failed: %w", err), map[string]any{"url": h.url})
	}

	if response.IsError() {
		return models.Fail(
			fmt.Errorf("api returned status %d", response.StatusCode()),
			map[string]any{"url": h.url, "status_code": response.StatusCode()},
		)
	}

	return models.Succeed(map[string]any{
		"status_code": response.StatusCode(),
		"body":        string(response.Body()),
	})
}

// Package webhook provides the node that posts a payload to an arbitrary
// endpoint.
package webhook

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

const NodeType = "webhook"

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
			"method":  map[string]any{"type": "string", "enum": []string{"GET", "POST", "PUT", "PATCH", "DELETE"}},
			"headers": map[string]any{"type": "object"},
			"payload": map[string]any{"type": "object"},
			"secret":  map[string]any{"type": "string"},
		},
		"required": []string{"url"},
	}
}

func (f *HandlerFactory) Create(config map[string]any) (protocol.Handler, error) {
	url, _ := config["url"].(string)

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodPost
	}

	headers := make(map[string]string)
	if headersConfig, ok := config["headers"].(map[string]any); ok {
		for k, v := range headersConfig {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}

	payload, _ := config["payload"].(map[string]any)
	secret, _ := config["secret"].(string)

	return &Handler{
		client:  resty.New().SetTimeout(defaultTimeout),
		url:     url,
		method:  strings.ToUpper(method),
		headers: headers,
		payload: payload,
		secret:  secret,
	}, nil
}

type Handler struct {
	client  *resty.Client
	url     string
	method  string
	headers map[string]string
	payload map[string]any
	secret  string
}

func (h *Handler) Execute(ctx context.Context, node *models.FlowNode, executionCtx *models.ExecutionContext, logger *slog.Logger) models.ExecutionResult {
	logger.InfoContext(ctx, "Calling webhook", "url", h.url, "method", h.method)

	request := h.client.R().
		SetContext(ctx).
		SetHeaders(h.headers)

	if h.secret != "" {
		request.SetHeader("X-Fluxo-Signature", h.secret)
	}

	if h.payload != nil {
		request.SetBody(h.payload)
	}

	var body map[string]any

	request.SetResult(&body)

	response, err := request.Execute(h.method, h.url)
	if err != nil {
		return models.Fail(fmt.Errorf("webhook call failed: %w", err), map[string]any{"url": h.url})
	}

	if response.IsError() {
		return models.Fail(
			fmt.Errorf("webhook returned status %d", response.StatusCode()),
			map[string]any{"url": h.url, "status_code": response.StatusCode()},
		)
	}

	return models.Succeed(map[string]any{
		"status_code": response.StatusCode(),
		"response":    body,
	})
}

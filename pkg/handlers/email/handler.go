// Package email provides the node that sends email through the mail
// collaborator. Sending is irreversible, so the handler is not compensable.
package email

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

const NodeType = "email"

func NewHandlerFactory(mailer protocol.Mailer) *HandlerFactory {
	return &HandlerFactory{mailer: mailer}
}

type HandlerFactory struct {
	mailer protocol.Mailer
}

func (f *HandlerFactory) ID() string {
	return NodeType
}

func (f *HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 1},
			"subject":     map[string]any{"type": "string"},
			"body":        map[string]any{"type": "string"},
			"template":    map[string]any{"type": "string"},
			"cc":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"bcc":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"attachments": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"to", "subject"},
	}
}

func (f *HandlerFactory) Create(config map[string]any) (protocol.Handler, error) {
	if f.mailer == nil {
		return nil, errors.New("email handler requires a mailer collaborator")
	}

	return &Handler{
		mailer: f.mailer,
		message: protocol.EmailMessage{
			To:          stringSlice(config["to"]),
			CC:          stringSlice(config["cc"]),
			BCC:         stringSlice(config["bcc"]),
			Subject:     stringValue(config["subject"]),
			Body:        stringValue(config["body"]),
			Template:    stringValue(config["template"]),
			Attachments: stringSlice(config["attachments"]),
		},
	}, nil
}

type Handler struct {
	mailer  protocol.Mailer
	message protocol.EmailMessage
}

func (h *Handler) Execute(ctx context.Context, node *models.FlowNode, executionCtx *models.ExecutionContext, logger *slog.Logger) models.ExecutionResult {
	logger.InfoContext(ctx, "Sending email", "to", h.message.To, "subject", h.message.Subject)

	messageID, err := h.mailer.Send(ctx, h.message)
	if err != nil {
		return models.Fail(err, map[string]any{"to": h.message.To})
	}

	return models.Succeed(map[string]any{
		"message_id": messageID,
		"recipients": len(h.message.To) + len(h.message.CC) + len(h.message.BCC),
	})
}

func stringValue(v any) string {
	s, _ := v.(string)

	return s
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(items))

	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}

	return out
}

// Package whatsapp provides the node that sends a WhatsApp message through
// the sender collaborator. Delivery is irreversible, so the handler is not
// compensable.
package whatsapp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

const NodeType = "whatsapp"

func NewHandlerFactory(sender protocol.WhatsAppSender) *HandlerFactory {
	return &HandlerFactory{sender: sender}
}

type HandlerFactory struct {
	sender protocol.WhatsAppSender
}

func (f *HandlerFactory) ID() string {
	return NodeType
}

func (f *HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"phoneNumber":    map[string]any{"type": "string", "minLength": 1},
			"message":        map[string]any{"type": "string"},
			"mediaUrl":       map[string]any{"type": "string"},
			"templateId":     map[string]any{"type": "string"},
			"templateParams": map[string]any{"type": "object"},
		},
		"required": []string{"phoneNumber"},
	}
}

func (f *HandlerFactory) Create(config map[string]any) (protocol.Handler, error) {
	if f.sender == nil {
		return nil, errors.New("whatsapp handler requires a sender collaborator")
	}

	phoneNumber, _ := config["phoneNumber"].(string)
	message, _ := config["message"].(string)
	mediaURL, _ := config["mediaUrl"].(string)
	templateID, _ := config["templateId"].(string)

	templateParams := make(map[string]string)
	if params, ok := config["templateParams"].(map[string]any); ok {
		for k, v := range params {
			if s, ok := v.(string); ok {
				templateParams[k] = s
			}
		}
	}

	return &Handler{
		sender: f.sender,
		message: protocol.WhatsAppMessage{
			PhoneNumber:    phoneNumber,
			Message:        message,
			MediaURL:       mediaURL,
			TemplateID:     templateID,
			TemplateParams: templateParams,
		},
	}, nil
}

type Handler struct {
	sender  protocol.WhatsAppSender
	message protocol.WhatsAppMessage
}

func (h *Handler) Execute(ctx context.Context, node *models.FlowNode, executionCtx *models.ExecutionContext, logger *slog.Logger) models.ExecutionResult {
	logger.InfoContext(ctx, "Sending WhatsApp message", "phone_number", h.message.PhoneNumber)

	messageID, err := h.sender.SendMessage(ctx, h.message)
	if err != nil {
		return models.Fail(err, map[string]any{"phone_number": h.message.PhoneNumber})
	}

	return models.Succeed(map[string]any{
		"message_id":   messageID,
		"phone_number": h.message.PhoneNumber,
	})
}

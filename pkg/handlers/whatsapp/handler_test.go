package whatsapp_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxohq/fluxo/pkg/handlers/whatsapp"
	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeSender struct {
	sent    []protocol.WhatsAppMessage
	sendErr error
}

func (s *fakeSender) SendMessage(_ context.Context, message protocol.WhatsAppMessage) (string, error) {
	if s.sendErr != nil {
		return "", s.sendErr
	}

	s.sent = append(s.sent, message)

	return "wamid-1", nil
}

func TestWhatsAppHandlerSendsMessage(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}

	handler, err := whatsapp.NewHandlerFactory(sender).Create(map[string]any{
		"phoneNumber": "+5511999990000",
		"templateId":  "order_update",
		"templateParams": map[string]any{
			"name":    "Ana",
			"ignored": 42,
		},
	})
	require.NoError(t, err)

	executionCtx := models.NewExecutionContext("exec-1", "flow-1", models.TriggerTypeMessageReceived, nil)
	node := &models.FlowNode{ID: "notify", Type: whatsapp.NodeType}

	result := handler.Execute(context.Background(), node, executionCtx, testLogger())

	require.True(t, result.Success)
	assert.Equal(t, "wamid-1", result.Output["message_id"])
	assert.Equal(t, "+5511999990000", result.Output["phone_number"])

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "order_update", sender.sent[0].TemplateID)
	assert.Equal(t, map[string]string{"name": "Ana"}, sender.sent[0].TemplateParams)
}

func TestWhatsAppHandlerSendErrorIsFailure(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{sendErr: errors.New("number not on whatsapp")}

	handler, err := whatsapp.NewHandlerFactory(sender).Create(map[string]any{
		"phoneNumber": "+5511999990000",
		"message":     "hi",
	})
	require.NoError(t, err)

	executionCtx := models.NewExecutionContext("exec-1", "flow-1", models.TriggerTypeMessageReceived, nil)

	result := handler.Execute(context.Background(), &models.FlowNode{ID: "notify"}, executionCtx, testLogger())

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "number not on whatsapp")
}

func TestWhatsAppFactoryRequiresSender(t *testing.T) {
	t.Parallel()

	_, err := whatsapp.NewHandlerFactory(nil).Create(map[string]any{"phoneNumber": "+5511999990000"})

	require.Error(t, err)
}

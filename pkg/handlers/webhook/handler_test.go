package webhook_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxohq/fluxo/pkg/handlers/webhook"
	"github.com/fluxohq/fluxo/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func execute(t *testing.T, config map[string]any) models.ExecutionResult {
	t.Helper()

	handler, err := webhook.NewHandlerFactory().Create(config)
	require.NoError(t, err)

	executionCtx := models.NewExecutionContext("exec-1", "flow-1", models.TriggerTypeManual, nil)
	node := &models.FlowNode{ID: "hook", Type: webhook.NodeType}

	return handler.Execute(context.Background(), node, executionCtx, testLogger())
}

func TestWebhookHandlerPostsPayloadWithSignature(t *testing.T) {
	t.Parallel()

	var receivedBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "s3cret", r.Header.Get("X-Fluxo-Signature"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&receivedBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"received":true}`))
	}))
	defer server.Close()

	result := execute(t, map[string]any{
		"url":     server.URL,
		"secret":  "s3cret",
		"payload": map[string]any{"event": "lead_created"},
	})

	require.True(t, result.Success)
	assert.Equal(t, http.StatusOK, result.Output["status_code"])
	assert.Equal(t, map[string]any{"received": true}, result.Output["response"])
	assert.Equal(t, map[string]any{"event": "lead_created"}, receivedBody)
}

func TestWebhookHandlerErrorStatusIsFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	result := execute(t, map[string]any{"url": server.URL})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "500")
}

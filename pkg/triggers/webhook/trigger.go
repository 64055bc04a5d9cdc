// Package webhook provides the HTTP trigger. Every webhook trigger in the
// process shares one server managed by the ServerManager; each trigger owns a
// path on it.
package webhook

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/protocol"
)

type Trigger struct {
	FlowID  string
	Path    string
	Enabled bool

	callback protocol.TriggerCallback
	logger   *slog.Logger
}

func NewTrigger(ctx context.Context, config map[string]any, logger *slog.Logger) (*Trigger, error) {
	flowID, _ := config["flow_id"].(string)

	path, ok := config["path"].(string)
	if !ok {
		path = "/webhook"
	}

	enabled := true
	if enabledVal, exists := config["enabled"]; exists {
		if enabledBool, ok := enabledVal.(bool); ok {
			enabled = enabledBool
		}
	}

	trigger := &Trigger{
		FlowID:  flowID,
		Path:    path,
		Enabled: enabled,
		logger: logger.With(
			"module", "webhook_trigger",
			"flow_id", flowID,
			"path", path,
		),
	}

	err := trigger.Validate(ctx)
	if err != nil {
		return nil, err
	}

	return trigger, nil
}

func (t *Trigger) Validate(_ context.Context) error {
	if t.FlowID == "" {
		return errors.New("webhook trigger flow_id is required")
	}

	if t.Path == "" {
		return errors.New("webhook trigger path is required")
	}

	if t.Path[0] != '/' {
		return errors.New("webhook trigger path must start with '/'")
	}

	return nil
}

// Start registers the path on the shared server and blocks until the context
// is cancelled or the server stops.
func (t *Trigger) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	if !t.Enabled {
		t.logger.InfoContext(ctx, "Webhook trigger is disabled")

		return nil
	}

	manager := GetGlobalServerManager()
	if manager == nil {
		return errors.New("global webhook server manager not initialized")
	}

	t.logger.InfoContext(ctx, "Starting webhook trigger")
	t.callback = callback

	handler := &Handler{
		FlowID:   t.FlowID,
		Callback: callback,
		Logger:   t.logger,
	}

	err := manager.RegisterWebhook(t.Path, handler)
	if err != nil {
		return err
	}

	t.logger.InfoContext(ctx, "Webhook trigger started", "path", t.Path)

	select {
	case <-ctx.Done():
		t.logger.InfoContext(ctx, "Webhook trigger context cancelled")
	case <-manager.Done():
		t.logger.InfoContext(ctx, "Webhook trigger server stopped")
	}

	manager.UnregisterWebhook(t.Path)

	return nil
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping webhook trigger", "path", t.Path)

	if manager := GetGlobalServerManager(); manager != nil {
		manager.UnregisterWebhook(t.Path)
	}

	return nil
}

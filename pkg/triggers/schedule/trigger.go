// Package schedule provides the cron-based trigger that starts flow runs on
// a fixed expression.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

type Trigger struct {
	FlowID   string
	CronExpr string
	Enabled  bool

	cron     *cron.Cron
	callback protocol.TriggerCallback
	logger   *slog.Logger
}

func NewTrigger(config map[string]any, logger *slog.Logger) (*Trigger, error) {
	flowID, _ := config["flow_id"].(string)
	cronExpr, _ := config["cron"].(string)

	trigger := &Trigger{
		FlowID:   flowID,
		CronExpr: cronExpr,
		Enabled:  true,
		logger: logger.With(
			"module", "schedule_trigger",
			"flow_id", flowID,
			"cron", cronExpr,
		),
	}

	if err := trigger.Validate(context.Background()); err != nil {
		return nil, err
	}

	return trigger, nil
}

func (t *Trigger) Validate(_ context.Context) error {
	if t.FlowID == "" {
		return errors.New("schedule trigger flow_id is required")
	}

	if t.CronExpr == "" {
		return errors.New("schedule trigger cron expression is required")
	}

	if _, err := cron.ParseStandard(t.CronExpr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	return nil
}

func (t *Trigger) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	if !t.Enabled {
		t.logger.InfoContext(ctx, "Schedule trigger is disabled")

		return nil
	}

	t.logger.InfoContext(ctx, "Starting schedule trigger")
	t.callback = callback

	t.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	entryID, err := t.cron.AddFunc(t.CronExpr, t.run)
	if err != nil {
		return fmt.Errorf("failed to add cron job for flow %s: %w", t.FlowID, err)
	}

	t.logger.InfoContext(ctx, "Added cron job for trigger", "entry_id", entryID)
	t.cron.Start()

	return nil
}

func (t *Trigger) run() {
	t.logger.Info("Cron job triggered")

	input := protocol.TriggerInput{
		FlowID:      t.FlowID,
		TriggerType: models.TriggerTypeSchedule,
		Payload: map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	go func() {
		if err := t.callback(context.Background(), input); err != nil {
			t.logger.Error("Error starting flow run for trigger", "error", err)
		}
	}()
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping schedule trigger", "flow_id", t.FlowID)

	if t.cron != nil {
		t.cron.Stop()
	}

	return nil
}

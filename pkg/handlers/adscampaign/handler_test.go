package adscampaign_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxohq/fluxo/pkg/handlers/adscampaign"
	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeAdsProvider struct {
	created     []protocol.CampaignRequest
	deactivated []string
	createErr   error
}

func (p *fakeAdsProvider) CreateCampaign(_ context.Context, request protocol.CampaignRequest) (string, error) {
	if p.createErr != nil {
		return "", p.createErr
	}

	p.created = append(p.created, request)

	return "camp-42", nil
}

func (p *fakeAdsProvider) DeactivateCampaign(_ context.Context, _, campaignID string) error {
	p.deactivated = append(p.deactivated, campaignID)

	return nil
}

func TestAdsCampaignHandlerCreatesCampaign(t *testing.T) {
	t.Parallel()

	provider := &fakeAdsProvider{}

	handler, err := adscampaign.NewHandlerFactory(provider).Create(map[string]any{
		"platform":     "meta",
		"campaignName": "spring launch",
		"budget":       500.0,
		"objective":    "conversions",
	})
	require.NoError(t, err)

	executionCtx := models.NewExecutionContext("exec-1", "flow-1", models.TriggerTypeManual, nil)
	node := &models.FlowNode{ID: "ads", Type: adscampaign.NodeType}

	result := handler.Execute(context.Background(), node, executionCtx, testLogger())

	require.True(t, result.Success)
	assert.Equal(t, "camp-42", result.Output["campaign_id"])
	assert.Equal(t, "meta", result.Output["platform"])

	require.Len(t, provider.created, 1)
	assert.Equal(t, "spring launch", provider.created[0].CampaignName)
	assert.Equal(t, 500.0, provider.created[0].Budget)
}

func TestAdsCampaignHandlerProviderErrorIsFailure(t *testing.T) {
	t.Parallel()

	provider := &fakeAdsProvider{createErr: errors.New("quota exceeded")}

	handler, err := adscampaign.NewHandlerFactory(provider).Create(map[string]any{
		"platform":     "google",
		"campaignName": "fail",
		"budget":       10.0,
	})
	require.NoError(t, err)

	executionCtx := models.NewExecutionContext("exec-1", "flow-1", models.TriggerTypeManual, nil)

	result := handler.Execute(context.Background(), &models.FlowNode{ID: "ads"}, executionCtx, testLogger())

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "quota exceeded")
}

func TestAdsCampaignHandlerCompensateDeactivatesRecordedCampaign(t *testing.T) {
	t.Parallel()

	provider := &fakeAdsProvider{}

	handler, err := adscampaign.NewHandlerFactory(provider).Create(map[string]any{
		"platform":     "meta",
		"campaignName": "undo me",
		"budget":       100.0,
	})
	require.NoError(t, err)

	compensator, ok := handler.(protocol.Compensator)
	require.True(t, ok)

	executionCtx := models.NewExecutionContext("exec-1", "flow-1", models.TriggerTypeManual, nil)

	outcome := compensator.Compensate(context.Background(), executionCtx, map[string]any{
		"campaign_id": "camp-42",
		"platform":    "meta",
	}, testLogger())

	assert.True(t, outcome.OK)
	assert.Equal(t, []string{"camp-42"}, provider.deactivated)
}

func TestAdsCampaignHandlerCompensateWithoutPriorOutput(t *testing.T) {
	t.Parallel()

	provider := &fakeAdsProvider{}

	handler, err := adscampaign.NewHandlerFactory(provider).Create(map[string]any{
		"platform":     "meta",
		"campaignName": "nothing",
		"budget":       100.0,
	})
	require.NoError(t, err)

	compensator := handler.(protocol.Compensator)
	executionCtx := models.NewExecutionContext("exec-1", "flow-1", models.TriggerTypeManual, nil)

	outcome := compensator.Compensate(context.Background(), executionCtx, map[string]any{}, testLogger())

	assert.False(t, outcome.OK)
	assert.Empty(t, provider.deactivated)
}

func TestAdsCampaignFactoryRequiresProvider(t *testing.T) {
	t.Parallel()

	_, err := adscampaign.NewHandlerFactory(nil).Create(map[string]any{
		"platform":     "meta",
		"campaignName": "x",
		"budget":       1.0,
	})

	require.Error(t, err)
}

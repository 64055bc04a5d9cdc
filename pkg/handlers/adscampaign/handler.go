// Package adscampaign provides the node that creates an ad campaign through
// the ads provider collaborator. Compensation deactivates the exact campaign
// that was created.
package adscampaign

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

const NodeType = "ads_campaign"

func NewHandlerFactory(provider protocol.AdsProvider) *HandlerFactory {
	return &HandlerFactory{provider: provider}
}

type HandlerFactory struct {
	provider protocol.AdsProvider
}

func (f *HandlerFactory) ID() string {
	return NodeType
}

func (f *HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"platform":     map[string]any{"type": "string", "enum": []string{"meta", "google", "tiktok", "linkedin"}},
			"campaignName": map[string]any{"type": "string", "minLength": 1},
			"budget":       map[string]any{"type": "number", "minimum": 0},
			"objective":    map[string]any{"type": "string"},
			"targeting":    map[string]any{"type": "object"},
			"creativeId":   map[string]any{"type": "string"},
		},
		"required": []string{"platform", "campaignName", "budget"},
	}
}

func (f *HandlerFactory) Create(config map[string]any) (protocol.Handler, error) {
	if f.provider == nil {
		return nil, errors.New("ads_campaign handler requires an ads provider collaborator")
	}

	platform, _ := config["platform"].(string)
	campaignName, _ := config["campaignName"].(string)
	budget, _ := config["budget"].(float64)
	objective, _ := config["objective"].(string)
	targeting, _ := config["targeting"].(map[string]any)
	creativeID, _ := config["creativeId"].(string)

	return &Handler{
		provider: f.provider,
		request: protocol.CampaignRequest{
			Platform:     platform,
			CampaignName: campaignName,
			Budget:       budget,
			Objective:    objective,
			Targeting:    targeting,
			CreativeID:   creativeID,
		},
	}, nil
}

type Handler struct {
	provider protocol.AdsProvider
	request  protocol.CampaignRequest
}

func (h *Handler) Execute(ctx context.Context, node *models.FlowNode, executionCtx *models.ExecutionContext, logger *slog.Logger) models.ExecutionResult {
	logger.InfoContext(ctx, "Creating ad campaign",
		"platform", h.request.Platform,
		"campaign_name", h.request.CampaignName,
	)

	campaignID, err := h.provider.CreateCampaign(ctx, h.request)
	if err != nil {
		return models.Fail(err, map[string]any{"platform": h.request.Platform})
	}

	return models.Succeed(map[string]any{
		"campaign_id": campaignID,
		"platform":    h.request.Platform,
	})
}

// Compensate deactivates the campaign recorded in the prior output. Safe to
// call repeatedly: the provider contract makes deactivation idempotent.
func (h *Handler) Compensate(ctx context.Context, executionCtx *models.ExecutionContext, priorOutput map[string]any, logger *slog.Logger) models.CompensationOutcome {
	campaignID, _ := priorOutput["campaign_id"].(string)
	if campaignID == "" {
		return models.CompensationOutcome{OK: false, Error: "no campaign_id in prior output"}
	}

	platform, _ := priorOutput["platform"].(string)

	logger.InfoContext(ctx, "Deactivating ad campaign", "campaign_id", campaignID)

	err := h.provider.DeactivateCampaign(ctx, platform, campaignID)
	if err != nil {
		return models.CompensationOutcome{OK: false, Error: err.Error()}
	}

	return models.CompensationOutcome{OK: true}
}

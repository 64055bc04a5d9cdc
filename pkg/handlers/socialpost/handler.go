// Package socialpost provides the node that schedules or publishes a social
// media post. Compensation unschedules the exact post that was created.
package socialpost

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

const NodeType = "social_post"

func NewHandlerFactory(publisher protocol.SocialPublisher) *HandlerFactory {
	return &HandlerFactory{publisher: publisher}
}

type HandlerFactory struct {
	publisher protocol.SocialPublisher
}

func (f *HandlerFactory) ID() string {
	return NodeType
}

func (f *HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"platforms":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 1},
			"content":     map[string]any{"type": "string", "minLength": 1},
			"mediaUrls":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"scheduledAt": map[string]any{"type": "string"},
			"hashtags":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"platforms", "content"},
	}
}

func (f *HandlerFactory) Create(config map[string]any) (protocol.Handler, error) {
	if f.publisher == nil {
		return nil, errors.New("social_post handler requires a social publisher collaborator")
	}

	scheduledAt, _ := config["scheduledAt"].(string)
	content, _ := config["content"].(string)

	return &Handler{
		publisher: f.publisher,
		post: protocol.SocialPost{
			Platforms:   stringSlice(config["platforms"]),
			Content:     content,
			MediaURLs:   stringSlice(config["mediaUrls"]),
			ScheduledAt: scheduledAt,
			Hashtags:    stringSlice(config["hashtags"]),
		},
	}, nil
}

type Handler struct {
	publisher protocol.SocialPublisher
	post      protocol.SocialPost
}

func (h *Handler) Execute(ctx context.Context, node *models.FlowNode, executionCtx *models.ExecutionContext, logger *slog.Logger) models.ExecutionResult {
	logger.InfoContext(ctx, "Publishing social post", "platforms", h.post.Platforms)

	postID, err := h.publisher.Publish(ctx, h.post)
	if err != nil {
		return models.Fail(err, map[string]any{"platforms": h.post.Platforms})
	}

	return models.Succeed(map[string]any{
		"post_id":   postID,
		"platforms": h.post.Platforms,
		"scheduled": h.post.ScheduledAt != "",
	})
}

// Compensate unschedules the post recorded in the prior output.
func (h *Handler) Compensate(ctx context.Context, executionCtx *models.ExecutionContext, priorOutput map[string]any, logger *slog.Logger) models.CompensationOutcome {
	postID, _ := priorOutput["post_id"].(string)
	if postID == "" {
		return models.CompensationOutcome{OK: false, Error: "no post_id in prior output"}
	}

	logger.InfoContext(ctx, "Unscheduling social post", "post_id", postID)

	err := h.publisher.Unschedule(ctx, postID)
	if err != nil {
		return models.CompensationOutcome{OK: false, Error: err.Error()}
	}

	return models.CompensationOutcome{OK: true}
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

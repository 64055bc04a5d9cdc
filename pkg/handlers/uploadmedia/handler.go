// Package uploadmedia provides the node that stores a media asset through
// the media store collaborator. Compensation deletes the exact asset that
// was uploaded.
package uploadmedia

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

const NodeType = "upload_media"

func NewHandlerFactory(store protocol.MediaStore) *HandlerFactory {
	return &HandlerFactory{store: store}
}

type HandlerFactory struct {
	store protocol.MediaStore
}

func (f *HandlerFactory) ID() string {
	return NodeType
}

func (f *HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"source":          map[string]any{"type": "string", "minLength": 1},
			"folder":          map[string]any{"type": "string"},
			"optimize":        map[string]any{"type": "boolean"},
			"transformations": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"source"},
	}
}

func (f *HandlerFactory) Create(config map[string]any) (protocol.Handler, error) {
	if f.store == nil {
		return nil, errors.New("upload_media handler requires a media store collaborator")
	}

	source, _ := config["source"].(string)
	folder, _ := config["folder"].(string)
	optimize, _ := config["optimize"].(bool)

	transformations := make([]string, 0)
	if items, ok := config["transformations"].([]any); ok {
		for _, item := range items {
			if s, ok := item.(string); ok {
				transformations = append(transformations, s)
			}
		}
	}

	return &Handler{
		store: f.store,
		upload: protocol.MediaUpload{
			Source:          source,
			Folder:          folder,
			Optimize:        optimize,
			Transformations: transformations,
		},
	}, nil
}

type Handler struct {
	store  protocol.MediaStore
	upload protocol.MediaUpload
}

func (h *Handler) Execute(ctx context.Context, node *models.FlowNode, executionCtx *models.ExecutionContext, logger *slog.Logger) models.ExecutionResult {
	logger.InfoContext(ctx, "Uploading media", "source", h.upload.Source, "folder", h.upload.Folder)

	assetID, url, err := h.store.Upload(ctx, h.upload)
	if err != nil {
		return models.Fail(err, map[string]any{"source": h.upload.Source})
	}

	return models.Succeed(map[string]any{
		"asset_id": assetID,
		"url":      url,
	})
}

// Compensate deletes the asset recorded in the prior output, not "the last
// upload".
func (h *Handler) Compensate(ctx context.Context, executionCtx *models.ExecutionContext, priorOutput map[string]any, logger *slog.Logger) models.CompensationOutcome {
	assetID, _ := priorOutput["asset_id"].(string)
	if assetID == "" {
		return models.CompensationOutcome{OK: false, Error: "no asset_id in prior output"}
	}

	logger.InfoContext(ctx, "Deleting uploaded media", "asset_id", assetID)

	err := h.store.Delete(ctx, assetID)
	if err != nil {
		return models.CompensationOutcome{OK: false, Error: err.Error()}
	}

	return models.CompensationOutcome{OK: true}
}

package uploadmedia_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxohq/fluxo/pkg/handlers/uploadmedia"
	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeStore struct {
	uploaded  []protocol.MediaUpload
	deleted   []string
	uploadErr error
	deleteErr error
}

func (s *fakeStore) Upload(_ context.Context, upload protocol.MediaUpload) (string, string, error) {
	if s.uploadErr != nil {
		return "", "", s.uploadErr
	}

	s.uploaded = append(s.uploaded, upload)

	return "asset-9", "https://cdn.example.com/asset-9.png", nil
}

func (s *fakeStore) Delete(_ context.Context, assetID string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}

	s.deleted = append(s.deleted, assetID)

	return nil
}

func TestUploadMediaHandlerUploads(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}

	handler, err := uploadmedia.NewHandlerFactory(store).Create(map[string]any{
		"source":          "https://example.com/banner.png",
		"folder":          "campaigns/spring",
		"optimize":        true,
		"transformations": []any{"resize:1200x628"},
	})
	require.NoError(t, err)

	executionCtx := models.NewExecutionContext("exec-1", "flow-1", models.TriggerTypeManual, nil)
	node := &models.FlowNode{ID: "upload", Type: uploadmedia.NodeType}

	result := handler.Execute(context.Background(), node, executionCtx, testLogger())

	require.True(t, result.Success)
	assert.Equal(t, "asset-9", result.Output["asset_id"])
	assert.Equal(t, "https://cdn.example.com/asset-9.png", result.Output["url"])

	require.Len(t, store.uploaded, 1)
	assert.Equal(t, "campaigns/spring", store.uploaded[0].Folder)
	assert.True(t, store.uploaded[0].Optimize)
	assert.Equal(t, []string{"resize:1200x628"}, store.uploaded[0].Transformations)
}

func TestUploadMediaHandlerUploadErrorIsFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{uploadErr: errors.New("storage full")}

	handler, err := uploadmedia.NewHandlerFactory(store).Create(map[string]any{"source": "https://example.com/x.png"})
	require.NoError(t, err)

	executionCtx := models.NewExecutionContext("exec-1", "flow-1", models.TriggerTypeManual, nil)

	result := handler.Execute(context.Background(), &models.FlowNode{ID: "upload"}, executionCtx, testLogger())

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "storage full")
}

func TestUploadMediaHandlerCompensateDeletesAsset(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}

	handler, err := uploadmedia.NewHandlerFactory(store).Create(map[string]any{"source": "https://example.com/x.png"})
	require.NoError(t, err)

	compensator, ok := handler.(protocol.Compensator)
	require.True(t, ok)

	executionCtx := models.NewExecutionContext("exec-1", "flow-1", models.TriggerTypeManual, nil)

	outcome := compensator.Compensate(context.Background(), executionCtx, map[string]any{"asset_id": "asset-9"}, testLogger())

	assert.True(t, outcome.OK)
	assert.Equal(t, []string{"asset-9"}, store.deleted)
}

func TestUploadMediaHandlerCompensateErrors(t *testing.T) {
	t.Parallel()

	store := &fakeStore{deleteErr: errors.New("delete denied")}

	handler, err := uploadmedia.NewHandlerFactory(store).Create(map[string]any{"source": "https://example.com/x.png"})
	require.NoError(t, err)

	compensator := handler.(protocol.Compensator)
	executionCtx := models.NewExecutionContext("exec-1", "flow-1", models.TriggerTypeManual, nil)

	outcome := compensator.Compensate(context.Background(), executionCtx, map[string]any{"asset_id": "asset-9"}, testLogger())
	assert.False(t, outcome.OK)
	assert.Contains(t, outcome.Error, "delete denied")

	outcome = compensator.Compensate(context.Background(), executionCtx, map[string]any{}, testLogger())
	assert.False(t, outcome.OK)
}

func TestUploadMediaFactoryRequiresStore(t *testing.T) {
	t.Parallel()

	_, err := uploadmedia.NewHandlerFactory(nil).Create(map[string]any{"source": "https://example.com/x.png"})

	require.Error(t, err)
}

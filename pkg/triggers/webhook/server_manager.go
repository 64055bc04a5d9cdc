package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

var (
	globalServerManager *ServerManager
	once                sync.Once
)

// Handler binds one registered webhook path to a flow.
type Handler struct {
	FlowID   string
	Callback protocol.TriggerCallback
	Logger   *slog.Logger
}

// ServerManager owns the single HTTP server shared by every webhook trigger
// in the process. Triggers register paths; the manager dispatches requests.
type ServerManager struct {
	server   *http.Server
	handlers map[string]*Handler
	mu       sync.RWMutex
	logger   *slog.Logger
	port     int
	started  bool
	done     chan struct{}
	doneOnce sync.Once
}

func GetServerManager(port int, logger *slog.Logger) *ServerManager {
	once.Do(func() {
		globalServerManager = &ServerManager{
			handlers: make(map[string]*Handler),
			logger:   logger.With("module", "webhook_server_manager"),
			port:     port,
			done:     make(chan struct{}),
		}
	})

	return globalServerManager
}

func SetGlobalServerManager(manager *ServerManager) {
	globalServerManager = manager
}

func GetGlobalServerManager() *ServerManager {
	return globalServerManager
}

func (sm *ServerManager) RegisterWebhook(path string, handler *Handler) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.handlers[path]; exists {
		return fmt.Errorf("webhook path %s already registered", path)
	}

	sm.handlers[path] = handler
	sm.logger.Info("Registered webhook handler", "path", path, "flow_id", handler.FlowID)

	return nil
}

func (sm *ServerManager) UnregisterWebhook(path string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if handler, exists := sm.handlers[path]; exists {
		delete(sm.handlers, path)
		sm.logger.Info("Unregistered webhook handler", "path", path, "flow_id", handler.FlowID)
	}
}

func (sm *ServerManager) Start(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.started {
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", sm.handleWebhook)

	sm.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", sm.port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sm.logger.Info("Starting webhook HTTP server", "addr", sm.server.Addr)

		if err := sm.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sm.logger.Error("Failed to start webhook server", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()

		if err := sm.Stop(context.Background()); err != nil {
			sm.logger.Error("Failed to stop webhook server", "error", err)
		}
	}()

	sm.started = true
	sm.logger.Info("Webhook server manager started")

	return nil
}

func (sm *ServerManager) Stop(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.started {
		return nil
	}

	sm.logger.Info("Stopping webhook server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := sm.server.Shutdown(shutdownCtx)

	sm.started = false
	sm.doneOnce.Do(func() { close(sm.done) })

	return err
}

// Done is closed when the shared server stops.
func (sm *ServerManager) Done() <-chan struct{} {
	return sm.done
}

func (sm *ServerManager) handleWebhook(w http.ResponseWriter, r *http.Request) {
	sm.mu.RLock()
	handler, exists := sm.handlers[r.URL.Path]
	sm.mu.RUnlock()

	if !exists {
		sm.logger.Warn("No handler found for webhook path", "path", r.URL.Path)
		http.Error(w, "Webhook path not found", http.StatusNotFound)

		return
	}

	handler.Logger.Info("Received webhook request", "method", r.Method, "path", r.URL.Path)

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		handler.Logger.Error("Failed to read request body", "error", err)
		http.Error(w, "Failed to read request body", http.StatusBadRequest)

		return
	}

	defer func() {
		if err := r.Body.Close(); err != nil {
			handler.Logger.Error("Failed to close request body", "error", err)
		}
	}()

	var parsedBody map[string]any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsedBody); err != nil {
			parsedBody = map[string]any{"raw": string(body)}
		}
	}

	headers := make(map[string]string)
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	input := protocol.TriggerInput{
		FlowID:      handler.FlowID,
		TriggerType: models.TriggerTypeWebhook,
		Payload: map[string]any{
			"method":    r.Method,
			"path":      r.URL.Path,
			"headers":   headers,
			"body":      parsedBody,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	go func() {
		if err := handler.Callback(context.Background(), input); err != nil {
			handler.Logger.Error("Error starting flow run for webhook", "error", err)
		}
	}()

	w.WriteHeader(http.StatusAccepted)

	if _, err := w.Write([]byte(`{"status":"accepted"}`)); err != nil {
		handler.Logger.Error("Failed to write webhook response", "error", err)
	}
}

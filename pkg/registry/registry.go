// Package registry maps node type tags to the handler factories that can
// execute them.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/fluxohq/fluxo/pkg/protocol"
)

type Registry struct {
	logger           *slog.Logger
	handlerFactories map[string]protocol.HandlerFactory
	triggerFactories map[string]protocol.TriggerFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:           logger,
		handlerFactories: make(map[string]protocol.HandlerFactory),
		triggerFactories: make(map[string]protocol.TriggerFactory),
	}
}

func (r *Registry) RegisterHandler(factory protocol.HandlerFactory) {
	r.handlerFactories[factory.ID()] = factory
}

func (r *Registry) RegisterTrigger(factory protocol.TriggerFactory) {
	r.triggerFactories[factory.ID()] = factory
}

// HasHandler reports whether a node type is registered. Validation uses this
// so unknown types fail before any run starts.
func (r *Registry) HasHandler(nodeType string) bool {
	_, ok := r.handlerFactories[nodeType]

	return ok
}

// NodeTypes returns the registered node type tags, sorted.
func (r *Registry) NodeTypes() []string {
	types := make([]string, 0, len(r.handlerFactories))
	for nodeType := range r.handlerFactories {
		types = append(types, nodeType)
	}

	sort.Strings(types)

	return types
}

// CreateHandler builds a handler for the node type after checking the config
// against the factory's JSON schema.
func (r *Registry) CreateHandler(nodeType string, config map[string]any) (protocol.Handler, error) {
	factory, ok := r.handlerFactories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type %q not registered", nodeType)
	}

	err := r.validateConfig(factory, config)
	if err != nil {
		return nil, fmt.Errorf("invalid config for node type %q: %w", nodeType, err)
	}

	return factory.Create(config)
}

// ValidateConfig checks a node config against its type's schema without
// building a handler.
func (r *Registry) ValidateConfig(nodeType string, config map[string]any) error {
	factory, ok := r.handlerFactories[nodeType]
	if !ok {
		return fmt.Errorf("node type %q not registered", nodeType)
	}

	return r.validateConfig(factory, config)
}

func (r *Registry) validateConfig(factory protocol.HandlerFactory, config map[string]any) error {
	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(configJSON),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		sort.Strings(messages)

		return fmt.Errorf("config does not match schema: %v", messages)
	}

	return nil
}

func (r *Registry) CreateTrigger(ctx context.Context, triggerID string, config map[string]any) (protocol.Trigger, error) {
	factory, ok := r.triggerFactories[triggerID]
	if !ok {
		return nil, fmt.Errorf("trigger %q not registered", triggerID)
	}

	return factory.Create(ctx, config, r.logger)
}

// internal/websocket/handler.go
package websocket

import (
	"context"
	"fmt"
	"sort"
	"sync"

	wstypes "primefit-service/internal/domain/websocket"
)

// MessageHandler serves client requests for one domain
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error

	// SupportedEvents lists the client event types the handler claims
	SupportedEvents() []wstypes.EventType
}

// HandlerRegistry routes client events to handlers. Built-in events (ping,
// subscribe, unsubscribe) are served by the client itself.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[wstypes.EventType]MessageHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[wstypes.EventType]MessageHandler),
	}
}

// Register claims the handler's events. An event can only be claimed once.
func (r *HandlerRegistry) Register(handler MessageHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, eventType := range handler.SupportedEvents() {
		if _, taken := r.handlers[eventType]; taken {
			return fmt.Errorf("websocket event %q already has a handler", eventType)
		}
	}
	for _, eventType := range handler.SupportedEvents() {
		r.handlers[eventType] = handler
	}
	return nil
}

func (r *HandlerRegistry) GetHandler(eventType wstypes.EventType) (MessageHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, exists := r.handlers[eventType]
	return handler, exists
}

// Events returns the registered event types, sorted.
func (r *HandlerRegistry) Events() []wstypes.EventType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := make([]wstypes.EventType, 0, len(r.handlers))
	for e := range r.handlers {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	return events
}

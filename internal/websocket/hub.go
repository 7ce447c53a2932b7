// internal/websocket/hub.go
package websocket

import (
	"context"
	"fmt"
	"sync"

	wstypes "primefit-service/internal/domain/websocket"
	"primefit-service/internal/pkg/jwt"

	"go.uber.org/zap"
)

// TokenValidator checks a login token and returns its claims.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.Claims, error)
}

type Hub struct {
	// Registered clients by customer ID
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	// Registration/unregistration
	Register   chan *Client
	unregister chan *Client

	// Broadcasting
	broadcast chan *BroadcastMessage

	// done is closed when Run returns
	done     chan struct{}
	doneOnce sync.Once

	handlerRegistry *HandlerRegistry
	validator       TokenValidator
	logger          *zap.Logger
}

// BroadcastMessage targets every subscribed client when CustomerIDs is nil.
// A non-empty SessionID narrows delivery to that one token.
type BroadcastMessage struct {
	CustomerIDs []string
	SessionID   string
	Channel     wstypes.ChannelType
	Message     *wstypes.WSMessage
}

func NewHub(validator TokenValidator, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:         make(map[string]map[*Client]bool),
		Register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *BroadcastMessage, 256),
		done:            make(chan struct{}),
		handlerRegistry: NewHandlerRegistry(),
		validator:       validator,
		logger:          logger,
	}
}

// AuthenticateClient validates the token and returns the client identity
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	if h.validator == nil {
		return nil, ErrUnauthorized
	}
	claims, err := h.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &ClientAuth{
		CustomerID: claims.CustomerID,
		SessionID:  claims.ID,
		IsAdmin:    claims.IsAdmin,
	}, nil
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) error {
	return h.handlerRegistry.Register(handler)
}

func (h *Hub) Run(ctx context.Context) {
	defer h.doneOnce.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) requestUnregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// enqueue hands msg to the run loop without blocking the caller.
func (h *Hub) enqueue(msg *BroadcastMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping message",
			zap.String("type", string(msg.Message.Type)),
		)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.customerID] == nil {
		h.clients[client.customerID] = make(map[*Client]bool)
	}
	h.clients[client.customerID][client] = true

	h.logger.Info("websocket client connected",
		zap.String("customer_id", client.customerID),
		zap.String("session_id", client.sessionID),
		zap.Int("total", h.totalClients()),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"customer_id": client.customerID,
		"session_id":  client.sessionID,
		"is_admin":    client.isAdmin,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.customerID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()

			if len(clients) == 0 {
				delete(h.clients, client.customerID)
			}

			h.logger.Info("websocket client disconnected",
				zap.String("customer_id", client.customerID),
				zap.String("session_id", client.sessionID),
				zap.Int("total", h.totalClients()),
			)
		}
	}
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	deliver := func(clients map[*Client]bool) {
		for client := range clients {
			if msg.SessionID != "" && client.sessionID != msg.SessionID {
				continue
			}
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}

	if msg.CustomerIDs == nil {
		for _, clients := range h.clients {
			deliver(clients)
		}
		return
	}
	for _, customerID := range msg.CustomerIDs {
		if clients, ok := h.clients[customerID]; ok {
			deliver(clients)
		}
	}
}

func (h *Hub) GetConnectedClients(customerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[customerID])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

// ========== Broadcasts ==========

// BroadcastRosterChange pushes a roster mutation to admin dashboards
func (h *Hub) BroadcastRosterChange(change wstypes.RosterChangeData) {
	h.enqueue(&BroadcastMessage{
		Channel: wstypes.ChannelRoster,
		Message: wstypes.NewMessage(wstypes.EventTypeRosterChanged, change),
	})
}

// ForceLogout tells the clients of one token, or of every token of the
// customer when jti is empty, that the session has ended
func (h *Hub) ForceLogout(customerID, jti, reason string) {
	h.enqueue(&BroadcastMessage{
		CustomerIDs: []string{customerID},
		SessionID:   jti,
		Channel:     wstypes.ChannelSystem,
		Message: wstypes.NewMessage(wstypes.EventTypeForceLogout, wstypes.SessionEventData{
			SessionID: jti,
			Reason:    reason,
			Message:   "You have been logged out",
		}),
	})
}

// IsCustomerConnected checks if a customer has any active connections
func (h *Hub) IsCustomerConnected(customerID string) bool {
	return h.GetConnectedClients(customerID) > 0
}

// DisconnectCustomer closes every connection of a customer
func (h *Hub) DisconnectCustomer(customerID, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[customerID]
	if !ok {
		return
	}

	disconnectMsg := wstypes.NewMessage(wstypes.EventTypeDisconnected, map[string]interface{}{
		"reason": reason,
	})
	for client := range clients {
		client.SendMessage(disconnectMsg)
		client.Close()
	}

	delete(h.clients, customerID)
	h.logger.Info("disconnected all clients for customer",
		zap.String("customer_id", customerID),
		zap.String("reason", reason),
	)
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
	h.clients = make(map[string]map[*Client]bool)
}

// internal/websocket/handler/roster_stats.go
package handlers

import (
	"context"
	"errors"

	"primefit-service/internal/domain/customer"
	wstypes "primefit-service/internal/domain/websocket"
	ws "primefit-service/internal/websocket"
)

// StatsSource computes roster statistics.
type StatsSource interface {
	ComputeStats() customer.Stats
}

// RosterStatsHandler answers roster:stats_request from admin dashboards.
type RosterStatsHandler struct {
	stats StatsSource
}

func NewRosterStatsHandler(stats StatsSource) *RosterStatsHandler {
	return &RosterStatsHandler{stats: stats}
}

func (h *RosterStatsHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{wstypes.EventTypeStatsRequest}
}

func (h *RosterStatsHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	if !client.IsAdmin() {
		return errors.New("roster statistics are available to admins only")
	}

	reply := wstypes.NewMessage(wstypes.EventTypeRosterStats, h.stats.ComputeStats())
	if msg.ID != "" {
		reply.Metadata = map[string]interface{}{"request_id": msg.ID}
	}
	client.SendMessage(reply)
	return nil
}

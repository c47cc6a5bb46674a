package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/providers"
)

const heartbeatInterval = 30 * time.Second

// SSEHandler streams dispatch progress as Server-Sent Events
type SSEHandler struct {
	eventBus  providers.EventBus
	clients   map[string]map[chan *entities.DispatchEvent]bool // channel -> clients
	mu        sync.RWMutex
	heartbeat time.Duration
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		clients:   make(map[string]map[chan *entities.DispatchEvent]bool),
		heartbeat: heartbeatInterval,
	}
}

// StreamDispatch handles GET /api/stream/dispatch/{cycleId}. The stream ends
// after the dispatch_finished event or when the client disconnects.
func (h *SSEHandler) StreamDispatch(w http.ResponseWriter, r *http.Request) {
	cycleID := r.PathValue("cycleId")
	if cycleID == "" {
		respondWithError(w, http.StatusBadRequest, "cycle ID is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan *entities.DispatchEvent, 64)
	channel := providers.GetDispatchChannel(cycleID)

	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("failed to subscribe to dispatch channel")
		return
	}

	h.sendEvent(w, "connected", map[string]interface{}{
		"cycle_id":  cycleID,
		"timestamp": time.Now(),
	})
	flusher.Flush()

	go h.forwardEvents(r.Context(), eventChan, clientChan)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("cycle_id", cycleID).Msg("client disconnected from dispatch stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
			if event.EventType == entities.DispatchEventFinished {
				return
			}
		}
	}
}

// forwardEvents forwards events from the event bus to a client channel
func (h *SSEHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.DispatchEvent, clientChan chan<- *entities.DispatchEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			select {
			case clientChan <- event:
			default:
				// client is slow; drop
			}
		}
	}
}

func (h *SSEHandler) registerClient(channel string, clientChan chan *entities.DispatchEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.DispatchEvent]bool)
	}
	h.clients[channel][clientChan] = true
	log.Debug().Str("channel", channel).Int("clients", len(h.clients[channel])).Msg("stream client registered")
}

func (h *SSEHandler) unregisterClient(channel string, clientChan chan *entities.DispatchEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[channel]; exists {
		delete(clients, clientChan)
		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}

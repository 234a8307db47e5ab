package handler

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	chatModels "bedrockchat/internal/domain/models/chat"
	"bedrockchat/internal/handler/sse"
	"bedrockchat/internal/httputil"
	chatSvc "bedrockchat/internal/service/chat"
)

// clientBufferSize bounds the per-client event queue. A client that cannot
// keep up with a fast stream loses events rather than stalling the send.
const clientBufferSize = 256

// Broadcaster fans conversation store notifications out to SSE clients. It
// implements the store's Listener interface; store callbacks format the
// event once and enqueue it per client without blocking.
type Broadcaster struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[string]map[chan string]struct{} // conversation id -> client queues
}

func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		logger:  logger,
		clients: make(map[string]map[chan string]struct{}),
	}
}

// subscribe registers a client queue for one conversation's events.
func (b *Broadcaster) subscribe(conversationID string) chan string {
	ch := make(chan string, clientBufferSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.clients[conversationID] == nil {
		b.clients[conversationID] = make(map[chan string]struct{})
	}
	b.clients[conversationID][ch] = struct{}{}
	return ch
}

func (b *Broadcaster) unsubscribe(conversationID string, ch chan string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs := b.clients[conversationID]; subs != nil {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(b.clients, conversationID)
		}
	}
}

func (b *Broadcaster) broadcast(conversationID, frame string, err error) {
	if err != nil {
		b.logger.Error("format sse event failed", "conversation_id", conversationID, "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients[conversationID] {
		select {
		case ch <- frame:
		default:
			// Queue full; the slow client misses this event.
		}
	}
}

func (b *Broadcaster) OnMessageAppended(conversationID string, msg *chatModels.Message) {
	frame, err := chatModels.NewMessageAppendedEvent(conversationID, msg)
	b.broadcast(conversationID, frame, err)
}

func (b *Broadcaster) OnMessageUpdated(conversationID string, msg *chatModels.Message, textDelta string) {
	frame, err := chatModels.NewMessageUpdatedEvent(conversationID, msg.ID, textDelta)
	b.broadcast(conversationID, frame, err)
}

func (b *Broadcaster) OnLoadingChanged(conversationID string, isLoading bool) {
	frame, err := chatModels.NewLoadingChangedEvent(conversationID, isLoading)
	b.broadcast(conversationID, frame, err)
}

func (b *Broadcaster) OnTitleChanged(conversationID string, title string) {
	frame, err := chatModels.NewTitleChangedEvent(conversationID, title)
	b.broadcast(conversationID, frame, err)
}

// EventsHandler serves the per-conversation SSE stream.
type EventsHandler struct {
	broadcaster *Broadcaster
	store       *chatSvc.Store
	logger      *slog.Logger
}

func NewEventsHandler(broadcaster *Broadcaster, store *chatSvc.Store, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{broadcaster: broadcaster, store: store, logger: logger}
}

// Stream handles GET /api/conversations/{id}/events. Events, keep-alives
// and disconnects are multiplexed on a single loop so the connection only
// ever has one writer.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")
	if !h.store.Exists(conversationID) {
		httputil.RespondError(w, http.StatusNotFound, "conversation not found")
		return
	}

	writer, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events := h.broadcaster.subscribe(conversationID)
	defer h.broadcaster.unsubscribe(conversationID, events)

	h.logger.Debug("sse client connected", "conversation_id", conversationID)

	keepAlive := time.NewTicker(sse.DefaultKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("sse client disconnected", "conversation_id", conversationID)
			return
		case frame := <-events:
			if err := writer.WriteEvent(frame); err != nil {
				return
			}
		case <-keepAlive.C:
			if err := writer.WriteKeepAlive(); err != nil {
				return
			}
		}
	}
}

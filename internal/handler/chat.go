// Package handler exposes the chat core over HTTP for the desktop frontend.
package handler

import (
	"log/slog"
	"net/http"

	chatModels "bedrockchat/internal/domain/models/chat"
	domainChat "bedrockchat/internal/domain/services/chat"
	"bedrockchat/internal/httputil"
	chatSvc "bedrockchat/internal/service/chat"
)

// ChatHandler handles conversation CRUD and the send/cancel operations.
type ChatHandler struct {
	conversations *chatSvc.ConversationService
	orchestrator  *chatSvc.Orchestrator
	logger        *slog.Logger
}

func NewChatHandler(conversations *chatSvc.ConversationService, orchestrator *chatSvc.Orchestrator, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		orchestrator:  orchestrator,
		logger:        logger,
	}
}

type createConversationRequest struct {
	Title string `json:"title"`
}

// CreateConversation handles POST /api/conversations.
func (h *ChatHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conv, err := h.conversations.Create(r.Context(), req.Title)
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, conv)
}

// ListConversations handles GET /api/conversations.
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	list, err := h.conversations.List(r.Context())
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	if list == nil {
		list = []chatModels.Conversation{}
	}
	httputil.RespondJSON(w, http.StatusOK, list)
}

// GetConversation handles GET /api/conversations/{id}.
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.conversations.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, conv)
}

// DeleteConversation handles DELETE /api/conversations/{id}.
func (h *ChatHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	if err := h.conversations.Delete(r.Context(), r.PathValue("id")); err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sendRequest struct {
	ModelID string             `json:"model_id"`
	Input   string             `json:"input"`
	Images  []chatModels.Image `json:"images,omitempty"`
}

// Send handles POST /api/conversations/{id}/messages. The turn runs in the
// background; clients follow progress on the events stream.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.orchestrator.Send(&domainChat.SendRequest{
		ConversationID: r.PathValue("id"),
		ModelID:        req.ModelID,
		Input:          req.Input,
		Images:         req.Images,
	})
	if err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Cancel handles POST /api/conversations/{id}/cancel. Cancelling an idle
// conversation is a no-op.
func (h *ChatHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.orchestrator.Cancel(r.PathValue("id"))
	w.WriteHeader(http.StatusAccepted)
}

type streamingSettingRequest struct {
	Streaming bool `json:"streaming"`
}

// SetStreaming handles PUT /api/conversations/{id}/settings/streaming.
func (h *ChatHandler) SetStreaming(w http.ResponseWriter, r *http.Request) {
	var req streamingSettingRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.conversations.SetStreaming(r.Context(), r.PathValue("id"), req.Streaming); err != nil {
		httputil.RespondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

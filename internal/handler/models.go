package handler

import (
	"net/http"

	"bedrockchat/internal/capabilities"
	"bedrockchat/internal/httputil"
)

// ModelsHandler serves the model capability table so the frontend can build
// its model picker without hardcoding the pattern list.
type ModelsHandler struct {
	registry *capabilities.Registry
}

func NewModelsHandler(registry *capabilities.Registry) *ModelsHandler {
	return &ModelsHandler{registry: registry}
}

type modelInfo struct {
	Pattern     string `json:"pattern"`
	DisplayName string `json:"display_name"`
	Family      string `json:"family"`
	Subtype     string `json:"subtype"`
	Streaming   bool   `json:"streaming"`
}

// List handles GET /api/models.
func (h *ModelsHandler) List(w http.ResponseWriter, _ *http.Request) {
	patterns := h.registry.List()
	out := make([]modelInfo, len(patterns))
	for i, p := range patterns {
		out[i] = modelInfo{
			Pattern:     p.Pattern,
			DisplayName: p.DisplayName,
			Family:      string(p.Family),
			Subtype:     string(p.Subtype),
			Streaming:   p.Streaming,
		}
	}
	httputil.RespondJSON(w, http.StatusOK, out)
}

// Classify handles GET /api/models/classify?model_id=...; it reports how a
// model id resolves so the frontend can preview family and streaming
// behavior before sending.
func (h *ModelsHandler) Classify(w http.ResponseWriter, r *http.Request) {
	modelID := r.URL.Query().Get("model_id")
	if modelID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "model_id query parameter is required")
		return
	}

	caps := h.registry.Classify(modelID)
	httputil.RespondJSON(w, http.StatusOK, modelInfo{
		Pattern:     caps.Pattern,
		DisplayName: caps.DisplayName,
		Family:      string(caps.Family),
		Subtype:     string(caps.Subtype),
		Streaming:   caps.Streaming,
	})
}

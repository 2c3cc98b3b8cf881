package server

import (
	"net/http"
	"strings"

	"moodtune/core/emotion"
)

// PredictRequest is the body of an emotion prediction request.
type PredictRequest struct {
	Text string `json:"text"`
}

// EmotionPredictionHandler relays text to the prediction service and returns
// its reply unmodified.
func (h *APIHandler) EmotionPredictionHandler(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, r, emotion.ErrEmptyText)
		return
	}

	body, err := h.classifier.Predict(r.Context(), req.Text)
	if err != nil {
		// upstream failures surface as 500 with the raw message
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

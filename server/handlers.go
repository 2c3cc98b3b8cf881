package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"moodtune/config"
	"moodtune/core/auth"
	"moodtune/core/catalog"
	"moodtune/core/emotion"
	"moodtune/logger"
)

// APIHandler serves every API endpoint.
type APIHandler struct {
	auth       *auth.Service
	catalog    *catalog.Service
	classifier emotion.Classifier
	cfg        *config.Config
}

// NewAPIHandler creates an APIHandler.
func NewAPIHandler(authSvc *auth.Service, catalogSvc *catalog.Service, classifier emotion.Classifier, cfg *config.Config) *APIHandler {
	return &APIHandler{
		auth:       authSvc,
		catalog:    catalogSvc,
		classifier: classifier,
		cfg:        cfg,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("[HTTP] failed to encode response", logger.ErrorField(err))
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeError maps a service error to its status code and writes {"message"}.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("[HTTP] request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.ErrorField(err))
	}
	writeMessage(w, status, err.Error())
}

func statusFor(err error) int {
	var fileErr *catalog.FileError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &fileErr), errors.As(err, &maxBytesErr):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrPasswordTooLong),
		errors.Is(err, catalog.ErrMissingAudio),
		errors.Is(err, catalog.ErrInvalidLabel),
		errors.Is(err, catalog.ErrInvalidEmotion),
		errors.Is(err, catalog.ErrMissingMetadata),
		errors.Is(err, emotion.ErrEmptyText),
		errors.Is(err, errBadRequestBody):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, catalog.ErrSongNotFound), errors.Is(err, catalog.ErrAudioNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequestBody = errors.New("Invalid request body")

// decodeJSON reads a JSON request body of at most 1 MiB into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequestBody
	}
	return nil
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

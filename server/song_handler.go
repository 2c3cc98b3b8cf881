package server

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"moodtune/core/auth"
	"moodtune/core/catalog"
	"moodtune/logger"

	"github.com/gorilla/mux"
)

// multipart parts beyond this stay on disk until read
const multipartMemory = 32 << 20

// UploadSongHandler handles song uploads (admin only).
// Expected multipart form fields:
// - audio: the audio file (mp3, wav, ogg)
// - image: cover image (jpeg, jpg, png, gif, optional)
// - title, artist, description, duration
// - labels: a JSON array string or repeated values
func (h *APIHandler) UploadSongHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())

	// two payloads plus form overhead
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.cfg.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeMessage(w, http.StatusBadRequest, "File too large")
			return
		}
		writeMessage(w, http.StatusBadRequest, "Failed to parse multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	audio, err := h.readPart(r.MultipartForm, catalog.FieldAudio)
	if err != nil {
		writeError(w, r, err)
		return
	}
	image, err := h.readPart(r.MultipartForm, catalog.FieldImage)
	if err != nil {
		writeError(w, r, err)
		return
	}

	duration, err := strconv.Atoi(r.FormValue("duration"))
	if err != nil {
		duration = 0
	}

	song, err := h.catalog.Upload(r.Context(), catalog.UploadInput{
		Title:       r.FormValue("title"),
		Artist:      r.FormValue("artist"),
		Description: r.FormValue("description"),
		Labels:      r.MultipartForm.Value["labels"],
		Duration:    duration,
		Audio:       audio,
		Image:       image,
		UploaderID:  id.UserID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Message string `json:"message"`
		SongID  string `json:"songId"`
		Title   string `json:"title"`
	}{
		Message: "Song uploaded successfully",
		SongID:  song.ID,
		Title:   song.Title,
	})
}

// readPart returns nil when the form has no file under field.
func (h *APIHandler) readPart(form *multipart.Form, field string) (*catalog.FilePart, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	fh := headers[0]
	if fh.Size > h.cfg.MaxUploadSize {
		return nil, &catalog.FileError{Field: field, Reason: "File too large"}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.cfg.MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	return &catalog.FilePart{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// SongsByEmotionHandler lists one page of songs carrying a label.
// URL: /songs/by-emotion/{emotion}?page=&limit=
func (h *APIHandler) SongsByEmotionHandler(w http.ResponseWriter, r *http.Request) {
	label := mux.Vars(r)["emotion"]
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.catalog.ListByLabel(r.Context(), label, page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AllSongsHandler lists the whole catalog (admin only).
func (h *APIHandler) AllSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.catalog.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// GetSongHandler returns song metadata with its uploader.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	song, err := h.catalog.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// AudioHandler streams the stored audio bytes. Range requests are honored.
func (h *APIHandler) AudioHandler(w http.ResponseWriter, r *http.Request) {
	m, err := h.catalog.Audio(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", m.ContentType)
	if disposition := mime.FormatMediaType("inline", map[string]string{"filename": m.Filename}); disposition != "" {
		w.Header().Set("Content-Disposition", disposition)
	} else {
		w.Header().Set("Content-Disposition", "inline")
	}
	http.ServeContent(w, r, m.Filename, time.Time{}, bytes.NewReader(m.Data))
}

// ImageHandler serves the cover image or redirects to the placeholder.
func (h *APIHandler) ImageHandler(w http.ResponseWriter, r *http.Request) {
	songID := mux.Vars(r)["id"]
	m, err := h.catalog.Image(r.Context(), songID)
	if err != nil {
		logger.Warn("[Image] lookup failed, serving placeholder", logger.String("songId", songID), logger.ErrorField(err))
	}
	if err != nil || m == nil {
		http.Redirect(w, r, h.cfg.DefaultImagePath, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", m.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(m.Data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000") // one year
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(m.Data)
	}
}

// PlayHandler adds one play.
func (h *APIHandler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	plays, err := h.catalog.IncrementPlays(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"plays": plays})
}

// LikeHandler adds one like.
func (h *APIHandler) LikeHandler(w http.ResponseWriter, r *http.Request) {
	likes, err := h.catalog.IncrementLikes(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"likes": likes})
}

// DeleteSongHandler removes a song and its payloads (admin only).
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Song deleted successfully")
}

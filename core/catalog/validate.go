package catalog

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"

	"moodtune/model"
)

// Multipart field names of the upload form.
const (
	FieldAudio = "audio"
	FieldImage = "image"
)

var (
	audioExtensions = map[string]bool{".mp3": true, ".wav": true, ".ogg": true}
	imageExtensions = map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".gif": true}

	audioMIME = regexp.MustCompile(`mp3|mpeg|wav|ogg`)
	imageMIME = regexp.MustCompile(`jpeg|jpg|png|gif`)
)

// FilePart is an uploaded payload read fully into memory.
type FilePart struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CheckFileType requires both the extension and the declared MIME type of
// part to belong to the accepted family of field.
func CheckFileType(field string, part *FilePart) error {
	ext := strings.ToLower(filepath.Ext(part.Filename))
	mime := strings.ToLower(part.ContentType)

	var ok bool
	switch field {
	case FieldAudio:
		ok = audioExtensions[ext] && audioMIME.MatchString(mime)
	case FieldImage:
		ok = imageExtensions[ext] && imageMIME.MatchString(mime)
	}
	if !ok {
		return fileTypeError(field)
	}
	return nil
}

// ParseLabels accepts either a single JSON array value or repeated plain
// values. The result must be a non-empty subset of the label enumeration.
func ParseLabels(values []string) ([]model.Label, error) {
	var raw []string
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		if err := json.Unmarshal([]byte(values[0]), &raw); err != nil {
			return nil, ErrInvalidLabel
		}
	} else {
		raw = values
	}
	return ValidateLabels(raw)
}

// ValidateLabels converts raw to labels, failing on empty input or any value
// outside the enumeration.
func ValidateLabels(raw []string) ([]model.Label, error) {
	if len(raw) == 0 {
		return nil, ErrInvalidLabel
	}
	labels := make([]model.Label, 0, len(raw))
	for _, v := range raw {
		l := model.Label(v)
		if !l.Valid() {
			return nil, ErrInvalidLabel
		}
		labels = append(labels, l)
	}
	return labels, nil
}

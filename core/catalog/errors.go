package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrSongNotFound    = errors.New("Song not found")
	ErrAudioNotFound   = errors.New("Audio file not found")
	ErrMissingAudio    = errors.New("Audio file is required")
	ErrInvalidLabel    = errors.New("Invalid emotion label(s)")
	ErrInvalidEmotion  = errors.New("Invalid emotion")
	ErrMissingMetadata = errors.New("Title and artist are required")
)

// FileError rejects an uploaded payload. It is a client error.
type FileError struct {
	Field  string
	Reason string
}

func (e *FileError) Error() string {
	return e.Reason
}

func fileTypeError(field string) *FileError {
	switch field {
	case FieldImage:
		return &FileError{Field: field, Reason: "Only image files are allowed (jpeg, jpg, png, gif)"}
	default:
		return &FileError{Field: field, Reason: "Only audio files are allowed (mp3, wav, ogg)"}
	}
}

func fileTooLargeError(field string, limit int64) *FileError {
	return &FileError{Field: field, Reason: fmt.Sprintf("File too large: %s exceeds %d bytes", field, limit)}
}

package storage

import (
	"context"
	"fmt"

	"moodtune/config"
	"moodtune/model"

	"gorm.io/gorm"
)

// MediaStore keeps the audio and image payloads of songs.
type MediaStore interface {
	// Put stores m as the kind payload of songID, replacing any previous one.
	Put(ctx context.Context, songID string, kind model.MediaKind, m *model.Media) error
	// Get returns nil, nil when the payload does not exist.
	Get(ctx context.Context, songID string, kind model.MediaKind) (*model.Media, error)
	// Delete removes every payload of songID. Missing payloads are not an error.
	Delete(ctx context.Context, songID string) error
}

// NewMediaStore picks the backend named by cfg.MediaBackend.
func NewMediaStore(ctx context.Context, cfg *config.Config, gdb *gorm.DB) (MediaStore, error) {
	switch cfg.MediaBackend {
	case config.MediaBackendDB:
		return NewDBMediaStore(gdb), nil
	case config.MediaBackendMinio:
		client, err := NewMinioClient(cfg)
		if err != nil {
			return nil, err
		}
		if err := EnsureBucket(ctx, client, cfg.MinioBucket, cfg.MinioRegion); err != nil {
			return nil, err
		}
		return NewMinioMediaStore(client, cfg.MinioBucket), nil
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
	}
}

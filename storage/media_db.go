package storage

import (
	"context"
	"errors"
	"fmt"

	"moodtune/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dbMediaStore keeps payloads in the song_media table next to the song rows.
type dbMediaStore struct {
	db *gorm.DB
}

// NewDBMediaStore creates a MediaStore backed by the relational database.
func NewDBMediaStore(db *gorm.DB) MediaStore {
	return &dbMediaStore{db: db}
}

func (s *dbMediaStore) Put(ctx context.Context, songID string, kind model.MediaKind, m *model.Media) error {
	row := model.SongMedia{
		SongID:      songID,
		Kind:        kind,
		ContentType: m.ContentType,
		Filename:    m.Filename,
		Data:        m.Data,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to store %s of %s: %w", kind, songID, err)
	}
	return nil
}

func (s *dbMediaStore) Get(ctx context.Context, songID string, kind model.MediaKind) (*model.Media, error) {
	var row model.SongMedia
	err := s.db.WithContext(ctx).Where("song_id = ? AND kind = ?", songID, kind).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s of %s: %w", kind, songID, err)
	}
	return &model.Media{
		MediaInfo: model.MediaInfo{
			ContentType: row.ContentType,
			Filename:    row.Filename,
			Size:        int64(len(row.Data)),
		},
		Data: row.Data,
	}, nil
}

func (s *dbMediaStore) Delete(ctx context.Context, songID string) error {
	if err := s.db.WithContext(ctx).Where("song_id = ?", songID).Delete(&model.SongMedia{}).Error; err != nil {
		return fmt.Errorf("failed to delete media of %s: %w", songID, err)
	}
	return nil
}

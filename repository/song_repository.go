package repository

import (
	"context"
	"errors"
	"fmt"

	"moodtune/model"

	"gorm.io/gorm"
)

// SongRepository defines catalog persistence. Payload bytes are not handled here.
type SongRepository interface {
	Create(ctx context.Context, song *model.Song) error
	GetByID(ctx context.Context, id string) (*model.Song, error)
	ListByLabel(ctx context.Context, label model.Label, offset, limit int) ([]*model.Song, int64, error)
	ListAll(ctx context.Context) ([]*model.Song, error)
	IncrementPlays(ctx context.Context, id string) (int64, error)
	IncrementLikes(ctx context.Context, id string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type gormSongRepository struct {
	db *gorm.DB
}

// NewGormSongRepository creates a GORM backed SongRepository.
func NewGormSongRepository(db *gorm.DB) SongRepository {
	return &gormSongRepository{db: db}
}

// Create inserts the song and its label index rows in one transaction.
func (r *gormSongRepository) Create(ctx context.Context, song *model.Song) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Uploader").Create(song).Error; err != nil {
			return fmt.Errorf("failed to create song: %w", err)
		}
		rows := make([]model.SongLabel, 0, len(song.Labels))
		seen := make(map[model.Label]bool, len(song.Labels))
		for _, label := range song.Labels {
			if seen[label] {
				continue
			}
			seen[label] = true
			rows = append(rows, model.SongLabel{SongID: song.ID, Label: label})
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to index song labels: %w", err)
			}
		}
		return nil
	})
}

func withUploader(db *gorm.DB) *gorm.DB {
	return db.Preload("Uploader", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "email")
	})
}

// GetByID returns nil, nil when the song does not exist.
func (r *gormSongRepository) GetByID(ctx context.Context, id string) (*model.Song, error) {
	var song model.Song
	err := withUploader(r.db.WithContext(ctx)).Where("id = ?", id).First(&song).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get song %s: %w", id, err)
	}
	return &song, nil
}

// ListByLabel returns one page of songs carrying label, newest upload first,
// along with the total number of matching songs.
func (r *gormSongRepository) ListByLabel(ctx context.Context, label model.Label, offset, limit int) ([]*model.Song, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		sub := r.db.Model(&model.SongLabel{}).Select("song_id").Where("label = ?", label)
		return db.Where("id IN (?)", sub)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Song{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count songs for %s: %w", label, err)
	}

	var songs []*model.Song
	err := withUploader(r.db.WithContext(ctx)).
		Scopes(filter).
		Order("upload_date DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&songs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list songs for %s: %w", label, err)
	}
	return songs, total, nil
}

// ListAll returns every song, newest upload first.
func (r *gormSongRepository) ListAll(ctx context.Context) ([]*model.Song, error) {
	var songs []*model.Song
	err := withUploader(r.db.WithContext(ctx)).
		Order("upload_date DESC").Order("id DESC").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	return songs, nil
}

func (r *gormSongRepository) IncrementPlays(ctx context.Context, id string) (int64, error) {
	return r.increment(ctx, id, "plays")
}

func (r *gormSongRepository) IncrementLikes(ctx context.Context, id string) (int64, error) {
	return r.increment(ctx, id, "likes")
}

// increment adds one to column with a single UPDATE and reads the new value
// back inside the same transaction.
func (r *gormSongRepository) increment(ctx context.Context, id, column string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Song{}).Where("id = ?", id).
			UpdateColumn(column, gorm.Expr(column+" + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to increment %s: %w", column, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&model.Song{}).Select(column).Where("id = ?", id).Row().Scan(&value)
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

// Delete removes the song row and its label rows.
func (r *gormSongRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&model.Song{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete song %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("song_id = ?", id).Delete(&model.SongLabel{}).Error; err != nil {
			return fmt.Errorf("failed to delete labels of %s: %w", id, err)
		}
		return nil
	})
}

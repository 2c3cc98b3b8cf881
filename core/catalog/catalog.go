package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"moodtune/logger"
	"moodtune/model"
	"moodtune/repository"
	"moodtune/storage"

	"github.com/google/uuid"
)

// Pagination defaults for label listings.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// UploadInput is a validated-by-Upload request to add a song.
type UploadInput struct {
	Title       string
	Artist      string
	Description string
	Labels      []string // a JSON array value or repeated plain values
	Duration    int
	Audio       *FilePart
	Image       *FilePart
	UploaderID  string
}

// Page is one page of a label listing.
type Page struct {
	Songs       []*model.Song `json:"songs"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
	TotalSongs  int64         `json:"totalSongs"`
}

// Service implements the catalog operations.
type Service struct {
	songs       repository.SongRepository
	media       storage.MediaStore
	maxFileSize int64
	now         func() time.Time
}

// NewService creates a catalog Service. maxFileSize caps each payload.
func NewService(songs repository.SongRepository, media storage.MediaStore, maxFileSize int64) *Service {
	return &Service{songs: songs, media: media, maxFileSize: maxFileSize, now: time.Now}
}

// SetClock replaces the upload timestamp source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Upload validates in and stores a new song with zeroed counters.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*model.Song, error) {
	if in.Audio == nil {
		return nil, ErrMissingAudio
	}
	if err := s.checkPart(FieldAudio, in.Audio); err != nil {
		return nil, err
	}
	if in.Image != nil {
		if err := s.checkPart(FieldImage, in.Image); err != nil {
			return nil, err
		}
	}
	labels, err := ParseLabels(in.Labels)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	artist := strings.TrimSpace(in.Artist)
	if title == "" || artist == "" {
		return nil, ErrMissingMetadata
	}
	duration := in.Duration
	if duration < 0 {
		duration = 0
	}

	song := &model.Song{
		ID:          uuid.NewString(),
		Title:       title,
		Artist:      artist,
		Description: strings.TrimSpace(in.Description),
		Labels:      labels,
		Duration:    duration,
		AudioFile:   info(in.Audio),
		UploadedBy:  in.UploaderID,
		UploadDate:  s.now().UTC(),
	}
	if in.Image != nil {
		song.ImageFile = info(in.Image)
	}

	// Payloads go first so a song row never points at missing media.
	if err := s.media.Put(ctx, song.ID, model.MediaAudio, media(in.Audio)); err != nil {
		return nil, err
	}
	if in.Image != nil {
		if err := s.media.Put(ctx, song.ID, model.MediaImage, media(in.Image)); err != nil {
			s.discardMedia(song.ID)
			return nil, err
		}
	}
	if err := s.songs.Create(ctx, song); err != nil {
		s.discardMedia(song.ID)
		return nil, err
	}

	logger.Info("[Upload] song stored",
		logger.String("songId", song.ID),
		logger.String("title", song.Title),
		logger.Int64("audioBytes", song.AudioFile.Size),
		logger.Bool("hasImage", song.ImageFile.Present()))
	return song, nil
}

func (s *Service) checkPart(field string, part *FilePart) error {
	if err := CheckFileType(field, part); err != nil {
		return err
	}
	if s.maxFileSize > 0 && int64(len(part.Data)) > s.maxFileSize {
		return fileTooLargeError(field, s.maxFileSize)
	}
	return nil
}

func (s *Service) discardMedia(songID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.media.Delete(ctx, songID); err != nil {
		logger.Error("[Upload] failed to discard media", logger.String("songId", songID), logger.ErrorField(err))
	}
}

func info(p *FilePart) model.MediaInfo {
	return model.MediaInfo{ContentType: p.ContentType, Filename: p.Filename, Size: int64(len(p.Data))}
}

func media(p *FilePart) *model.Media {
	return &model.Media{MediaInfo: info(p), Data: p.Data}
}

// NormalizePage applies the listing defaults to non-positive values.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return page, limit
}

// ListByLabel returns one page of songs tagged with label.
func (s *Service) ListByLabel(ctx context.Context, label string, page, limit int) (*Page, error) {
	l := model.Label(label)
	if !l.Valid() {
		return nil, ErrInvalidEmotion
	}
	page, limit = NormalizePage(page, limit)

	songs, total, err := s.songs.ListByLabel(ctx, l, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	if songs == nil {
		songs = []*model.Song{}
	}
	return &Page{
		Songs:       songs,
		CurrentPage: page,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		TotalSongs:  total,
	}, nil
}

// ListAll returns the whole catalog, newest first.
func (s *Service) ListAll(ctx context.Context) ([]*model.Song, error) {
	songs, err := s.songs.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if songs == nil {
		songs = []*model.Song{}
	}
	return songs, nil
}

// Get returns the song with its uploader.
func (s *Service) Get(ctx context.Context, id string) (*model.Song, error) {
	song, err := s.songs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, ErrSongNotFound
	}
	return song, nil
}

// Audio returns the audio payload of the song.
func (s *Service) Audio(ctx context.Context, id string) (*model.Media, error) {
	m, err := s.media.Get(ctx, id, model.MediaAudio)
	if err != nil {
		return nil, err
	}
	if m == nil || len(m.Data) == 0 {
		return nil, ErrAudioNotFound
	}
	return m, nil
}

// Image returns the image payload, or nil when the song has none.
func (s *Service) Image(ctx context.Context, id string) (*model.Media, error) {
	m, err := s.media.Get(ctx, id, model.MediaImage)
	if err != nil {
		return nil, err
	}
	if m == nil || len(m.Data) == 0 {
		return nil, nil
	}
	return m, nil
}

// IncrementPlays adds one play and returns the new total.
func (s *Service) IncrementPlays(ctx context.Context, id string) (int64, error) {
	n, err := s.songs.IncrementPlays(ctx, id)
	return n, notFound(err)
}

// IncrementLikes adds one like and returns the new total. There is no
// decrement; un-liking on the client posts here as well.
func (s *Service) IncrementLikes(ctx context.Context, id string) (int64, error) {
	n, err := s.songs.IncrementLikes(ctx, id)
	return n, notFound(err)
}

// Delete removes the song and its payloads.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := notFound(s.songs.Delete(ctx, id)); err != nil {
		return err
	}
	if err := s.media.Delete(ctx, id); err != nil {
		return fmt.Errorf("song %s deleted but media cleanup failed: %w", id, err)
	}
	logger.Info("[Delete] song removed", logger.String("songId", id))
	return nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSongNotFound
	}
	return err
}

package model

import (
	"encoding/json"
	"time"
)

// MediaKind selects one of the two payloads a song can carry.
type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaImage MediaKind = "image"
)

// MediaInfo describes a payload without its bytes.
type MediaInfo struct {
	ContentType string `json:"contentType" gorm:"size:100"`
	Filename    string `json:"filename" gorm:"size:255"`
	Size        int64  `json:"size"`
}

// Present reports whether a payload was stored.
func (m MediaInfo) Present() bool {
	return m.ContentType != ""
}

// Media is a payload with its bytes.
type Media struct {
	MediaInfo
	Data []byte
}

// Song is a catalog entry. Payload bytes live in the media store.
type Song struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Artist      string    `json:"artist" gorm:"size:255;not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Labels      LabelList `json:"labels" gorm:"type:text;not null"`
	Duration    int       `json:"duration" gorm:"not null;default:0"`
	AudioFile   MediaInfo `json:"audioFile" gorm:"embedded;embeddedPrefix:audio_"`
	ImageFile   MediaInfo `json:"imageFile" gorm:"embedded;embeddedPrefix:image_"`
	UploadedBy  string    `json:"-" gorm:"size:36;index;not null"`
	Uploader    *User     `json:"-" gorm:"foreignKey:UploadedBy"`
	UploadDate  time.Time `json:"uploadDate" gorm:"index"`
	Plays       int64     `json:"plays" gorm:"not null;default:0"`
	Likes       int64     `json:"likes" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName sets the table name.
func (Song) TableName() string {
	return "songs"
}

// MarshalJSON renders the uploader as {id, name, email} and drops an absent image.
func (s Song) MarshalJSON() ([]byte, error) {
	type plain Song
	out := struct {
		plain
		ImageFile  *MediaInfo   `json:"imageFile"`
		UploadedBy *UserSummary `json:"uploadedBy"`
	}{plain: plain(s)}
	if s.ImageFile.Present() {
		img := s.ImageFile
		out.ImageFile = &img
	}
	if s.Uploader != nil {
		out.UploadedBy = s.Uploader.Summary()
	} else if s.UploadedBy != "" {
		out.UploadedBy = &UserSummary{ID: s.UploadedBy}
	}
	return json.Marshal(out)
}

// SongLabel indexes songs by label so listing can filter in SQL.
type SongLabel struct {
	SongID string `gorm:"primaryKey;size:36"`
	Label  Label  `gorm:"primaryKey;size:20;index"`
}

// TableName sets the table name.
func (SongLabel) TableName() string {
	return "song_labels"
}

// SongMedia holds payload bytes for the database media backend.
type SongMedia struct {
	SongID      string    `gorm:"primaryKey;size:36"`
	Kind        MediaKind `gorm:"primaryKey;size:10"`
	ContentType string    `gorm:"size:100;not null"`
	Filename    string    `gorm:"size:255"`
	Data        []byte    `gorm:"type:longblob"`
}

// TableName sets the table name.
func (SongMedia) TableName() string {
	return "song_media"
}

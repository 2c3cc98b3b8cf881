package player

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Profile is everything the client keeps between runs.
type Profile struct {
	Token     string `json:"token,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
	Engagement
}

// FileStore persists a Profile as one JSON document. A sidecar lock file
// serializes concurrent CLI invocations; use Update for read-modify-write.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore stores the profile at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

// DefaultPath is ~/.config/moodtune/profile.json, or the working directory
// when no config directory is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "moodtune-profile.json"
	}
	return filepath.Join(dir, "moodtune", "profile.json")
}

// Path returns the file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the profile. A missing file yields an empty profile.
func (s *FileStore) Load() (*Profile, error) {
	if err := s.prepare(); err != nil {
		return nil, err
	}
	if err := s.lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock profile: %w", err)
	}
	defer s.lock.Unlock()
	return s.read()
}

// Save writes the profile atomically.
func (s *FileStore) Save(p *Profile) error {
	if err := s.prepare(); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock profile: %w", err)
	}
	defer s.lock.Unlock()
	return s.write(p)
}

// Update loads, applies fn and saves while holding the exclusive lock, so
// concurrent invocations never lose each other's changes. Nothing is saved
// when fn fails.
func (s *FileStore) Update(fn func(*Profile) error) error {
	if err := s.prepare(); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock profile: %w", err)
	}
	defer s.lock.Unlock()

	p, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	return s.write(p)
}

func (s *FileStore) prepare() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	return nil
}

func (s *FileStore) read() (*Profile, error) {
	p := &Profile{Engagement: *NewEngagement()}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", s.path, err)
	}
	p.normalize()
	return p, nil
}

func (s *FileStore) write(p *Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace profile: %w", err)
	}
	return nil
}

func (p *Profile) normalize() {
	p.SetTheme(p.Theme)
	if p.RecentPlays == nil {
		p.RecentPlays = []RecentPlay{}
	}
	if p.LikedSongs == nil {
		p.LikedSongs = []string{}
	}
	if p.PlayHistory == nil {
		p.PlayHistory = []HistoryEntry{}
	}
	if len(p.RecentPlays) > maxRecentPlays {
		p.RecentPlays = p.RecentPlays[:maxRecentPlays]
	}
	if n := len(p.PlayHistory); n > maxHistory {
		p.PlayHistory = p.PlayHistory[n-maxHistory:]
	}
}

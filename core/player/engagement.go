package player

import "time"

const (
	maxRecentPlays = 10
	maxHistory     = 100
)

// Theme is the client color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// RecentPlay is one entry of the recently played list.
type RecentPlay struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry is one play in the listening history.
type HistoryEntry struct {
	SongID    string    `json:"songId"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
	Duration  int       `json:"duration"`
}

// Engagement is the listener's local history. It is never reconciled with
// the server counters.
type Engagement struct {
	Theme       Theme          `json:"theme"`
	RecentPlays []RecentPlay   `json:"recentPlays"`
	LikedSongs  []string       `json:"likedSongs"`
	PlayHistory []HistoryEntry `json:"playHistory"`
}

// NewEngagement returns an empty history with the light theme.
func NewEngagement() *Engagement {
	return &Engagement{
		Theme:       ThemeLight,
		RecentPlays: []RecentPlay{},
		LikedSongs:  []string{},
		PlayHistory: []HistoryEntry{},
	}
}

// AddRecent puts s at the front of the recent plays, dropping any earlier
// entry for the same song and anything past the tenth.
func (e *Engagement) AddRecent(s Song, at time.Time) {
	kept := make([]RecentPlay, 0, maxRecentPlays)
	kept = append(kept, RecentPlay{ID: s.ID, Title: s.Title, Artist: s.Artist, Timestamp: at})
	for _, p := range e.RecentPlays {
		if p.ID == s.ID {
			continue
		}
		if len(kept) == maxRecentPlays {
			break
		}
		kept = append(kept, p)
	}
	e.RecentPlays = kept
}

// AddHistory appends a play, keeping the latest hundred.
func (e *Engagement) AddHistory(s Song, at time.Time) {
	e.PlayHistory = append(e.PlayHistory, HistoryEntry{SongID: s.ID, Title: s.Title, Timestamp: at, Duration: s.Duration})
	if n := len(e.PlayHistory); n > maxHistory {
		e.PlayHistory = append([]HistoryEntry(nil), e.PlayHistory[n-maxHistory:]...)
	}
}

// ToggleLike flips the liked state of id and returns the new state.
func (e *Engagement) ToggleLike(id string) bool {
	for i, liked := range e.LikedSongs {
		if liked == id {
			e.LikedSongs = append(e.LikedSongs[:i], e.LikedSongs[i+1:]...)
			return false
		}
	}
	e.LikedSongs = append(e.LikedSongs, id)
	return true
}

// IsLiked reports whether id is in the liked set.
func (e *Engagement) IsLiked(id string) bool {
	for _, liked := range e.LikedSongs {
		if liked == id {
			return true
		}
	}
	return false
}

// SetTheme switches the theme. Unknown values fall back to light.
func (e *Engagement) SetTheme(t Theme) {
	if t != ThemeDark {
		t = ThemeLight
	}
	e.Theme = t
}

// ToggleTheme flips between light and dark and returns the new theme.
func (e *Engagement) ToggleTheme() Theme {
	if e.Theme == ThemeDark {
		e.SetTheme(ThemeLight)
	} else {
		e.SetTheme(ThemeDark)
	}
	return e.Theme
}

// Stats summarizes the history.
type Stats struct {
	Plays   int
	Likes   int
	Minutes int
}

// Stats counts plays, likes and whole listening minutes.
func (e *Engagement) Stats() Stats {
	seconds := 0
	for _, h := range e.PlayHistory {
		seconds += h.Duration
	}
	return Stats{Plays: len(e.PlayHistory), Likes: len(e.LikedSongs), Minutes: seconds / 60}
}

package player

import (
	"time"

	"moodtune/model"
)

// PageSize is the number of songs revealed per page of the grid.
const PageSize = 8

// State is the playback state of a Session.
type State int

const (
	Idle State = iota
	Loading
	Playing
	Paused
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// EffectKind names a side effect the caller must perform.
type EffectKind int

const (
	// StreamAudio asks the caller to fetch and start the song's audio.
	StreamAudio EffectKind = iota
	// CountPlay asks the caller to post a play increment.
	CountPlay
	// CountLike asks the caller to post a like increment.
	CountLike
)

// Effect is returned by transitions instead of performing I/O.
type Effect struct {
	Kind   EffectKind
	SongID string
}

// Session is the client playback state machine. Transitions are pure: they
// mutate the session and its engagement and return the effects to execute.
// A Session is not safe for concurrent use.
type Session struct {
	songs      []Song
	filtered   []Song
	current    int
	state      State
	err        error
	page       int
	engagement *Engagement
}

// NewSession starts an idle session over songs. A nil engagement is replaced
// by an empty one.
func NewSession(songs []Song, engagement *Engagement) *Session {
	if engagement == nil {
		engagement = NewEngagement()
	}
	s := &Session{engagement: engagement}
	s.SetSongs(songs)
	return s
}

// SetSongs replaces the underlying set and shows all of it.
func (s *Session) SetSongs(songs []Song) {
	s.songs = append([]Song(nil), songs...)
	s.setFiltered(s.songs)
}

func (s *Session) setFiltered(songs []Song) {
	var playingID string
	if cur, ok := s.Current(); ok {
		playingID = cur.ID
	}
	s.filtered = append([]Song(nil), songs...)
	s.page = 1
	s.current = s.indexOf(playingID)
}

func (s *Session) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, song := range s.filtered {
		if song.ID == id {
			return i
		}
	}
	return -1
}

// State returns the playback state.
func (s *Session) State() State { return s.state }

// Err returns the failure that moved the session to Error.
func (s *Session) Err() error { return s.err }

// Engagement returns the local history the session records into.
func (s *Session) Engagement() *Engagement { return s.engagement }

// All returns the underlying set.
func (s *Session) All() []Song { return s.songs }

// Filtered returns the current playback sequence.
func (s *Session) Filtered() []Song { return s.filtered }

// Current returns the selected song of the filtered sequence.
func (s *Session) Current() (Song, bool) {
	if s.current < 0 || s.current >= len(s.filtered) {
		return Song{}, false
	}
	return s.filtered[s.current], true
}

// Play selects id and starts loading it. Songs outside the filtered sequence
// are ignored.
func (s *Session) Play(id string) []Effect {
	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	return s.load(i)
}

func (s *Session) load(i int) []Effect {
	s.current = i
	s.state = Loading
	s.err = nil
	return []Effect{{Kind: StreamAudio, SongID: s.filtered[i].ID}}
}

// Started reports that audio began playing. The play is recorded locally and
// counted on the server.
func (s *Session) Started(now time.Time) []Effect {
	if s.state != Loading {
		return nil
	}
	song, ok := s.Current()
	if !ok {
		return nil
	}
	s.state = Playing
	s.engagement.AddRecent(song, now)
	s.engagement.AddHistory(song, now)
	return []Effect{{Kind: CountPlay, SongID: song.ID}}
}

// Failed moves a loading or playing session to Error.
func (s *Session) Failed(err error) {
	if s.state != Loading && s.state != Playing {
		return
	}
	s.state = Error
	s.err = err
}

// Reset clears an error.
func (s *Session) Reset() {
	if s.state == Error {
		s.state = Idle
		s.err = nil
	}
}

// Toggle pauses or resumes.
func (s *Session) Toggle() {
	switch s.state {
	case Playing:
		s.state = Paused
	case Paused:
		s.state = Playing
	}
}

// Ended advances to the next song when the current one finishes.
func (s *Session) Ended() []Effect {
	return s.Next()
}

// Next loads the following song, wrapping at the end.
func (s *Session) Next() []Effect {
	n := len(s.filtered)
	if n == 0 {
		return nil
	}
	return s.load((s.current + 1 + n) % n)
}

// Previous loads the preceding song, wrapping at the start.
func (s *Session) Previous() []Effect {
	n := len(s.filtered)
	if n == 0 {
		return nil
	}
	i := s.current
	if i < 0 {
		i = 0
	}
	return s.load((i - 1 + n) % n)
}

// FilterByLabel shows only songs tagged with label; "all" shows everything.
func (s *Session) FilterByLabel(label string) {
	if label == "all" {
		s.setFiltered(s.songs)
		return
	}
	l := model.Label(label)
	matched := make([]Song, 0, len(s.songs))
	for _, song := range s.songs {
		if song.HasLabel(l) {
			matched = append(matched, song)
		}
	}
	s.setFiltered(matched)
}

// FilterByEmotions shows songs carrying any of labels. When nothing matches,
// the whole set is shown. An empty label set changes nothing.
func (s *Session) FilterByEmotions(labels []model.Label) {
	if len(labels) == 0 {
		return
	}
	matched := make([]Song, 0, len(s.songs))
	for _, song := range s.songs {
		if model.LabelList(song.Labels).Intersects(labels) {
			matched = append(matched, song)
		}
	}
	if len(matched) == 0 {
		matched = s.songs
	}
	s.setFiltered(matched)
}

// ToggleLike flips the local liked state of id. The server only counts up,
// so a like is posted in both directions.
func (s *Session) ToggleLike(id string) (bool, []Effect) {
	liked := s.engagement.ToggleLike(id)
	return liked, []Effect{{Kind: CountLike, SongID: id}}
}

// Page returns the songs revealed so far: PageSize per loaded page.
func (s *Session) Page() []Song {
	end := s.page * PageSize
	if end > len(s.filtered) {
		end = len(s.filtered)
	}
	return s.filtered[:end]
}

// HasMore reports whether LoadMore would reveal more songs.
func (s *Session) HasMore() bool {
	return s.page*PageSize < len(s.filtered)
}

// LoadMore reveals the next page and reports whether anything was added.
func (s *Session) LoadMore() bool {
	if !s.HasMore() {
		return false
	}
	s.page++
	return true
}

package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"moodtune/core/player"
	"moodtune/model"
)

type fakeAPI struct {
	mu          sync.Mutex
	predictFail bool
	labels      []string
	plays       int
	likes       int
	auth        []string
}

func (f *fakeAPI) counts() (labels []string, plays, likes int, lastAuth string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.auth) > 0 {
		lastAuth = f.auth[len(f.auth)-1]
	}
	return append([]string(nil), f.labels...), f.plays, f.likes, lastAuth
}

func (f *fakeAPI) handler() http.Handler {
	song := func(id string, labels ...model.Label) map[string]interface{} {
		return map[string]interface{}{"id": id, "title": "Title " + id, "artist": "Artist", "labels": labels, "duration": 180}
	}
	byLabel := map[model.Label]map[string]interface{}{
		model.LabelFun:        song("fun-1", model.LabelFun),
		model.LabelMotivation: song("mot-1", model.LabelMotivation),
		model.LabelLove:       song("love-1", model.LabelLove),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"jwt_token": "tok", "isAdmin": false})
	})
	mux.HandleFunc("POST /emotion/emotionprediction", func(w http.ResponseWriter, r *http.Request) {
		if f.predictFail {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"message": "model down"})
			return
		}
		w.Write([]byte(`{"emotions":["Love"]}`))
	})
	mux.HandleFunc("GET /songs/by-emotion/{emotion}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.labels = append(f.labels, r.PathValue("emotion"))
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		var songs []map[string]interface{}
		if s, ok := byLabel[model.Label(r.PathValue("emotion"))]; ok {
			songs = append(songs, s)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"songs": songs, "currentPage": 1, "totalPages": 1, "totalSongs": len(songs)})
	})
	mux.HandleFunc("GET /songs/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(song(r.PathValue("id"), model.LabelGeneral))
	})
	mux.HandleFunc("GET /songs/audio/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "broken" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "Audio file not found"})
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Disposition", `inline; filename="a.mp3"`)
		w.Write([]byte("ID3"))
	})
	mux.HandleFunc("POST /songs/{id}/play", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.plays++
		n := f.plays
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]int{"plays": n})
	})
	mux.HandleFunc("POST /songs/{id}/like", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.likes++
		n := f.likes
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]int{"likes": n})
	})
	return mux
}

// runClient executes the root command with flag globals reset to their defaults.
func runClient(t *testing.T, server, profile string, args ...string) (string, error) {
	t.Helper()
	songsEmotion, songsPage, songsLimit, songsAll, playOut = string(model.LabelGeneral), 1, 10, false, ""

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(append([]string{"client"}, args...), "--server", server, "--profile", profile))
	err := rootCmd.Execute()
	return out.String(), err
}

func loadProfile(t *testing.T, path string) *player.Profile {
	t.Helper()
	p, err := player.NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	return p
}

func closedServerURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestMoodCommand(t *testing.T) {
	tests := []struct {
		name        string
		predictFail bool
		wantLabels  []string
		wantSongs   []string
	}{
		{"predicted labels", false, []string{"Love"}, []string{"Title love-1"}},
		{"prediction failure falls back", true, []string{"Fun", "Motivation"}, []string{"Title fun-1", "Title mot-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{predictFail: tt.predictFail}
			srv := httptest.NewServer(api.handler())
			defer srv.Close()

			out, err := runClient(t, srv.URL, filepath.Join(t.TempDir(), "profile.json"), "mood", "I", "feel", "odd")
			if err != nil {
				t.Fatalf("mood: %v", err)
			}
			if labels, _, _, _ := api.counts(); strings.Join(labels, ",") != strings.Join(tt.wantLabels, ",") {
				t.Errorf("expected listings for %v, got %v", tt.wantLabels, labels)
			}
			if !strings.Contains(out, strings.Join(tt.wantLabels, ", ")) {
				t.Errorf("labels missing from output:\n%s", out)
			}
			for _, title := range tt.wantSongs {
				if !strings.Contains(out, title) {
					t.Errorf("missing %q in output:\n%s", title, out)
				}
			}
		})
	}
}

func TestOfflineFallsBackToSampleSongs(t *testing.T) {
	server := closedServerURL()
	profile := filepath.Join(t.TempDir(), "profile.json")

	t.Run("Songs", func(t *testing.T) {
		out, err := runClient(t, server, profile, "songs", "--emotion", "Love")
		if err != nil {
			t.Fatalf("songs: %v", err)
		}
		for _, title := range []string{"Midnight Thoughts", "Heartfelt Melodies", "Sweet Memories"} {
			if !strings.Contains(out, title) {
				t.Errorf("missing %q in output:\n%s", title, out)
			}
		}
		if strings.Contains(out, "Sunshine Vibes") {
			t.Errorf("songs outside the label must be filtered:\n%s", out)
		}
	})

	t.Run("Mood", func(t *testing.T) {
		out, err := runClient(t, server, profile, "mood", "sad")
		if err != nil {
			t.Fatalf("mood: %v", err)
		}
		if !strings.Contains(out, "Fun, Motivation") || !strings.Contains(out, "Sunshine Vibes") {
			t.Errorf("expected fallback mood over sample songs:\n%s", out)
		}
		if strings.Contains(out, "Midnight Thoughts") {
			t.Errorf("unexpected song outside the fallback mood:\n%s", out)
		}
	})

	t.Run("Unknown Emotion", func(t *testing.T) {
		if _, err := runClient(t, server, profile, "songs", "--emotion", "Joy"); err == nil {
			t.Error("expected error for unknown emotion")
		}
	})
}

func TestPlayCommand(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()
	dir := t.TempDir()
	profile := filepath.Join(dir, "profile.json")

	t.Run("Records Play", func(t *testing.T) {
		audio := filepath.Join(dir, "out.mp3")
		out, err := runClient(t, srv.URL, profile, "play", "s1", "--out", audio)
		if err != nil {
			t.Fatalf("play: %v", err)
		}
		if !strings.Contains(out, "Title s1") || !strings.Contains(out, "播放次数: 1") {
			t.Errorf("unexpected output:\n%s", out)
		}
		if data, err := os.ReadFile(audio); err != nil || string(data) != "ID3" {
			t.Errorf("audio not written: %q %v", data, err)
		}
		p := loadProfile(t, profile)
		if len(p.RecentPlays) != 1 || p.RecentPlays[0].ID != "s1" || len(p.PlayHistory) != 1 || p.PlayHistory[0].Duration != 180 {
			t.Errorf("play not recorded: %+v", p.Engagement)
		}
	})

	t.Run("Stream Failure", func(t *testing.T) {
		if _, err := runClient(t, srv.URL, profile, "play", "broken"); err == nil {
			t.Fatal("expected error")
		}
		if _, plays, _, _ := api.counts(); plays != 1 {
			t.Errorf("failed stream must not count a play, got %d", plays)
		}
		if p := loadProfile(t, profile); len(p.PlayHistory) != 1 {
			t.Errorf("failed stream must not touch history, got %d entries", len(p.PlayHistory))
		}
	})

	t.Run("History", func(t *testing.T) {
		out, err := runClient(t, srv.URL, profile, "history")
		if err != nil || !strings.Contains(out, "Title s1") {
			t.Errorf("unexpected history %v:\n%s", err, out)
		}
	})
}

func TestProfileCommands(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()
	profile := filepath.Join(t.TempDir(), "profile.json")

	t.Run("Login Stores Token", func(t *testing.T) {
		if _, err := runClient(t, srv.URL, profile, "login", "-e", "al@x.com", "-p", "pw"); err != nil {
			t.Fatalf("login: %v", err)
		}
		if p := loadProfile(t, profile); p.Token != "tok" || p.UserEmail != "al@x.com" {
			t.Errorf("unexpected profile %+v", p)
		}
		if _, err := runClient(t, srv.URL, profile, "songs", "--emotion", "Fun"); err != nil {
			t.Fatalf("songs: %v", err)
		}
		if _, _, _, got := api.counts(); got != "Bearer tok" {
			t.Errorf("expected saved token to be sent, got %q", got)
		}
	})

	t.Run("Like Toggles Locally And Always Counts", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if _, err := runClient(t, srv.URL, profile, "like", "s9"); err != nil {
				t.Fatalf("like: %v", err)
			}
		}
		if _, _, likes, _ := api.counts(); likes != 2 {
			t.Errorf("expected 2 likes posted, got %d", likes)
		}
		if loadProfile(t, profile).IsLiked("s9") {
			t.Error("second like should unlike locally")
		}
	})

	t.Run("Theme", func(t *testing.T) {
		out, err := runClient(t, srv.URL, profile, "theme", "toggle")
		if err != nil || strings.TrimSpace(out) != string(player.ThemeDark) {
			t.Fatalf("theme: %q %v", out, err)
		}
		if loadProfile(t, profile).Theme != player.ThemeDark {
			t.Error("theme not saved")
		}
	})

	t.Run("Logout", func(t *testing.T) {
		if _, err := runClient(t, srv.URL, profile, "logout"); err != nil {
			t.Fatalf("logout: %v", err)
		}
		p := loadProfile(t, profile)
		if p.Token != "" || p.Theme != player.ThemeDark {
			t.Errorf("logout should clear only the session, got %+v", p)
		}
	})
}

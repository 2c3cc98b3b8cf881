package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"moodtune/config"
	"moodtune/core/auth"
	"moodtune/core/catalog"
	"moodtune/model"
	"moodtune/repository"
	"moodtune/server"
	"moodtune/storage"
	"moodtune/testutil"
)

type staticClassifier struct{}

func (staticClassifier) Predict(_ context.Context, text string) ([]byte, error) {
	return []byte(`{"emotions":["Love"]}`), nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gdb := testutil.OpenDB(t)
	cfg := &config.Config{
		JWTSecret:        "secret",
		AdminKey:         "letmein",
		MaxUploadSize:    1 << 20,
		WebDir:           t.TempDir(),
		DefaultImagePath: "/default-music-image.png",
	}
	h := server.NewAPIHandler(
		auth.NewService(repository.NewGormUserRepository(gdb), auth.NewTokenManager(cfg.JWTSecret, nil), cfg.AdminKey),
		catalog.NewService(repository.NewGormSongRepository(gdb), storage.NewDBMediaStore(gdb), cfg.MaxUploadSize),
		staticClassifier{},
		cfg,
	)
	srv := httptest.NewServer(server.NewHandler(h, cfg))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)

	admin := New(srv.URL)
	isAdmin, err := admin.Signup(ctx, "Root", "root@x.com", "pw", "letmein")
	if err != nil || !isAdmin {
		t.Fatalf("signup: %v %v", isAdmin, err)
	}
	sess, err := admin.Login(ctx, "root@x.com", "pw")
	if err != nil || sess.Token == "" || admin.Token() != sess.Token {
		t.Fatalf("login: %+v %v", sess, err)
	}

	id, err := admin.UploadSong(ctx, Upload{
		Title:    `Say "Hi"`,
		Artist:   "Band",
		Labels:   []model.Label{model.LabelLove, model.LabelFun},
		Duration: 215,
		Audio:    File{Filename: "hi.mp3", ContentType: "audio/mpeg", Data: []byte("ID3...")},
		Image:    &File{Filename: "hi.png", ContentType: "image/png", Data: []byte("PNG")},
	})
	if err != nil || id == "" {
		t.Fatalf("upload: %q %v", id, err)
	}

	user := New(srv.URL)
	if _, err := user.Signup(ctx, "Al", "al@x.com", "pw", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := user.Login(ctx, "al@x.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	t.Run("List", func(t *testing.T) {
		page, err := user.SongsByEmotion(ctx, model.LabelLove, 1, 5)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if page.TotalSongs != 1 || len(page.Songs) != 1 || page.Songs[0].Duration != 215 {
			t.Errorf("unexpected page %+v", page)
		}
		if s := page.Songs[0]; s.UploadedBy == nil || s.UploadedBy.Email != "root@x.com" || s.ImageFile == nil {
			t.Errorf("unexpected song %+v", s)
		}
	})

	t.Run("Get", func(t *testing.T) {
		s, err := user.Song(ctx, id)
		if err != nil || s.Title != `Say "Hi"` {
			t.Errorf("unexpected %+v %v", s, err)
		}
	})

	t.Run("Media", func(t *testing.T) {
		audio, err := user.Audio(ctx, id)
		if err != nil || string(audio.Data) != "ID3..." || audio.Filename != "hi.mp3" || audio.ContentType != "audio/mpeg" {
			t.Errorf("unexpected audio %+v %v", audio, err)
		}
		img, err := user.Image(ctx, id)
		if err != nil || string(img.Data) != "PNG" {
			t.Errorf("unexpected image %+v %v", img, err)
		}
		placeholder, err := user.Image(ctx, "missing")
		if err != nil || placeholder.ContentType != "image/png" || len(placeholder.Data) == 0 {
			t.Errorf("expected placeholder, got %+v %v", placeholder, err)
		}
	})

	t.Run("Counters", func(t *testing.T) {
		if n, err := user.Play(ctx, id); err != nil || n != 1 {
			t.Errorf("play: %d %v", n, err)
		}
		if n, err := user.Like(ctx, id); err != nil || n != 1 {
			t.Errorf("like: %d %v", n, err)
		}
	})

	t.Run("Prediction", func(t *testing.T) {
		raw, err := user.PredictEmotion(ctx, "missing you")
		if err != nil {
			t.Fatalf("predict: %v", err)
		}
		var out struct {
			Emotions []string `json:"emotions"`
		}
		if json.Unmarshal(raw, &out) != nil || len(out.Emotions) != 1 || out.Emotions[0] != "Love" {
			t.Errorf("unexpected %s", raw)
		}
	})

	t.Run("Typed Errors", func(t *testing.T) {
		_, err := user.AllSongs(ctx)
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden || apiErr.Message != "Admin access required" {
			t.Errorf("expected 403 Error, got %v", err)
		}
		_, err = New(srv.URL).SongsByEmotion(ctx, model.LabelFun, 0, 0)
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
			t.Errorf("expected 401 Error, got %v", err)
		}
		_, err = user.Song(ctx, "nope")
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound || apiErr.Message != "Song not found" {
			t.Errorf("expected 404 Error, got %v", err)
		}
	})

	t.Run("Admin Delete", func(t *testing.T) {
		all, err := admin.AllSongs(ctx)
		if err != nil || len(all) != 1 {
			t.Fatalf("all: %v %v", all, err)
		}
		if err := admin.Delete(ctx, id); err != nil {
			t.Fatalf("delete: %v", err)
		}
		var apiErr *Error
		if err := admin.Delete(ctx, id); !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
			t.Errorf("expected 404, got %v", err)
		}
	})
}

func TestErrorMessageFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithToken("t")).Song(context.Background(), "x")
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway || apiErr.Message != "upstream exploded" {
		t.Errorf("unexpected %v", err)
	}
}

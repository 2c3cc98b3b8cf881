package storage

import (
	"bytes"
	"context"
	"testing"

	"moodtune/model"
	"moodtune/testutil"
)

func TestDBMediaStore(t *testing.T) {
	ctx := context.Background()
	store := NewDBMediaStore(testutil.OpenDB(t))

	audio := &model.Media{
		MediaInfo: model.MediaInfo{ContentType: "audio/mpeg", Filename: "track one.mp3"},
		Data:      []byte("ID3-audio"),
	}

	t.Run("Put And Get", func(t *testing.T) {
		if err := store.Put(ctx, "s1", model.MediaAudio, audio); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := store.Get(ctx, "s1", model.MediaAudio)
		if err != nil || got == nil {
			t.Fatalf("get: %v %v", got, err)
		}
		if !bytes.Equal(got.Data, audio.Data) {
			t.Errorf("data mismatch: %q", got.Data)
		}
		if got.ContentType != "audio/mpeg" || got.Filename != "track one.mp3" || got.Size != 9 {
			t.Errorf("unexpected info %+v", got.MediaInfo)
		}
	})

	t.Run("Put Replaces", func(t *testing.T) {
		replacement := &model.Media{MediaInfo: model.MediaInfo{ContentType: "audio/ogg", Filename: "b.ogg"}, Data: []byte("ogg")}
		if err := store.Put(ctx, "s1", model.MediaAudio, replacement); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, _ := store.Get(ctx, "s1", model.MediaAudio)
		if got.ContentType != "audio/ogg" {
			t.Errorf("expected replaced payload, got %+v", got.MediaInfo)
		}
	})

	t.Run("Missing Is Nil", func(t *testing.T) {
		got, err := store.Get(ctx, "s1", model.MediaImage)
		if err != nil || got != nil {
			t.Errorf("expected nil, nil; got %v, %v", got, err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "s1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		got, _ := store.Get(ctx, "s1", model.MediaAudio)
		if got != nil {
			t.Error("expected payload removed")
		}
		if err := store.Delete(ctx, "s1"); err != nil {
			t.Errorf("deleting twice should succeed, got %v", err)
		}
	})
}

func TestObjectKeys(t *testing.T) {
	key := ObjectKey("abc", model.MediaImage)
	if key != "songs/abc/image" {
		t.Errorf("unexpected key %s", key)
	}
	id, ok := songIDFromKey(key)
	if !ok || id != "abc" {
		t.Errorf("expected abc, got %q %v", id, ok)
	}
	if _, ok := songIDFromKey("test/connection.txt"); ok {
		t.Error("unrelated key should not parse")
	}
}

func TestFilenameFromMeta(t *testing.T) {
	tests := []struct {
		meta map[string]string
		want string
	}{
		{map[string]string{"Filename": "track+one.mp3"}, "track one.mp3"},
		{map[string]string{"X-Amz-Meta-Filename": "a%C3%A9.mp3"}, "aé.mp3"},
		{map[string]string{"Other": "x"}, ""},
	}
	for _, tt := range tests {
		if got := filenameFromMeta(tt.meta); got != tt.want {
			t.Errorf("filenameFromMeta(%v) = %q, want %q", tt.meta, got, tt.want)
		}
	}
}

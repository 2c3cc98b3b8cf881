package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"moodtune/model"

	"github.com/minio/minio-go/v7"
)

const filenameMetaKey = "filename"

// minioMediaStore keeps payloads as objects under songs/<id>/<kind>.
type minioMediaStore struct {
	client *minio.Client
	bucket string
}

// NewMinioMediaStore creates a MediaStore backed by a MinIO bucket.
func NewMinioMediaStore(client *minio.Client, bucket string) MediaStore {
	return &minioMediaStore{client: client, bucket: bucket}
}

// ObjectKey is the object name of a payload.
func ObjectKey(songID string, kind model.MediaKind) string {
	return fmt.Sprintf("songs/%s/%s", songID, kind)
}

func (s *minioMediaStore) Put(ctx context.Context, songID string, kind model.MediaKind, m *model.Media) error {
	_, err := s.client.PutObject(ctx, s.bucket, ObjectKey(songID, kind),
		bytes.NewReader(m.Data), int64(len(m.Data)),
		minio.PutObjectOptions{
			ContentType: m.ContentType,
			// Header values must be ASCII.
			UserMetadata: map[string]string{filenameMetaKey: url.QueryEscape(m.Filename)},
		})
	if err != nil {
		return fmt.Errorf("failed to upload %s of %s: %w", kind, songID, err)
	}
	return nil
}

func (s *minioMediaStore) Get(ctx context.Context, songID string, kind model.MediaKind) (*model.Media, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ObjectKey(songID, kind), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s of %s: %w", kind, songID, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s of %s: %w", kind, songID, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s of %s: %w", kind, songID, err)
	}
	return &model.Media{
		MediaInfo: model.MediaInfo{
			ContentType: info.ContentType,
			Filename:    filenameFromMeta(info.UserMetadata),
			Size:        int64(len(data)),
		},
		Data: data,
	}, nil
}

func (s *minioMediaStore) Delete(ctx context.Context, songID string) error {
	for _, kind := range []model.MediaKind{model.MediaAudio, model.MediaImage} {
		if err := s.client.RemoveObject(ctx, s.bucket, ObjectKey(songID, kind), minio.RemoveObjectOptions{}); err != nil {
			if minio.ToErrorResponse(err).Code == "NoSuchKey" {
				continue
			}
			return fmt.Errorf("failed to remove %s of %s: %w", kind, songID, err)
		}
	}
	return nil
}

// filenameFromMeta finds the filename regardless of how the server cased the key.
func filenameFromMeta(meta map[string]string) string {
	for k, v := range meta {
		if strings.EqualFold(k, filenameMetaKey) || strings.EqualFold(k, "X-Amz-Meta-"+filenameMetaKey) {
			if name, err := url.QueryUnescape(v); err == nil {
				return name
			}
			return v
		}
	}
	return ""
}

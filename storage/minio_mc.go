package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// BucketStats summarizes the objects under a prefix.
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
	// SongCount is the number of distinct songs/<id>/ prefixes seen.
	SongCount int
}

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// ListBucketObjects lists every object under prefix, sorted by key.
func ListBucketObjects(ctx context.Context, client *minio.Client, bucket, prefix string) ([]ObjectInfo, *BucketStats, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		return nil, nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	stats := &BucketStats{}
	songs := make(map[string]struct{})
	var objects []ObjectInfo

	for object := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
		if id, ok := songIDFromKey(object.Key); ok {
			songs[id] = struct{}{}
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		})
	}
	stats.SongCount = len(songs)

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, stats, nil
}

// songIDFromKey extracts <id> from songs/<id>/<kind>.
func songIDFromKey(key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, "songs/")
	if !ok {
		return "", false
	}
	id, kind, ok := strings.Cut(rest, "/")
	return id, ok && id != "" && kind != ""
}

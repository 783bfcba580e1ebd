package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/tutorstack/content-backend/internal/platform/apperr"
	"github.com/tutorstack/content-backend/internal/platform/envutil"
	"github.com/tutorstack/content-backend/internal/platform/logger"
)

// Entry is one result of a List call. Exactly one of Key or Prefix is set:
// Key for a leaf object, Prefix for a synthetic directory returned when the
// listing was delimited.
type Entry struct {
	Key    string
	Prefix string
}

func (e Entry) IsPrefix() bool { return e.Prefix != "" }

// ObjectStore is the gateway over the hierarchical content bucket. Writes are
// whole-object overwrites; there is no client-side caching.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	List(ctx context.Context, prefix, delimiter string) ([]Entry, error)
}

type bucketStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func NewBucketStore(ctx context.Context, log *logger.Logger) (ObjectStore, error) {
	serviceLog := log.With("service", "BucketStore")

	bucketName := envutil.GetEnv("CONTENT_GCS_BUCKET_NAME", "", serviceLog)
	if bucketName == "" {
		return nil, fmt.Errorf("missing env var CONTENT_GCS_BUCKET_NAME: %w", apperr.ErrCredential)
	}

	opts := ClientOptionsFromEnv()
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w: %w", err, apperr.ErrCredential)
	}

	serviceLog.Info("Connected to GCS bucket", "bucket", bucketName)
	return &bucketStore{
		log:    serviceLog,
		client: client,
		bucket: bucketName,
	}, nil
}

func (s *bucketStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("object %q: %w", key, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open GCS reader for %q: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object %q: %w", key, err)
	}
	return data, nil
}

func (s *bucketStore) Put(ctx context.Context, key string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	// The object only becomes visible on a successful Close, so concurrent
	// readers never observe a torn write.
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (s *bucketStore) List(ctx context.Context, prefix, delimiter string) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{
		Prefix:    prefix,
		Delimiter: delimiter,
	})
	out := []Entry{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list GCS prefix %q: %w", prefix, err)
		}
		if attrs.Prefix != "" {
			out = append(out, Entry{Prefix: attrs.Prefix})
			continue
		}
		out = append(out, Entry{Key: attrs.Name})
	}
	return out, nil
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return ""
	}
}

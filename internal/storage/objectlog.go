// Package storage persists request logs and uploaded inputs to an S3
// compatible object store. Keys are date partitioned so a day's traffic can
// be listed or expired in one prefix.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/spacesedan/sentigate/internal/models"
)

const (
	LOG_PREFIX   = "logs"
	INPUT_PREFIX = "inputs"

	keyDateLayout = "20060102"
)

// ErrNotFound reports that no object exists under the requested key.
var ErrNotFound = errors.New("object not found")

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type RequestLogStore struct {
	client S3API
	bucket string
}

func NewRequestLogStore(client S3API, bucket string) *RequestLogStore {
	return &RequestLogStore{
		client: client,
		bucket: bucket,
	}
}

// LogKey builds the object key for a request log entry.
func LogKey(t time.Time, requestID string) string {
	return fmt.Sprintf("%s/%s/%s.json", LOG_PREFIX, t.UTC().Format(keyDateLayout), requestID)
}

// InputKey builds the object key for an uploaded input file. The request id
// keeps keys unique even when clients reuse filenames.
func InputKey(t time.Time, requestID, filename string) string {
	return fmt.Sprintf("%s/%s/%s_%s", INPUT_PREFIX, t.UTC().Format(keyDateLayout), requestID, sanitizeFilename(filename))
}

// SaveRequestLog writes one log entry as a JSON object. The key date comes
// from the entry timestamp so replayed entries land in the right partition.
func (s *RequestLogStore) SaveRequestLog(ctx context.Context, entry models.LogEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("[RequestLogStore] Failed to marshal log entry: %w", err)
	}

	at := time.Now()
	if parsed, perr := time.Parse(time.RFC3339, entry.Timestamp); perr == nil {
		at = parsed
	}

	key := LogKey(at, entry.RequestID)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("[RequestLogStore] Failed to put log object %s: %w", key, err)
	}

	slog.Debug("[RequestLogStore] Saved request log",
		slog.String("key", key),
		slog.Int("bytes", len(body)))
	return nil
}

// GetRequestLog fetches one stored entry by its date partition and request
// id. Returns ErrNotFound when no such object exists.
func (s *RequestLogStore) GetRequestLog(ctx context.Context, date, requestID string) (models.LogEntry, error) {
	key := fmt.Sprintf("%s/%s/%s.json", LOG_PREFIX, date, requestID)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return models.LogEntry{}, ErrNotFound
		}
		return models.LogEntry{}, fmt.Errorf("[RequestLogStore] Failed to get log object %s: %w", key, err)
	}
	defer out.Body.Close()

	var entry models.LogEntry
	if err := json.NewDecoder(out.Body).Decode(&entry); err != nil {
		return models.LogEntry{}, fmt.Errorf("[RequestLogStore] Failed to decode log object %s: %w", key, err)
	}
	return entry, nil
}

// SaveInputFile stores raw uploaded bytes under a key built by InputKey.
func (s *RequestLogStore) SaveInputFile(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("[RequestLogStore] Failed to put input object %s: %w", key, err)
	}

	slog.Debug("[RequestLogStore] Saved input file",
		slog.String("key", key),
		slog.Int("bytes", len(data)))
	return nil
}

// Ping verifies the bucket is reachable with the current credentials.
func (s *RequestLogStore) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("[RequestLogStore] Bucket %s unreachable: %w", s.bucket, err)
	}
	return nil
}

func sanitizeFilename(filename string) string {
	base := path.Base(filename)
	if base == "." || base == "/" || base == "" {
		return "upload"
	}
	return unsafeFilenameChars.ReplaceAllString(base, "_")
}

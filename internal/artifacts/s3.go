package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"renoplan/internal/config"
	"renoplan/internal/logging"
)

// S3Store keeps artifact versions in an S3-compatible bucket. Version n of
// a file lives at {prefix}{filename}/{n:06d}.
type S3Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3Client builds a minio client from config.
func NewS3Client(cfg config.S3Config) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:      credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:     cfg.UseSSL,
		MaxRetries: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return client, nil
}

// OpenS3 verifies the bucket (creating it if missing) and returns a store.
func OpenS3(ctx context.Context, client *minio.Client, bucket, prefix string) (*S3Store, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		logging.Artifacts("created bucket %s", bucket)
	}
	return &S3Store{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *S3Store) dir(filename string) string {
	return s.prefix + filename + "/"
}

func versionKey(dir string, version int) string {
	return fmt.Sprintf("%s%06d", dir, version)
}

func parseVersionKey(dir, key string) (int, bool) {
	rest := strings.TrimPrefix(key, dir)
	if rest == key || strings.Contains(rest, "/") {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (s *S3Store) versions(ctx context.Context, filename string) ([]int, error) {
	dir := s.dir(filename)
	var out []int
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: dir, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", dir, obj.Err)
		}
		if n, ok := parseVersionKey(dir, obj.Key); ok {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out, nil
}

// Save uploads a new version of filename.
func (s *S3Store) Save(ctx context.Context, filename string, data []byte, mimeType string) (int, error) {
	existing, err := s.versions(ctx, filename)
	if err != nil {
		return 0, err
	}
	version := 1
	if len(existing) > 0 {
		version = existing[len(existing)-1] + 1
	}

	key := versionKey(s.dir(filename), version)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: mimeType})
	if err != nil {
		return 0, fmt.Errorf("failed to put object %s: %w", key, err)
	}
	logging.Artifacts("uploaded %s to s3://%s/%s", filename, s.bucket, key)
	return version, nil
}

// Load downloads the latest version of filename.
func (s *S3Store) Load(ctx context.Context, filename string) (*Blob, error) {
	existing, err := s.versions(ctx, filename)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, ErrNotFound)
	}
	version := existing[len(existing)-1]
	key := versionKey(s.dir(filename), version)

	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	mimeType := MIMEType(filename)
	if info, err := object.Stat(); err == nil && info.ContentType != "" {
		mimeType = info.ContentType
	}
	return &Blob{Filename: filename, Version: version, MIMEType: mimeType, Data: data}, nil
}

// List returns stored filenames, sorted.
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", s.prefix, obj.Err)
		}
		rest := strings.TrimPrefix(obj.Key, s.prefix)
		idx := strings.LastIndex(rest, "/")
		if idx <= 0 {
			continue
		}
		name := rest[:idx]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op; minio clients hold no resources needing release.
func (s *S3Store) Close() error { return nil }

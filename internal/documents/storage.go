package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/spec-kit/case-workflow/internal/config"
)

// Storage persists generated files and returns a reference callers can open.
type Storage interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	// Delete removes the file behind a reference returned by Put.
	Delete(ctx context.Context, ref string) error
}

// NewStorage picks S3 when a bucket is configured and reachable, local disk otherwise.
func NewStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) Storage {
	local := NewLocalStorage(cfg.LocalDir, cfg.LocalBaseURL)
	if !cfg.UseS3() {
		logger.Info("document storage: local filesystem", zap.String("dir", cfg.LocalDir))
		return local
	}

	remote, err := NewS3Storage(ctx, cfg)
	if err != nil {
		logger.Warn("s3 storage unavailable; falling back to local filesystem", zap.Error(err))
		return local
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := remote.client.HeadBucket(checkCtx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		logger.Warn("s3 bucket check failed; falling back to local filesystem", zap.String("bucket", cfg.Bucket), zap.Error(err))
		return local
	}

	logger.Info("document storage: s3", zap.String("bucket", cfg.Bucket))
	return remote
}

// S3Storage writes objects to an S3-compatible bucket.
type S3Storage struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	publicURL  string
	presignTTL time.Duration
}

func NewS3Storage(ctx context.Context, cfg config.StorageConfig) (*S3Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := time.Duration(cfg.PresignTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &S3Storage{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		publicURL:  cfg.PublicURL,
		presignTTL: ttl,
	}, nil
}

func (s *S3Storage) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	if s.publicURL != "" {
		return strings.TrimSuffix(s.publicURL, "/") + "/" + key, nil
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *S3Storage) Delete(ctx context.Context, ref string) error {
	key, err := s.keyFor(ref)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// keyFor recovers the object key from a public or presigned URL.
func (s *S3Storage) keyFor(ref string) (string, error) {
	if prefix := strings.TrimSuffix(s.publicURL, "/") + "/"; s.publicURL != "" && strings.HasPrefix(ref, prefix) {
		return strings.TrimPrefix(ref, prefix), nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse reference: %w", err)
	}
	key := strings.TrimPrefix(strings.TrimPrefix(u.Path, "/"), s.bucket+"/")
	if key == "" {
		return "", fmt.Errorf("no object key in %q", ref)
	}
	return key, nil
}

var errForeignRef = errors.New("reference not served by this storage")

// LocalStorage writes files under a directory served by the HTTP server.
type LocalStorage struct {
	baseDir string
	baseURL string
}

func NewLocalStorage(baseDir, baseURL string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (l *LocalStorage) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fullPath := filepath.Join(l.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return l.baseURL + "/" + key, nil
}

func (l *LocalStorage) Delete(_ context.Context, ref string) error {
	prefix := l.baseURL + "/"
	if !strings.HasPrefix(ref, prefix) {
		return fmt.Errorf("%w: %s", errForeignRef, ref)
	}
	key := path.Clean(strings.TrimPrefix(ref, prefix))
	if key == "." || strings.HasPrefix(key, "../") || key == ".." {
		return fmt.Errorf("%w: %s", errForeignRef, ref)
	}
	err := os.Remove(filepath.Join(l.baseDir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

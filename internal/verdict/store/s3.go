package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"onomast/internal/verdict"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3Store writes each verdict to verdicts/<digest>.json. Object stores have
// no compare-and-swap, so CreatedAt is carried forward on a best-effort read.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Store{client: client, bucketName: bucket, region: region}, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("store is nil")
	}
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3Store) Get(ctx context.Context, digest string) (verdict.Record, error) {
	if s == nil {
		return verdict.Record{}, fmt.Errorf("store is nil")
	}
	digest = strings.TrimSpace(digest)
	if digest == "" {
		return verdict.Record{}, fmt.Errorf("digest is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return verdict.Record{}, fmt.Errorf("ensure bucket: %w", err)
	}
	obj, err := s.client.GetObject(ctx, s.bucketName, objectKey(digest), minio.GetObjectOptions{})
	if err != nil {
		return verdict.Record{}, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if notFound(err) {
			return verdict.Record{}, verdict.ErrNotFound
		}
		return verdict.Record{}, err
	}
	return decodeRecord(data)
}

func (s *S3Store) Put(ctx context.Context, rec verdict.Record) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if err := check(rec); err != nil {
		return err
	}
	if prev, err := s.Get(ctx, rec.Digest); err == nil {
		rec.CreatedAt = prev.CreatedAt
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucketName, objectKey(rec.Digest), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

func notFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchBucket"
}

func objectKey(digest string) string {
	return "verdicts/" + strings.TrimSpace(digest) + ".json"
}

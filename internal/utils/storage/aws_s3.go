package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"nutrition-catalog/domain"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type (
	S3Config struct {
		Bucket    string
		Region    string
		AccessKey string
		SecretKey string
		Prefix    string
		URLExpiry time.Duration
	}

	AwsS3 struct {
		client    *s3.Client
		presign   *s3.PresignClient
		bucket    string
		prefix    string
		urlExpiry time.Duration
	}
)

func NewAwsS3(ctx context.Context, cfg S3Config) (*AwsS3, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "food-images"
	}
	return &AwsS3{
		client:    client,
		presign:   s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		prefix:    prefix,
		urlExpiry: expiry,
	}, nil
}

func (s *AwsS3) objectKey(id string) string {
	return path.Join(s.prefix, id)
}

func (s *AwsS3) Put(ctx context.Context, id string, data []byte) error {
	contentType, _ := DetectContentType(data)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(id)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", id, err)
	}
	return nil
}

func (s *AwsS3) Get(ctx context.Context, id string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3 get %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("s3 get %s: %w", id, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *AwsS3) URL(ctx context.Context, id string) (string, error) {
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	}); err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("s3 head %s: %w", id, domain.ErrNotFound)
		}
		return "", fmt.Errorf("s3 head %s: %w", id, err)
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	}, s3.WithPresignExpires(s.urlExpiry))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s: %w", id, err)
	}
	return req.URL, nil
}

func (s *AwsS3) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(id)),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", id, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey"
	}
	return false
}

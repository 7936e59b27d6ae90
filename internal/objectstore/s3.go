package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const (
	errCodeNoSuchKey    = "NoSuchKey"
	errCodeNotFound     = "NotFound"
	errCodeAccessDenied = "AccessDenied"
)

// S3Config holds the bucket settings
type S3Config struct {
	Region string
	Bucket string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO or LocalStack
	Endpoint string
}

// GetObjectAPI is the subset of *s3.Client used by S3Store
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store reads objects from a single bucket
type S3Store struct {
	client GetObjectAPI
	bucket string
}

// NewS3Store uses the AWS default credential chain
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3StoreWithClient(client, cfg.Bucket), nil
}

func NewS3StoreWithClient(client GetObjectAPI, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

func (s *S3Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapS3Error(key, err)
	}
	defer func() {
		_ = out.Body.Close()
	}()

	if out.ContentLength != nil && *out.ContentLength > MaxObjectSize {
		return nil, fmt.Errorf("s3 object %s: %w", key, ErrObjectTooLarge)
	}

	return readLimited(out.Body, key)
}

func mapS3Error(key string, err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("s3 object %s: %w", key, ErrObjectNotFound)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case errCodeNoSuchKey, errCodeNotFound:
			return fmt.Errorf("s3 object %s: %w", key, ErrObjectNotFound)
		case errCodeAccessDenied:
			return fmt.Errorf("s3 object %s: %w", key, ErrAccessDenied)
		}
	}

	return fmt.Errorf("failed to get s3 object %s: %w", key, err)
}

func readLimited(r io.Reader, key string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	if len(data) > MaxObjectSize {
		return nil, fmt.Errorf("object %s: %w", key, ErrObjectTooLarge)
	}
	return data, nil
}

var _ Store = (*S3Store)(nil)

// Package s3store keeps uploaded files in an S3 compatible bucket (AWS, MinIO).
package s3store

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"

	"github.com/trezcool/roster/core"
	"github.com/trezcool/roster/core/media"
)

// objectAPI is the subset of *s3.Client the store needs.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type Store struct {
	client objectAPI
	bucket string
	prefix string
}

var _ media.Store = (*Store)(nil) // interface compliance check

// New builds an S3 client from conf. A custom endpoint switches to path-style addressing (MinIO).
func New(ctx context.Context, conf core.S3Config) (*Store, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(conf.Region)}
	if conf.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AccessKey, conf.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newStore(client, conf.Bucket), nil
}

func newStore(client objectAPI, bucket string) *Store {
	return &Store{client: client, bucket: bucket, prefix: "images/"}
}

func (s *Store) key(name string) (string, error) {
	clean, ok := media.CleanName(name)
	if !ok {
		return "", media.ErrNotFound
	}
	return s.prefix + clean, nil
}

func (s *Store) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	return errors.Wrapf(err, "putting object %s", key)
}

func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key, err := s.key(name)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, media.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting object %s", key)
	}
	return out.Body, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}
	// DeleteObject succeeds on missing keys
	if _, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}); err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return media.ErrNotFound
		}
		return errors.Wrapf(err, "heading object %s", key)
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return errors.Wrapf(err, "deleting object %s", key)
}

package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"time"

	"github.com/BerniceZTT/feedback_end/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3KeyPrefix = "feedback/"

// objectClient is the slice of the S3 client the store needs.
type objectClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps attachments in an S3 bucket under the feedback/ prefix.
type S3Store struct {
	client objectClient
	bucket string
	region string
	now    func() time.Time
}

// NewS3Store loads the default AWS credential chain for region.
func NewS3Store(ctx context.Context, bucket, region string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newS3Store(s3.NewFromConfig(cfg), bucket, region), nil
}

func newS3Store(client objectClient, bucket, region string) *S3Store {
	return &S3Store{client: client, bucket: bucket, region: region, now: time.Now}
}

// Put uploads r and returns the generated file name.
func (s *S3Store) Put(ctx context.Context, originalName string, r io.Reader) (string, error) {
	name := fileName(s.now(), originalName)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3KeyPrefix + name),
		Body:   r,
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	utils.Logger.Debug().Str("bucket", s.bucket).Str("key", s3KeyPrefix+name).Msg("attachment uploaded")
	return name, nil
}

// Delete removes the object behind ref.
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	if !validRef(ref) {
		return errInvalidRef
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3KeyPrefix + ref),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// Resolve returns the public object URL of ref.
func (s *S3Store) Resolve(ref string) string {
	if !validRef(ref) {
		return ""
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s%s", s.bucket, s.region, s3KeyPrefix, ref)
}

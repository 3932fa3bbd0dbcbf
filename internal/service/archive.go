package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pageza/mealplango/backend/config"
	"github.com/rs/zerolog/log"
)

// ObjectPutter is the slice of the S3 client the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ArchiveService stores delivered plan documents in S3
type ArchiveService struct {
	client ObjectPutter
	bucket string
	now    func() time.Time
}

var _ IPlanArchive = (*ArchiveService)(nil)

// NewArchiveService creates an archive backed by the configured bucket.
func NewArchiveService(s3Config *config.S3Config) *ArchiveService {
	return newArchiveService(s3Config.Client, s3Config.BucketName)
}

func newArchiveService(client ObjectPutter, bucket string) *ArchiveService {
	return &ArchiveService{client: client, bucket: bucket, now: time.Now}
}

// Store uploads the document and returns its object key.
func (s *ArchiveService) Store(ctx context.Context, document []byte) (string, error) {
	key := fmt.Sprintf("plans/%s/%s.pdf", s.now().UTC().Format("2006/01"), uuid.NewString())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(document),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Debug().Str("bucket", s.bucket).Str("key", key).Msg("Archived plan document")
	return key, nil
}

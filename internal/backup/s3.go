// Package backup uploads ledger database snapshots to S3. The backup is
// best-effort operational tooling: failures are logged by the scheduler
// and never affect the accounting pipeline.
package backup

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Uploader pushes database files to an S3 bucket
type Uploader struct {
	bucket   string
	prefix   string
	uploader *manager.Uploader
	log      zerolog.Logger
}

// NewUploader creates an S3 uploader using the default AWS credential
// chain (env vars, shared config, instance role).
func NewUploader(ctx context.Context, bucket, prefix string, log zerolog.Logger) (*Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &Uploader{
		bucket:   bucket,
		prefix:   prefix,
		uploader: manager.NewUploader(client),
		log:      log.With().Str("component", "backup").Logger(),
	}, nil
}

// UploadFile streams a local file to the bucket under a date-stamped key
func (u *Uploader) UploadFile(ctx context.Context, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	key := path.Join(u.prefix, time.Now().UTC().Format("2006-01-02"), path.Base(localPath))

	_, err = u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to s3://%s/%s: %w", localPath, u.bucket, key, err)
	}

	u.log.Info().
		Str("file", localPath).
		Str("bucket", u.bucket).
		Str("key", key).
		Msg("Ledger backup uploaded")

	return nil
}

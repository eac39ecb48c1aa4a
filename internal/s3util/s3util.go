// Package s3util provides shared S3 helpers for the export and poster
// workers: object download, tagged upload, and presigned GET URLs.
package s3util

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
)

// projectTag is the URL-encoded S3 object tagging string for cost allocation.
const projectTag = "Project=cozyclean-blitz"

// ProjectTagging returns the cost-allocation tag for PutObjectInput.Tagging.
func ProjectTagging() *string {
	t := projectTag
	return &t
}

// DownloadToTempFile downloads an S3 object to a new temporary file and
// returns the file path plus a cleanup function that removes it. Export
// archives stream entries from disk so a large photo never has to fit in
// Lambda memory twice.
func DownloadToTempFile(ctx context.Context, client *s3.Client, bucket, key string) (string, func(), error) {
	tmpFile, err := os.CreateTemp("", "s3dl-*"+filepath.Ext(key))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return "", nil, fmt.Errorf("S3 GetObject: %w", err)
	}
	defer result.Body.Close()

	if _, err := io.Copy(tmpFile, result.Body); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return "", nil, fmt.Errorf("download: %w", err)
	}
	tmpFile.Close()

	cleanup := func() { os.Remove(tmpFile.Name()) }
	return tmpFile.Name(), cleanup, nil
}

// DownloadBytes fetches a whole object into memory. Poster thumbnails are
// small enough that this is fine.
func DownloadBytes(ctx context.Context, client *s3.Client, bucket, key string) ([]byte, error) {
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("S3 GetObject: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	return data, nil
}

// UploadFile streams a local file to S3 with the project tag applied.
func UploadFile(ctx context.Context, client *s3.Client, bucket, key, localPath, contentType string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        f,
		ContentType: &contentType,
		Tagging:     ProjectTagging(),
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject: %w", err)
	}

	log.Debug().Str("bucket", bucket).Str("key", key).Msg("Uploaded file to S3")
	return nil
}

// UploadBytes writes an in-memory object to S3 with the project tag applied.
func UploadBytes(ctx context.Context, client *s3.Client, bucket, key string, data []byte, contentType string) error {
	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
		Tagging:     ProjectTagging(),
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject: %w", err)
	}

	log.Debug().Str("bucket", bucket).Str("key", key).Int("size", len(data)).Msg("Uploaded object to S3")
	return nil
}

// PresignGet creates a pre-signed GET URL for an S3 object.
func PresignGet(ctx context.Context, presignClient *s3.PresignClient, bucket, key string, expiry time.Duration) (string, error) {
	result, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket, Key: &key,
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign GetObject: %w", err)
	}
	return result.URL, nil
}

// HeadSize returns an object's size in bytes without fetching the body.
// The export planner uses it to bin keys into parts before downloading.
func HeadSize(ctx context.Context, client *s3.Client, bucket, key string) (int64, error) {
	result, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return 0, fmt.Errorf("S3 HeadObject: %w", err)
	}
	return aws.ToInt64(result.ContentLength), nil
}

// PhotoIDFromKey recovers the client photo ID from an object key of the
// form "{uid}/{photoId}.{ext}".
func PhotoIDFromKey(key string) string {
	base := path.Base(key)
	return base[:len(base)-len(path.Ext(base))]
}

// TagObject applies the project cost-allocation tag to an existing object.
// Used for app-uploaded photos that arrive via presigned PUT URLs and so
// cannot be tagged at creation time.
func TagObject(ctx context.Context, client *s3.Client, bucket, key string) error {
	_, err := client.PutObjectTagging(ctx, &s3.PutObjectTaggingInput{
		Bucket: &bucket,
		Key:    &key,
		Tagging: &s3types.Tagging{
			TagSet: []s3types.Tag{
				{Key: aws.String("Project"), Value: aws.String("cozyclean-blitz")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("PutObjectTagging: %w", err)
	}
	return nil
}

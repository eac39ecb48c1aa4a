package main

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/events"
	"github.com/cozyclean/blitz/internal/jobs"
	"github.com/cozyclean/blitz/internal/jobutil"
	"github.com/cozyclean/blitz/internal/metrics"
	"github.com/cozyclean/blitz/internal/s3util"
	"github.com/cozyclean/blitz/internal/store"
)

// maxExportPartBytes caps the total photo bytes packed into one ZIP
// part. Larger exports are split into multiple numbered archives.
const maxExportPartBytes int64 = 2 << 30

// handleExport bundles the requested photos into one or more ZIP
// archives, uploads them under the user's export prefix, and records
// presigned download URLs on the job.
func handleExport(ctx context.Context, event WorkerEvent) error {
	jobStart := time.Now()
	job := markRunning(ctx, event)

	if len(event.Keys) == 0 {
		return setJobError(ctx, event, "export requested with no photos")
	}

	prefix := event.UID + "/"
	files := make([]jobutil.SizedFile, 0, len(event.Keys))
	for _, key := range event.Keys {
		if !strings.HasPrefix(key, prefix) {
			log.Warn().Str("uid", event.UID).Str("key", key).Msg("Export key outside user prefix, skipping")
			continue
		}
		size, err := s3util.HeadSize(ctx, s3Clients.Client, s3Clients.Bucket, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Export key not found in S3, skipping")
			continue
		}
		files = append(files, jobutil.SizedFile{Key: key, Size: size})
	}
	if len(files) == 0 {
		return setJobError(ctx, event, "none of the requested photos exist")
	}

	groups := jobutil.PartitionBySize(files, maxExportPartBytes)
	expiry := time.Duration(appConfig.ExportExpiryHours) * time.Hour

	parts := make([]store.ExportPart, 0, len(groups))
	var zipBytes int64
	for i, group := range groups {
		name := jobutil.PartName(event.Label, i, len(groups))
		zipKey := fmt.Sprintf("%s/exports/%s/%s", event.UID, event.JobID, name)

		zipSize, err := createZip(ctx, group, zipKey)
		if err != nil {
			return setJobError(ctx, event, fmt.Sprintf("create %s: %v", name, err))
		}
		zipBytes += zipSize

		presigned, err := s3Clients.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket:                     aws.String(s3Clients.Bucket),
			Key:                        aws.String(zipKey),
			ResponseContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", name)),
		}, s3.WithPresignExpires(expiry))
		if err != nil {
			return setJobError(ctx, event, fmt.Sprintf("presign %s: %v", name, err))
		}

		var groupBytes int64
		for _, f := range group {
			groupBytes += f.Size
		}
		parts = append(parts, store.ExportPart{
			Name:        name,
			ZipKey:      zipKey,
			DownloadURL: presigned.URL,
			FileCount:   len(group),
			TotalSize:   groupBytes,
			ZipSize:     zipSize,
		})
	}

	job.Status = store.JobComplete
	job.Parts = parts
	if err := blitzStore.PutJob(ctx, event.UID, job); err != nil {
		return setJobError(ctx, event, fmt.Sprintf("persist results: %v", err))
	}

	if err := publisher.ExportCompleted(ctx, events.ExportCompleted{
		UID:       event.UID,
		JobID:     event.JobID,
		PartCount: len(parts),
		TotalSize: zipBytes,
	}); err != nil {
		log.Warn().Err(err).Str("jobId", event.JobID).Msg("Failed to publish export event")
	}

	metrics.New("CozyClean").
		Dimension("JobType", jobs.TypeExport).
		Duration("JobDurationMs", time.Since(jobStart)).
		Metric("JobFilesProcessed", float64(len(files)), metrics.UnitCount).
		Metric("JobBytesOut", float64(zipBytes), metrics.UnitBytes).
		Count("JobSuccess").
		Property("jobId", event.JobID).
		Property("uid", event.UID).
		Flush()

	log.Info().
		Str("jobId", event.JobID).
		Int("files", len(files)).
		Int("parts", len(parts)).
		Int64("zipBytes", zipBytes).
		Dur("duration", time.Since(jobStart)).
		Msg("Export job complete")
	return nil
}

// createZip streams each photo in the group from S3 into a Zstandard
// compressed ZIP in Lambda scratch space, then uploads the archive and
// returns its size in bytes.
func createZip(ctx context.Context, group []jobutil.SizedFile, zipKey string) (int64, error) {
	tmp, err := os.CreateTemp("", "export-*.zip")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	zw := zip.NewWriter(tmp)
	for _, f := range group {
		if err := addZipEntry(ctx, zw, f.Key); err != nil {
			zw.Close()
			tmp.Close()
			return 0, err
		}
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("finalize archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close archive: %w", err)
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("stat archive: %w", err)
	}
	if err := s3util.UploadFile(ctx, s3Clients.Client, s3Clients.Bucket, zipKey, tmpPath, "application/zip"); err != nil {
		return 0, fmt.Errorf("upload archive: %w", err)
	}
	return info.Size(), nil
}

func addZipEntry(ctx context.Context, zw *zip.Writer, key string) error {
	obj, err := s3Clients.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s3Clients.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("fetch %s: %w", key, err)
	}
	defer obj.Body.Close()

	header := &zip.FileHeader{
		Name:     path.Base(key),
		Method:   zipMethodZstd,
		Modified: time.Now(),
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", key, err)
	}
	if _, err := io.Copy(w, obj.Body); err != nil {
		return fmt.Errorf("compress %s: %w", key, err)
	}
	return nil
}

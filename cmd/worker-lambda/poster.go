package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/jobs"
	"github.com/cozyclean/blitz/internal/library"
	"github.com/cozyclean/blitz/internal/metrics"
	"github.com/cozyclean/blitz/internal/s3util"
	"github.com/cozyclean/blitz/internal/store"
)

const posterQuality = 80

// handlePoster renders the kept photos of a session into a square-cell
// grid collage, encodes it as WebP, and records a presigned URL on the
// job.
func handlePoster(ctx context.Context, event WorkerEvent) error {
	jobStart := time.Now()
	job := markRunning(ctx, event)

	if len(event.Keys) == 0 {
		return setJobError(ctx, event, "poster requested with no photos")
	}

	prefix := event.UID + "/"
	var imgs []image.Image
	for _, key := range event.Keys {
		if !strings.HasPrefix(key, prefix) {
			log.Warn().Str("uid", event.UID).Str("key", key).Msg("Poster key outside user prefix, skipping")
			continue
		}
		data, err := s3util.DownloadBytes(ctx, s3Clients.Client, s3Clients.Bucket, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Poster photo unavailable, skipping")
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Poster photo undecodable, skipping")
			continue
		}
		imgs = append(imgs, img)
	}
	if len(imgs) == 0 {
		return setJobError(ctx, event, "no usable photos for poster")
	}

	canvas := library.RenderPosterGrid(imgs, event.Columns, library.DefaultPosterCell)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, canvas, &webp.Options{Quality: posterQuality}); err != nil {
		return setJobError(ctx, event, fmt.Sprintf("encode poster: %v", err))
	}

	posterKey := fmt.Sprintf("%s/posters/%s.webp", event.UID, event.JobID)
	if err := s3util.UploadBytes(ctx, s3Clients.Client, s3Clients.Bucket, posterKey, buf.Bytes(), "image/webp"); err != nil {
		return setJobError(ctx, event, fmt.Sprintf("upload poster: %v", err))
	}

	expiry := time.Duration(appConfig.ExportExpiryHours) * time.Hour
	url, err := s3util.PresignGet(ctx, s3Clients.Presigner, s3Clients.Bucket, posterKey, expiry)
	if err != nil {
		return setJobError(ctx, event, fmt.Sprintf("presign poster: %v", err))
	}

	job.Status = store.JobComplete
	job.PosterKey = posterKey
	job.PosterURL = url
	if err := blitzStore.PutJob(ctx, event.UID, job); err != nil {
		return setJobError(ctx, event, fmt.Sprintf("persist results: %v", err))
	}

	metrics.New("CozyClean").
		Dimension("JobType", jobs.TypePoster).
		Duration("JobDurationMs", time.Since(jobStart)).
		Metric("JobFilesProcessed", float64(len(imgs)), metrics.UnitCount).
		Metric("JobBytesOut", float64(buf.Len()), metrics.UnitBytes).
		Count("JobSuccess").
		Property("jobId", event.JobID).
		Property("uid", event.UID).
		Flush()

	log.Info().
		Str("jobId", event.JobID).
		Int("photos", len(imgs)).
		Int("posterBytes", buf.Len()).
		Dur("duration", time.Since(jobStart)).
		Msg("Poster job complete")
	return nil
}

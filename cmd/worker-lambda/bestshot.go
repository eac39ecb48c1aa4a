package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/bestshot"
	"github.com/cozyclean/blitz/internal/jobs"
	"github.com/cozyclean/blitz/internal/library"
	"github.com/cozyclean/blitz/internal/metrics"
	"github.com/cozyclean/blitz/internal/s3util"
	"github.com/cozyclean/blitz/internal/store"
)

// handleBestShot asks the model to pick the best frame of each burst
// group and records one pick per group on the job. A group whose API
// call fails falls back to its first frame so a partial outage never
// fails the whole job.
func handleBestShot(ctx context.Context, event WorkerEvent) error {
	jobStart := time.Now()
	job := markRunning(ctx, event)

	if len(event.Groups) == 0 {
		return setJobError(ctx, event, "best-shot requested with no burst groups")
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return setJobError(ctx, event, "AI judging is not configured")
	}
	client, err := bestshot.NewClient(ctx, apiKey)
	if err != nil {
		return setJobError(ctx, event, fmt.Sprintf("create AI client: %v", err))
	}
	picker := bestshot.NewPicker(client)

	prefix := event.UID + "/"
	picks := make([]store.BestPick, 0, len(event.Groups))
	fallbacks := 0

	for gi, group := range event.Groups {
		var (
			photos []bestshot.Photo
			keys   []string
		)
		for _, key := range group {
			if !strings.HasPrefix(key, prefix) {
				log.Warn().Str("uid", event.UID).Str("key", key).Msg("Burst key outside user prefix, skipping")
				continue
			}
			photo, err := loadJudgingPhoto(ctx, key)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Burst member unavailable, skipping")
				continue
			}
			photos = append(photos, photo)
			keys = append(keys, key)
		}
		if len(photos) == 0 {
			log.Warn().Int("group", gi).Msg("Burst group had no usable photos")
			continue
		}

		verdict, err := picker.PickBest(ctx, photos)
		if err != nil {
			log.Warn().Err(err).Int("group", gi).Msg("AI judging failed, falling back to first frame")
			verdict = &bestshot.Verdict{BestIndex: 0, Reason: "first frame (judging unavailable)"}
			fallbacks++
		}

		picks = append(picks, store.BestPick{
			GroupIndex: gi,
			PhotoID:    s3util.PhotoIDFromKey(keys[verdict.BestIndex]),
			Reason:     verdict.Reason,
		})
	}

	if len(picks) == 0 {
		return setJobError(ctx, event, "no burst groups could be judged")
	}

	job.Status = store.JobComplete
	job.Picks = picks
	if err := blitzStore.PutJob(ctx, event.UID, job); err != nil {
		return setJobError(ctx, event, fmt.Sprintf("persist results: %v", err))
	}

	metrics.New("CozyClean").
		Dimension("JobType", jobs.TypeBestShot).
		Duration("JobDurationMs", time.Since(jobStart)).
		Metric("JobGroupsJudged", float64(len(picks)), metrics.UnitCount).
		Metric("JobJudgingFallbacks", float64(fallbacks), metrics.UnitCount).
		Count("JobSuccess").
		Property("jobId", event.JobID).
		Property("uid", event.UID).
		Flush()

	log.Info().
		Str("jobId", event.JobID).
		Int("groups", len(event.Groups)).
		Int("picks", len(picks)).
		Int("fallbacks", fallbacks).
		Dur("duration", time.Since(jobStart)).
		Msg("Best-shot job complete")
	return nil
}

// loadJudgingPhoto downloads a photo and shrinks it to thumbnail size.
// The model accepts only a few MB of inline image data per request, so
// full-resolution photos are downscaled before judging.
func loadJudgingPhoto(ctx context.Context, key string) (bestshot.Photo, error) {
	tmpPath, cleanup, err := s3util.DownloadToTempFile(ctx, s3Clients.Client, s3Clients.Bucket, key)
	if err != nil {
		return bestshot.Photo{}, err
	}
	defer cleanup()

	data, mimeType, err := library.Thumbnail(tmpPath, library.DefaultThumbnailMaxDimension)
	if err != nil {
		return bestshot.Photo{}, err
	}
	return bestshot.Photo{Data: data, MIMEType: mimeType}, nil
}

// Command worker-lambda executes the asynchronous job families of the
// Blitz backend: ZIP export bundling, poster collage rendering, and AI
// best-shot judging. It is invoked with the "Event" invocation type by
// blitz-lambda, so nothing waits on its return value; progress and
// results are reported exclusively through the job record in DynamoDB,
// which clients poll via GET /api/v1/jobs/{id}.
package main

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/config"
	"github.com/cozyclean/blitz/internal/events"
	"github.com/cozyclean/blitz/internal/jobs"
	"github.com/cozyclean/blitz/internal/jobutil"
	"github.com/cozyclean/blitz/internal/lambdaboot"
	"github.com/cozyclean/blitz/internal/logging"
	"github.com/cozyclean/blitz/internal/store"
)

// zipMethodZstd is the ZIP method ID for Zstandard compression (APPNOTE 4.4.5).
const zipMethodZstd = 93

// WorkerEvent is the payload blitz-lambda sends when it invokes this
// function. Type selects the job family; the remaining fields are
// family-specific (Keys for export and poster, Groups for best-shot).
type WorkerEvent struct {
	Type    string     `json:"type"`
	UID     string     `json:"uid"`
	JobID   string     `json:"jobId"`
	Keys    []string   `json:"keys,omitempty"`
	Label   string     `json:"label,omitempty"`
	Groups  [][]string `json:"groups,omitempty"`
	Columns int        `json:"columns,omitempty"`
}

var (
	s3Clients  lambdaboot.S3Clients
	blitzStore *store.DynamoStore
	publisher  *events.Publisher
	appConfig  config.Config

	coldStart = true
)

func init() {
	initStart := time.Now()
	logging.Init()

	zip.RegisterCompressor(zipMethodZstd, func(out io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(12)))
	})

	awsClients := lambdaboot.InitAWS()
	s3Clients = lambdaboot.InitS3(awsClients.Config, "BLITZ_BUCKET_NAME")
	blitzStore = lambdaboot.InitDynamo(awsClients.Config, "BLITZ_TABLE_NAME")
	publisher = events.NewPublisher(eventbridge.NewFromConfig(awsClients.Config), os.Getenv("BLITZ_EVENT_BUS"))
	lambdaboot.LoadGeminiKey(awsClients.SSM)

	appConfig = config.Default()
	if values, err := blitzStore.ConfigValues(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Runtime config unavailable, using defaults")
	} else {
		appConfig = appConfig.Merge(values)
	}
	appConfig = appConfig.FromEnv()

	lambdaboot.StartupLog("worker-lambda", initStart).
		S3Bucket("photos", s3Clients.Bucket).
		DynamoTable("main", os.Getenv("BLITZ_TABLE_NAME")).
		EventBus("app", logging.EnvOrDefault("BLITZ_EVENT_BUS", "default")).
		Config("exportExpiryHours", strconv.Itoa(appConfig.ExportExpiryHours)).
		Log()
}

func handler(ctx context.Context, event WorkerEvent) error {
	wasCold := coldStart
	coldStart = false

	log.Info().
		Str("type", event.Type).
		Str("uid", event.UID).
		Str("jobId", event.JobID).
		Bool("coldStart", wasCold).
		Msg("Worker job received")

	if event.UID == "" || event.JobID == "" {
		log.Error().Str("type", event.Type).Msg("Worker event missing uid or jobId, dropping")
		return nil
	}

	switch event.Type {
	case jobs.TypeExport:
		return handleExport(ctx, event)
	case jobs.TypePoster:
		return handlePoster(ctx, event)
	case jobs.TypeBestShot:
		return handleBestShot(ctx, event)
	default:
		return setJobError(ctx, event, fmt.Sprintf("unknown job type %q", event.Type))
	}
}

// markRunning flips the job record to "running" and returns it so the
// handler can fill in results later. A missing record (direct invoke,
// or the dispatch write raced the worker) is recreated rather than
// treated as fatal.
func markRunning(ctx context.Context, event WorkerEvent) *store.Job {
	job, err := blitzStore.GetJob(ctx, event.UID, event.JobID)
	if err != nil {
		log.Warn().Err(err).Str("jobId", event.JobID).Msg("Failed to load job record")
	}
	if job == nil {
		job = &store.Job{
			ID:        event.JobID,
			Type:      event.Type,
			CreatedAt: time.Now().UnixMilli(),
		}
	}
	job.Status = store.JobRunning
	job.Error = ""
	if err := blitzStore.PutJob(ctx, event.UID, job); err != nil {
		log.Warn().Err(err).Str("jobId", event.JobID).Msg("Failed to mark job running")
	}
	return job
}

// setJobError persists a terminal error status on the job record. Once
// the error is stored the handler returns nil, keeping the async retry
// machinery out of it: the client learns the outcome from the job
// record, not from Lambda delivery semantics.
func setJobError(ctx context.Context, event WorkerEvent, msg string) error {
	return jobutil.SetJobError(ctx, event.UID, event.JobID, msg, func(ctx context.Context, uid, jobID, errMsg string) error {
		return blitzStore.PutJob(ctx, uid, &store.Job{
			ID:        jobID,
			Type:      event.Type,
			Status:    store.JobError,
			CreatedAt: time.Now().UnixMilli(),
			Error:     errMsg,
		})
	})
}

func main() {
	lambda.Start(handler)
}

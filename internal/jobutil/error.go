// Package jobutil provides shared helpers for the async worker jobs:
// terminal-error persistence and export archive partitioning.
//
// SetJobError unifies the error-writing pattern used by the worker handlers
// that log a failure and persist an error status to DynamoDB so the client
// polling /api/v1/jobs/{id} sees a terminal state instead of a stuck job.
package jobutil

import (
	"context"

	"github.com/rs/zerolog/log"
)

// ErrorWriter is a function that persists a job error to the backing store,
// typically a DynamoDB PutJob with status "error".
type ErrorWriter func(ctx context.Context, uid, jobID, errMsg string) error

// SetJobError logs the error and delegates persistence to the provided writer.
// Worker handlers return the result of SetJobError instead of the original
// error so a persistence failure is the only thing that triggers a retry.
func SetJobError(ctx context.Context, uid, jobID, msg string, write ErrorWriter) error {
	log.Error().
		Str("job", jobID).
		Str("uid", uid).
		Str("error", msg).
		Msg("Job failed")
	return write(ctx, uid, jobID, msg)
}

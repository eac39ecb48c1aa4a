package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// --- Async job operations ---

func (s *DynamoStore) PutJob(ctx context.Context, uid string, job *Job) error {
	if job.CreatedAt == 0 {
		job.CreatedAt = time.Now().Unix()
	}

	sk := skJob + job.ID
	if err := s.putItem(ctx, userPK(uid), sk, job, JobTTL); err != nil {
		return fmt.Errorf("put job %s/%s: %w", uid, job.ID, err)
	}

	log.Debug().
		Str("uid", uid).
		Str("jobId", job.ID).
		Str("jobType", job.Type).
		Str("status", job.Status).
		Msg("Job persisted")
	return nil
}

func (s *DynamoStore) GetJob(ctx context.Context, uid, jobID string) (*Job, error) {
	var job Job
	found, err := s.getItem(ctx, userPK(uid), skJob+jobID, &job)
	if err != nil {
		return nil, fmt.Errorf("get job %s/%s: %w", uid, jobID, err)
	}
	if !found {
		log.Debug().Str("uid", uid).Str("jobId", jobID).Bool("found", false).Msg("GetJob: job not found")
		return nil, nil
	}

	job.ID = jobID
	job.UID = uid
	log.Debug().Str("uid", uid).Str("jobId", jobID).Str("status", job.Status).Bool("found", true).Msg("GetJob: job retrieved")
	return &job, nil
}

// --- Runtime config operations ---

func (s *DynamoStore) ConfigValues(ctx context.Context) (map[string]string, error) {
	items, err := s.queryBySKPrefix(ctx, configPK, skConfig)
	if err != nil {
		return nil, fmt.Errorf("get config values: %w", err)
	}

	values := make(map[string]string, len(items))
	for _, item := range items {
		var rec struct {
			Value string `dynamodbav:"value"`
		}
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			log.Warn().Err(err).Msg("Failed to unmarshal config value, skipping")
			continue
		}

		skAttr, ok := item["SK"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		key := strings.TrimPrefix(skAttr.Value, skConfig)
		values[key] = rec.Value
	}

	return values, nil
}

func (s *DynamoStore) PutConfigValue(ctx context.Context, key, value string) error {
	rec := struct {
		Value string `dynamodbav:"value"`
	}{Value: value}

	if err := s.putItem(ctx, configPK, skConfig+key, &rec, 0); err != nil {
		return fmt.Errorf("put config value %s: %w", key, err)
	}

	log.Info().Str("key", key).Msg("Config value updated")
	return nil
}

// --- Aurora activity marker ---

// activityRecord is the marker the auto-stop Lambda polls to decide
// whether the Aurora cluster has been idle long enough to stop.
type activityRecord struct {
	Timestamp string `dynamodbav:"timestamp"`
}

func (s *DynamoStore) TouchActivity(ctx context.Context) error {
	rec := activityRecord{Timestamp: time.Now().UTC().Format(time.RFC3339)}
	if err := s.putItem(ctx, activityPK, skActivity, &rec, 0); err != nil {
		return fmt.Errorf("touch activity marker: %w", err)
	}
	return nil
}

func (s *DynamoStore) LastActivity(ctx context.Context) (time.Time, error) {
	var rec activityRecord
	found, err := s.getItem(ctx, activityPK, skActivity, &rec)
	if err != nil {
		return time.Time{}, fmt.Errorf("get activity marker: %w", err)
	}
	if !found {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339, rec.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse activity timestamp %q: %w", rec.Timestamp, err)
	}
	return t, nil
}

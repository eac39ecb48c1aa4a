// Package events publishes domain events to EventBridge. Downstream rules
// fan these out to analytics and the re-engagement pipeline without the
// API Lambda knowing who listens.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	eventbridgetypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/rs/zerolog/log"
)

// Source identifies this service on the bus.
const Source = "cozyclean.blitz"

const (
	DetailSessionSynced   = "SessionSynced"
	DetailExportCompleted = "ExportCompleted"
)

// SessionSynced is emitted after a finalized cleanup session is persisted.
type SessionSynced struct {
	UID           string `json:"uid"`
	SessionID     string `json:"sessionId"`
	Mode          int    `json:"mode"`
	KeptCount     int    `json:"keptCount"`
	DeletedCount  int    `json:"deletedCount"`
	FavoriteCount int    `json:"favoriteCount"`
	SavedBytes    int64  `json:"savedBytes"`
	DeviceID      string `json:"deviceId"`
	Timestamp     string `json:"timestamp"`
}

// ExportCompleted is emitted when an export job finishes writing its parts.
type ExportCompleted struct {
	UID       string `json:"uid"`
	JobID     string `json:"jobId"`
	PartCount int    `json:"partCount"`
	TotalSize int64  `json:"totalSize"`
	Timestamp string `json:"timestamp"`
}

// Publisher sends events to a bus. An empty bus name targets the account's
// default bus.
type Publisher struct {
	client  *eventbridge.Client
	busName string
}

func NewPublisher(client *eventbridge.Client, busName string) *Publisher {
	return &Publisher{client: client, busName: busName}
}

// SessionSynced publishes a session completion event. The timestamp is
// filled in when the caller leaves it empty.
func (p *Publisher) SessionSynced(ctx context.Context, evt SessionSynced) error {
	if evt.Timestamp == "" {
		evt.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return p.publish(ctx, DetailSessionSynced, evt, evt.UID, evt.SessionID)
}

// ExportCompleted publishes an export completion event.
func (p *Publisher) ExportCompleted(ctx context.Context, evt ExportCompleted) error {
	if evt.Timestamp == "" {
		evt.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return p.publish(ctx, DetailExportCompleted, evt, evt.UID, evt.JobID)
}

func (p *Publisher) publish(ctx context.Context, detailType string, detail any, uid, refID string) error {
	body, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", detailType, err)
	}

	entry := eventbridgetypes.PutEventsRequestEntry{
		Source:     aws.String(Source),
		DetailType: aws.String(detailType),
		Detail:     aws.String(string(body)),
	}
	if p.busName != "" {
		entry.EventBusName = aws.String(p.busName)
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []eventbridgetypes.PutEventsRequestEntry{entry},
	})
	if err != nil {
		log.Error().Err(err).Str("uid", uid).Str("detailType", detailType).Msg("EventBridge PutEvents failed")
		return fmt.Errorf("PutEvents: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for i, e := range result.Entries {
			if e.ErrorCode != nil || e.ErrorMessage != nil {
				log.Error().
					Int("index", i).
					Str("errorCode", aws.ToString(e.ErrorCode)).
					Str("errorMessage", aws.ToString(e.ErrorMessage)).
					Str("uid", uid).
					Str("detailType", detailType).
					Msg("EventBridge PutEvents entry failed")
				return fmt.Errorf("PutEvents entry %d failed: %s - %s", i, aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage))
			}
		}
	}

	log.Debug().Str("uid", uid).Str("ref", refID).Str("detailType", detailType).Msg("Event published")
	return nil
}

// Package records writes durable cleanup history to Aurora PostgreSQL via
// the RDS Data API. DynamoDB remains the hot path the app reads from;
// Aurora is the analytical copy that answers "what did this user clean up
// over time" without Dynamo scans.
//
// All writes here are best-effort from the caller's perspective: the sync
// handler logs failures and responds to the client regardless, because
// Dynamo already holds the authoritative state.
package records

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	rdsdatatypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/store"
)

// actionBatchSize caps rows per BatchExecuteStatement call. The Data API
// rejects oversized requests; 100 action rows stays far under the limit.
const actionBatchSize = 100

// Client executes SQL against the Aurora cluster through the Data API.
type Client struct {
	client     *rdsdata.Client
	clusterARN string
	secretARN  string
	database   string
}

// NewClient creates a records client for the given cluster and database.
func NewClient(client *rdsdata.Client, clusterARN, secretARN, database string) *Client {
	return &Client{
		client:     client,
		clusterARN: clusterARN,
		secretARN:  secretARN,
		database:   database,
	}
}

// Totals aggregates a user's lifetime cleanup history.
type Totals struct {
	SessionCount int64 `json:"sessionCount"`
	DeletedCount int64 `json:"deletedCount"`
	SavedBytes   int64 `json:"savedBytes"`
}

func (c *Client) exec(ctx context.Context, sql string, params []rdsdatatypes.SqlParameter) error {
	_, err := c.client.ExecuteStatement(ctx, &rdsdata.ExecuteStatementInput{
		ResourceArn: aws.String(c.clusterARN),
		SecretArn:   aws.String(c.secretARN),
		Database:    aws.String(c.database),
		Sql:         aws.String(sql),
		Parameters:  params,
	})
	return err
}

// InsertSessionLog records one completed cleanup pass. Client retries are
// absorbed by the conflict clause, so a session is only counted once.
func (c *Client) InsertSessionLog(ctx context.Context, uid string, rec *store.SessionLog) error {
	sql := `INSERT INTO sync_session_logs (uid, session_id, mode, kept_count, deleted_count, favorite_count, saved_bytes, start_time, end_time, device_id)
		VALUES (:uid, :session_id, :mode, :kept_count, :deleted_count, :favorite_count, :saved_bytes, to_timestamp(:start_ms / 1000.0), to_timestamp(:end_ms / 1000.0), :device_id)
		ON CONFLICT (uid, session_id) DO NOTHING`
	params := []rdsdatatypes.SqlParameter{
		{Name: aws.String("uid"), Value: &rdsdatatypes.FieldMemberStringValue{Value: uid}},
		{Name: aws.String("session_id"), Value: &rdsdatatypes.FieldMemberStringValue{Value: rec.SessionID}},
		{Name: aws.String("mode"), Value: &rdsdatatypes.FieldMemberLongValue{Value: int64(rec.Mode)}},
		{Name: aws.String("kept_count"), Value: &rdsdatatypes.FieldMemberLongValue{Value: int64(rec.KeptCount)}},
		{Name: aws.String("deleted_count"), Value: &rdsdatatypes.FieldMemberLongValue{Value: int64(rec.DeletedCount)}},
		{Name: aws.String("favorite_count"), Value: &rdsdatatypes.FieldMemberLongValue{Value: int64(rec.FavoriteCount)}},
		{Name: aws.String("saved_bytes"), Value: &rdsdatatypes.FieldMemberLongValue{Value: rec.SavedBytes}},
		{Name: aws.String("start_ms"), Value: &rdsdatatypes.FieldMemberLongValue{Value: rec.StartTimeMs}},
		{Name: aws.String("end_ms"), Value: &rdsdatatypes.FieldMemberLongValue{Value: rec.EndTimeMs}},
		{Name: aws.String("device_id"), Value: &rdsdatatypes.FieldMemberStringValue{Value: rec.DeviceID}},
	}
	if err := c.exec(ctx, sql, params); err != nil {
		log.Error().Err(err).Str("uid", uid).Str("sessionId", rec.SessionID).Msg("InsertSessionLog failed")
		return fmt.Errorf("InsertSessionLog: %w", err)
	}
	return nil
}

// InsertActions records per-photo decisions in batches. Re-synced photos
// overwrite their previous action, matching the Dynamo action records.
func (c *Client) InsertActions(ctx context.Context, uid string, actions []store.PhotoAction) error {
	if len(actions) == 0 {
		return nil
	}

	sql := `INSERT INTO sync_photo_actions (uid, photo_md5, action_type, action_source, session_id, size_bytes, action_time)
		VALUES (:uid, :photo_md5, :action_type, :action_source, :session_id, :size_bytes, to_timestamp(:action_ms / 1000.0))
		ON CONFLICT (uid, photo_md5) DO UPDATE SET
			action_type = EXCLUDED.action_type, action_source = EXCLUDED.action_source,
			session_id = EXCLUDED.session_id, size_bytes = EXCLUDED.size_bytes, action_time = EXCLUDED.action_time`

	for start := 0; start < len(actions); start += actionBatchSize {
		end := start + actionBatchSize
		if end > len(actions) {
			end = len(actions)
		}

		paramSets := make([][]rdsdatatypes.SqlParameter, 0, end-start)
		for _, a := range actions[start:end] {
			source := a.ActionSource
			if source == "" {
				source = "ANDROID"
			}
			paramSets = append(paramSets, []rdsdatatypes.SqlParameter{
				{Name: aws.String("uid"), Value: &rdsdatatypes.FieldMemberStringValue{Value: uid}},
				{Name: aws.String("photo_md5"), Value: &rdsdatatypes.FieldMemberStringValue{Value: a.PhotoID}},
				{Name: aws.String("action_type"), Value: &rdsdatatypes.FieldMemberLongValue{Value: int64(a.ActionType)}},
				{Name: aws.String("action_source"), Value: &rdsdatatypes.FieldMemberStringValue{Value: source}},
				{Name: aws.String("session_id"), Value: &rdsdatatypes.FieldMemberStringValue{Value: a.SessionID}},
				{Name: aws.String("size_bytes"), Value: &rdsdatatypes.FieldMemberLongValue{Value: a.SizeBytes}},
				{Name: aws.String("action_ms"), Value: &rdsdatatypes.FieldMemberLongValue{Value: a.ActionTimeMs}},
			})
		}

		_, err := c.client.BatchExecuteStatement(ctx, &rdsdata.BatchExecuteStatementInput{
			ResourceArn:   aws.String(c.clusterARN),
			SecretArn:     aws.String(c.secretARN),
			Database:      aws.String(c.database),
			Sql:           aws.String(sql),
			ParameterSets: paramSets,
		})
		if err != nil {
			log.Error().Err(err).Str("uid", uid).Int("batch", len(paramSets)).Msg("InsertActions failed")
			return fmt.Errorf("InsertActions (%d rows): %w", len(paramSets), err)
		}
	}

	log.Debug().Str("uid", uid).Int("actions", len(actions)).Msg("Photo actions recorded in Aurora")
	return nil
}

// UserTotals aggregates a user's session history.
func (c *Client) UserTotals(ctx context.Context, uid string) (*Totals, error) {
	sql := `SELECT COUNT(*), COALESCE(SUM(deleted_count), 0), COALESCE(SUM(saved_bytes), 0)
		FROM sync_session_logs WHERE uid = :uid`
	params := []rdsdatatypes.SqlParameter{
		{Name: aws.String("uid"), Value: &rdsdatatypes.FieldMemberStringValue{Value: uid}},
	}

	result, err := c.client.ExecuteStatement(ctx, &rdsdata.ExecuteStatementInput{
		ResourceArn: aws.String(c.clusterARN),
		SecretArn:   aws.String(c.secretARN),
		Database:    aws.String(c.database),
		Sql:         aws.String(sql),
		Parameters:  params,
	})
	if err != nil {
		log.Error().Err(err).Str("uid", uid).Msg("UserTotals failed")
		return nil, fmt.Errorf("UserTotals: %w", err)
	}
	if len(result.Records) == 0 {
		return &Totals{}, nil
	}

	totals, err := totalsFromRecord(result.Records[0])
	if err != nil {
		return nil, fmt.Errorf("UserTotals: %w", err)
	}
	return totals, nil
}

// totalsFromRecord decodes the COUNT/SUM row. Aggregates over bigint come
// back as long values; SUM may widen to a decimal string on overflow-safe
// drivers, so both field shapes are accepted.
func totalsFromRecord(rec []rdsdatatypes.Field) (*Totals, error) {
	if len(rec) < 3 {
		return nil, fmt.Errorf("expected 3 columns, got %d", len(rec))
	}

	vals := make([]int64, 3)
	for i := 0; i < 3; i++ {
		switch v := rec[i].(type) {
		case *rdsdatatypes.FieldMemberLongValue:
			vals[i] = v.Value
		case *rdsdatatypes.FieldMemberStringValue:
			var parsed int64
			if _, err := fmt.Sscan(v.Value, &parsed); err != nil {
				return nil, fmt.Errorf("column %d: parse %q: %w", i, v.Value, err)
			}
			vals[i] = parsed
		case *rdsdatatypes.FieldMemberIsNull:
			vals[i] = 0
		default:
			return nil, fmt.Errorf("column %d: unexpected field type %T", i, v)
		}
	}

	return &Totals{
		SessionCount: vals[0],
		DeletedCount: vals[1],
		SavedBytes:   vals[2],
	}, nil
}

// EnsureSchema creates the history tables if they do not exist. Gated
// behind an environment flag at startup; normal invocations skip it.
func (c *Client) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sync_session_logs (
			uid VARCHAR(36) NOT NULL,
			session_id VARCHAR(64) NOT NULL,
			mode SMALLINT NOT NULL DEFAULT 0,
			kept_count INT NOT NULL DEFAULT 0,
			deleted_count INT NOT NULL DEFAULT 0,
			favorite_count INT NOT NULL DEFAULT 0,
			saved_bytes BIGINT NOT NULL DEFAULT 0,
			start_time TIMESTAMPTZ,
			end_time TIMESTAMPTZ,
			device_id VARCHAR(64),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (uid, session_id)
		)`,
		`CREATE TABLE IF NOT EXISTS sync_photo_actions (
			uid VARCHAR(36) NOT NULL,
			photo_md5 CHAR(32) NOT NULL,
			action_type SMALLINT NOT NULL,
			action_source VARCHAR(16) NOT NULL DEFAULT 'ANDROID',
			session_id VARCHAR(64),
			size_bytes BIGINT NOT NULL DEFAULT 0,
			action_time TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (uid, photo_md5)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_photo_actions_session ON sync_photo_actions (uid, session_id)`,
	}

	for _, sql := range statements {
		if err := c.exec(ctx, sql, nil); err != nil {
			return fmt.Errorf("EnsureSchema: %w", err)
		}
	}

	log.Info().Str("database", c.database).Msg("Aurora schema ensured")
	return nil
}

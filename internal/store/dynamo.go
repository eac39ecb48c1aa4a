package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

// DynamoDB key constants for the single-table design.
const (
	userPKPrefix  = "USER#"
	phonePKPrefix = "PHONE#"
	configPK      = "CONFIG"
	activityPK    = "ACTIVITY#aurora"

	skProfile  = "PROFILE"
	skLookup   = "LOOKUP"
	skAction   = "ACTION#"
	skSession  = "SESSION#"
	skJob      = "JOB#"
	skConfig   = "KEY#"
	skActivity = "lastActivity"

	// maxBatchWrite is the DynamoDB BatchWriteItem limit per call.
	maxBatchWrite = 25
)

// DynamoStore implements Store using AWS DynamoDB.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

// Compile-time interface check.
var _ Store = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoStore for the given table.
// The client should be initialized from the shared AWS config.
func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
	}
}

// --- Internal helpers ---

// userPK returns the partition key for a user's records.
func userPK(uid string) string {
	return userPKPrefix + uid
}

// phonePK returns the partition key for a phone lookup record.
func phonePK(phone string) string {
	return phonePKPrefix + phone
}

// putItem marshals a domain object and writes it to DynamoDB with PK and SK.
// A non-zero ttl adds an expiresAt attribute for DynamoDB TTL deletion.
// The domain object should use dynamodbav:"-" for fields derived from PK/SK.
func (s *DynamoStore) putItem(ctx context.Context, pk, sk string, data interface{}, ttl time.Duration) error {
	item, err := attributevalue.MarshalMap(data)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	// Add key and TTL attributes (overwrite any conflicting keys from the data).
	item["PK"] = &types.AttributeValueMemberS{Value: pk}
	item["SK"] = &types.AttributeValueMemberS{Value: sk}
	if ttl > 0 {
		expires := time.Now().Add(ttl).Unix()
		item["expiresAt"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expires, 10)}
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem PK=%s SK=%s: %w", pk, sk, err)
	}
	return nil
}

// getItem reads a single item from DynamoDB and unmarshals it into out.
// Returns false if the item does not exist (out is not modified).
func (s *DynamoStore) getItem(ctx context.Context, pk, sk string, out interface{}) (bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return false, fmt.Errorf("GetItem PK=%s SK=%s: %w", pk, sk, err)
	}
	if result.Item == nil {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return false, fmt.Errorf("unmarshal PK=%s SK=%s: %w", pk, sk, err)
	}
	return true, nil
}

// queryBySKPrefix queries all items under a partition where SK begins with
// the given prefix. Returns raw DynamoDB items for flexible processing.
func (s *DynamoStore) queryBySKPrefix(ctx context.Context, pk, skPrefix string) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :skPrefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":       &types.AttributeValueMemberS{Value: pk},
			":skPrefix": &types.AttributeValueMemberS{Value: skPrefix},
		},
	}

	var allItems []map[string]types.AttributeValue

	// Handle pagination — DynamoDB returns up to 1MB per Query call.
	for {
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("Query PK=%s SK prefix=%s: %w", pk, skPrefix, err)
		}
		allItems = append(allItems, result.Items...)

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return allItems, nil
}

// batchPutItems writes multiple pre-marshaled items, handling DynamoDB's
// 25-item-per-batch limit automatically.
func (s *DynamoStore) batchPutItems(ctx context.Context, items []map[string]types.AttributeValue) error {
	for i := 0; i < len(items); i += maxBatchWrite {
		end := i + maxBatchWrite
		if end > len(items) {
			end = len(items)
		}

		var requests []types.WriteRequest
		for _, item := range items[i:end] {
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		_, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.tableName: requests,
			},
		})
		if err != nil {
			return fmt.Errorf("BatchWriteItem put (%d items): %w", len(requests), err)
		}

		// Note: UnprocessedItems are not retried here. With PAY_PER_REQUEST
		// billing and low throughput, unprocessed items are extremely rare,
		// and action writes are retried wholesale by the client on failure.
	}
	return nil
}

// --- User operations ---

func (s *DynamoStore) CreateUser(ctx context.Context, user *User) (string, error) {
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	// Claim the phone first. The conditional write makes concurrent first
	// logins converge on a single uid.
	lookup := map[string]types.AttributeValue{
		"PK":  &types.AttributeValueMemberS{Value: phonePK(user.Phone)},
		"SK":  &types.AttributeValueMemberS{Value: skLookup},
		"uid": &types.AttributeValueMemberS{Value: user.UID},
	}
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.tableName,
		Item:                lookup,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			existing, lookupErr := s.GetUIDByPhone(ctx, user.Phone)
			if lookupErr != nil {
				return "", fmt.Errorf("phone already claimed, lookup failed: %w", lookupErr)
			}
			log.Debug().Str("uid", existing).Msg("Concurrent signup, reusing existing user")
			return existing, nil
		}
		return "", fmt.Errorf("claim phone lookup: %w", err)
	}

	if err := s.putItem(ctx, userPK(user.UID), skProfile, user, 0); err != nil {
		return "", fmt.Errorf("put user %s: %w", user.UID, err)
	}

	log.Info().Str("uid", user.UID).Msg("User created")
	return user.UID, nil
}

func (s *DynamoStore) GetUser(ctx context.Context, uid string) (*User, error) {
	var user User
	found, err := s.getItem(ctx, userPK(uid), skProfile, &user)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", uid, err)
	}
	if !found {
		return nil, nil
	}

	user.UID = uid
	return &user, nil
}

func (s *DynamoStore) GetUIDByPhone(ctx context.Context, phone string) (string, error) {
	var lookup struct {
		UID string `dynamodbav:"uid"`
	}
	found, err := s.getItem(ctx, phonePK(phone), skLookup, &lookup)
	if err != nil {
		return "", fmt.Errorf("get phone lookup: %w", err)
	}
	if !found {
		return "", nil
	}
	return lookup.UID, nil
}

func (s *DynamoStore) TouchLastLogin(ctx context.Context, uid string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(uid)},
			"SK": &types.AttributeValueMemberS{Value: skProfile},
		},
		UpdateExpression: aws.String("SET lastLoginAt = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberN{Value: strconv.FormatInt(time.Now().Unix(), 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("touch last login %s: %w", uid, err)
	}
	return nil
}

func (s *DynamoStore) SetPro(ctx context.Context, uid string, isPro bool, expiresAt int64) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(uid)},
			"SK": &types.AttributeValueMemberS{Value: skProfile},
		},
		UpdateExpression:    aws.String("SET isPro = :p, proExpireAt = :e"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberBOOL{Value: isPro},
			":e": &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt, 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("set pro %s: %w", uid, err)
	}

	log.Info().Str("uid", uid).Bool("isPro", isPro).Msg("Pro entitlement updated")
	return nil
}

func (s *DynamoStore) AddTotals(ctx context.Context, uid string, savedBytes, deletedCount int64) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(uid)},
			"SK": &types.AttributeValueMemberS{Value: skProfile},
		},
		UpdateExpression:    aws.String("ADD totalSavedBytes :s, totalDeletedCount :d"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberN{Value: strconv.FormatInt(savedBytes, 10)},
			":d": &types.AttributeValueMemberN{Value: strconv.FormatInt(deletedCount, 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("add totals %s: %w", uid, err)
	}
	return nil
}

// --- Photo action operations ---

func (s *DynamoStore) PutActions(ctx context.Context, uid string, actions []PhotoAction) error {
	if len(actions) == 0 {
		return nil
	}

	pk := userPK(uid)
	items := make([]map[string]types.AttributeValue, 0, len(actions))
	for i := range actions {
		item, err := attributevalue.MarshalMap(&actions[i])
		if err != nil {
			return fmt.Errorf("marshal action %s: %w", actions[i].PhotoID, err)
		}
		item["PK"] = &types.AttributeValueMemberS{Value: pk}
		item["SK"] = &types.AttributeValueMemberS{Value: skAction + actions[i].PhotoID}
		items = append(items, item)
	}

	if err := s.batchPutItems(ctx, items); err != nil {
		return fmt.Errorf("put actions for %s: %w", uid, err)
	}

	log.Debug().
		Str("uid", uid).
		Int("actions", len(actions)).
		Msg("Photo actions persisted")
	return nil
}

func (s *DynamoStore) GetActions(ctx context.Context, uid string) ([]PhotoAction, error) {
	items, err := s.queryBySKPrefix(ctx, userPK(uid), skAction)
	if err != nil {
		return nil, fmt.Errorf("get actions for %s: %w", uid, err)
	}

	actions := make([]PhotoAction, 0, len(items))
	for _, item := range items {
		var action PhotoAction
		if err := attributevalue.UnmarshalMap(item, &action); err != nil {
			log.Warn().Err(err).Str("uid", uid).Msg("Failed to unmarshal photo action, skipping")
			continue
		}

		// Extract photo ID from SK: "ACTION#abc123..." -> "abc123..."
		if skAttr, ok := item["SK"].(*types.AttributeValueMemberS); ok {
			action.PhotoID = strings.TrimPrefix(skAttr.Value, skAction)
		}

		actions = append(actions, action)
	}

	return actions, nil
}

// --- Session log operations ---

func (s *DynamoStore) PutSessionLog(ctx context.Context, uid string, rec *SessionLog) error {
	sk := skSession + rec.SessionID
	if err := s.putItem(ctx, userPK(uid), sk, rec, SessionLogTTL); err != nil {
		return fmt.Errorf("put session log %s/%s: %w", uid, rec.SessionID, err)
	}

	log.Debug().
		Str("uid", uid).
		Str("sessionId", rec.SessionID).
		Int("mode", rec.Mode).
		Int("deleted", rec.DeletedCount).
		Int64("savedBytes", rec.SavedBytes).
		Msg("Session log persisted")
	return nil
}

func (s *DynamoStore) GetSessionLog(ctx context.Context, uid, sessionID string) (*SessionLog, error) {
	var rec SessionLog
	found, err := s.getItem(ctx, userPK(uid), skSession+sessionID, &rec)
	if err != nil {
		return nil, fmt.Errorf("get session log %s/%s: %w", uid, sessionID, err)
	}
	if !found {
		return nil, nil
	}

	rec.SessionID = sessionID
	return &rec, nil
}

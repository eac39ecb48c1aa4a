package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/energy"
)

// Ledger adapts the profile record's currentEnergy attribute to the
// energy.Ledger interface. Consume is conditional on sufficient balance
// so concurrent sessions cannot drive the stored value negative.
type Ledger struct {
	s *DynamoStore
}

// Compile-time interface check.
var _ energy.Ledger = (*Ledger)(nil)

// Ledger returns the energy ledger backed by this store.
func (s *DynamoStore) Ledger() *Ledger {
	return &Ledger{s: s}
}

func (l *Ledger) Current(ctx context.Context, uid string) (int64, error) {
	var profile struct {
		CurrentEnergy int64 `dynamodbav:"currentEnergy"`
	}
	found, err := l.s.getItem(ctx, userPK(uid), skProfile, &profile)
	if err != nil {
		return 0, fmt.Errorf("get energy for %s: %w", uid, err)
	}
	if !found {
		return 0, fmt.Errorf("get energy: user %s not found", uid)
	}
	return profile.CurrentEnergy, nil
}

func (l *Ledger) Consume(ctx context.Context, uid string, n int64) error {
	_, err := l.s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &l.s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(uid)},
			"SK": &types.AttributeValueMemberS{Value: skProfile},
		},
		UpdateExpression:    aws.String("SET currentEnergy = currentEnergy - :n"),
		ConditionExpression: aws.String("attribute_exists(PK) AND currentEnergy >= :n"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n": &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)},
		},
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return fmt.Errorf("consume %d energy for %s: %w", n, uid, energy.ErrInsufficient)
		}
		return fmt.Errorf("consume %d energy for %s: %w", n, uid, err)
	}

	log.Debug().Str("uid", uid).Int64("consumed", n).Msg("Energy consumed")
	return nil
}

func (l *Ledger) Restore(ctx context.Context, uid string, n int64) error {
	_, err := l.s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &l.s.tableName,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(uid)},
			"SK": &types.AttributeValueMemberS{Value: skProfile},
		},
		UpdateExpression:    aws.String("SET currentEnergy = currentEnergy + :n"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n": &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("restore %d energy for %s: %w", n, uid, err)
	}

	log.Debug().Str("uid", uid).Int64("restored", n).Msg("Energy restored")
	return nil
}

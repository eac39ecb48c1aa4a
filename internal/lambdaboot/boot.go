// Package lambdaboot provides shared Lambda cold-start bootstrap logic.
//
// Every Lambda in the project needs some subset of: AWS config, S3, DynamoDB,
// SSM parameter fetch, and startup logging. This package extracts the common
// init patterns so each Lambda's init() is a short composition of helpers.
package lambdaboot

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/logging"
	"github.com/cozyclean/blitz/internal/store"
)

// AWSClients holds the core AWS SDK clients used across Lambdas.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// S3Clients holds S3 client, presigner, and bucket name.
type S3Clients struct {
	Client    *s3.Client
	Presigner *s3.PresignClient
	Bucket    string
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// InitS3 creates an S3 client, presigner, and reads the bucket name from the
// given environment variable. Fatals if the env var is empty.
func InitS3(cfg aws.Config, bucketEnvVar string) S3Clients {
	client := s3.NewFromConfig(cfg)
	bucket := os.Getenv(bucketEnvVar)
	if bucket == "" {
		log.Fatal().Str("envVar", bucketEnvVar).Msg("Bucket environment variable is required")
	}
	return S3Clients{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
	}
}

// InitDynamo creates the single-table store from the given config and table
// name environment variable. Fatals if the env var is empty.
func InitDynamo(cfg aws.Config, tableEnvVar string) *store.DynamoStore {
	tableName := os.Getenv(tableEnvVar)
	if tableName == "" {
		log.Fatal().Str("envVar", tableEnvVar).Msg("DynamoDB table environment variable is required")
	}
	ddbClient := dynamodb.NewFromConfig(cfg)
	return store.NewDynamoStore(ddbClient, tableName)
}

// InitDynamoOptional creates the store if the env var is set. Returns nil
// (with a warning) if not configured.
func InitDynamoOptional(cfg aws.Config, tableEnvVar string) *store.DynamoStore {
	tableName := os.Getenv(tableEnvVar)
	if tableName == "" {
		log.Warn().Str("envVar", tableEnvVar).Msg("DynamoDB table not set — store disabled")
		return nil
	}
	ddbClient := dynamodb.NewFromConfig(cfg)
	return store.NewDynamoStore(ddbClient, tableName)
}

// loadParameter fetches one SSM parameter, timing the call.
func loadParameter(ssmClient *ssm.Client, paramName string, decrypt bool) (string, error) {
	ssmStart := time.Now()
	result, err := ssmClient.GetParameter(context.Background(), &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(decrypt),
	})
	if err != nil {
		return "", err
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("Parameter loaded from SSM")
	return *result.Parameter.Value, nil
}

// LoadJWTSecret returns the token signing secret: BLITZ_JWT_SECRET env var
// for local runs, SSM Parameter Store in deployed stacks. Fatals when
// neither is available because the API cannot authenticate without it.
func LoadJWTSecret(ssmClient *ssm.Client) string {
	if secret := os.Getenv("BLITZ_JWT_SECRET"); secret != "" {
		return secret
	}
	paramName := os.Getenv("SSM_JWT_SECRET_PARAM")
	if paramName == "" {
		paramName = "/cozyclean/prod/jwt-secret"
	}
	secret, err := loadParameter(ssmClient, paramName, true)
	if err != nil {
		log.Fatal().Err(err).Str("param", paramName).Msg("Failed to read JWT secret from SSM")
	}
	return secret
}

// LoadWebhookSecret returns the billing webhook HMAC secret, or "" when not
// configured. Non-fatal: a stack without billing simply rejects webhook
// calls.
func LoadWebhookSecret(ssmClient *ssm.Client) string {
	if secret := os.Getenv("BLITZ_WEBHOOK_SECRET"); secret != "" {
		return secret
	}
	paramName := os.Getenv("SSM_WEBHOOK_SECRET_PARAM")
	if paramName == "" {
		paramName = "/cozyclean/prod/billing-webhook-secret"
	}
	secret, err := loadParameter(ssmClient, paramName, true)
	if err != nil {
		log.Warn().Err(err).Str("param", paramName).Msg("Billing webhook secret not found in SSM — webhook disabled")
		return ""
	}
	return secret
}

// LoadGeminiKey fetches the Gemini API key from SSM Parameter Store if not
// already set via GEMINI_API_KEY env var. Fatals on error.
func LoadGeminiKey(ssmClient *ssm.Client) {
	if os.Getenv("GEMINI_API_KEY") != "" {
		return
	}
	paramName := os.Getenv("SSM_API_KEY_PARAM")
	if paramName == "" {
		paramName = "/cozyclean/prod/gemini-api-key"
	}
	key, err := loadParameter(ssmClient, paramName, true)
	if err != nil {
		log.Fatal().Err(err).Str("param", paramName).Msg("Failed to read Gemini API key from SSM")
	}
	os.Setenv("GEMINI_API_KEY", key)
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}

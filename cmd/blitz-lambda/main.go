// Package main provides the Lambda entry point for the Blitz sync API.
//
// It fronts the phone app's server side behind API Gateway (HTTP API v2):
// phone login, finalized-session sync into DynamoDB with an Aurora mirror,
// runtime config, and dispatch plus polling for the async worker jobs
// (export, poster, best-shot).
//
// Security:
//   - Origin-verify middleware blocks direct API Gateway access (CloudFront-only)
//   - JWT bearer auth on all user routes; uid is taken from the token, never the body
//   - Input validation on uid (UUID), photo IDs (MD5 hex), session IDs, S3 keys
//   - Cryptographically random job IDs prevent enumeration
//   - Billing webhook verified with HMAC-SHA256 over the raw body
//
// Endpoints:
//
//	GET  /health                   — liveness (no auth)
//	POST /api/v1/auth/login        — phone + code login, returns JWT (rate-limited)
//	GET  /api/v1/config            — merged runtime config (no auth)
//	POST /api/v1/sync/upload       — finalized session log + photo actions
//	GET  /api/v1/sync/finalized    — already-synced photo MD5s for pre-filtering
//	GET  /api/v1/user/profile      — profile with lifetime totals
//	GET  /api/v1/user/energy       — energy balance
//	POST /api/v1/export            — dispatch ZIP export job
//	POST /api/v1/poster            — dispatch poster collage job
//	POST /api/v1/bestshot          — dispatch AI best-shot job
//	GET  /api/v1/jobs/{id}         — job status and results
//	POST /api/v1/billing/webhook   — payment provider callback (HMAC)
package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/auth"
	"github.com/cozyclean/blitz/internal/config"
	"github.com/cozyclean/blitz/internal/events"
	"github.com/cozyclean/blitz/internal/lambdaboot"
	"github.com/cozyclean/blitz/internal/logging"
	"github.com/cozyclean/blitz/internal/records"
	"github.com/cozyclean/blitz/internal/store"
	"github.com/cozyclean/blitz/internal/webhook"
)

// Cold-start state shared by the handlers.
var (
	s3Clients  lambdaboot.S3Clients
	blitzStore *store.DynamoStore
	publisher  *events.Publisher

	recordsClient *records.Client // nil when the Aurora mirror is not configured

	lambdaClient    *lambdasvc.Client
	workerLambdaARN string
	sfnClient       *sfn.Client
	exportSfnARN    string

	jwtSecret          []byte
	webhookSecret      string
	originVerifySecret string
	billingWebhook     *webhook.Handler

	loginLimiter *auth.LoginLimiter
	appConfig    config.Config
)

func init() {
	initStart := time.Now()
	logging.Init()

	awsClients := lambdaboot.InitAWS()
	s3Clients = lambdaboot.InitS3(awsClients.Config, "BLITZ_BUCKET_NAME")
	blitzStore = lambdaboot.InitDynamo(awsClients.Config, "BLITZ_TABLE_NAME")
	publisher = events.NewPublisher(eventbridge.NewFromConfig(awsClients.Config), os.Getenv("BLITZ_EVENT_BUS"))

	jwtSecret = []byte(lambdaboot.LoadJWTSecret(awsClients.SSM))
	webhookSecret = lambdaboot.LoadWebhookSecret(awsClients.SSM)
	billingWebhook = webhook.NewHandler(webhookSecret, blitzStore)

	originVerifySecret = os.Getenv("ORIGIN_VERIFY_SECRET")
	if originVerifySecret == "" {
		log.Warn().Msg("ORIGIN_VERIFY_SECRET not set, origin verification disabled")
	}

	lambdaClient = lambdasvc.NewFromConfig(awsClients.Config)
	workerLambdaARN = os.Getenv("WORKER_LAMBDA_ARN")
	if workerLambdaARN == "" {
		log.Warn().Msg("WORKER_LAMBDA_ARN not set, job dispatch disabled")
	}
	exportSfnARN = os.Getenv("EXPORT_SFN_ARN")
	if exportSfnARN != "" {
		sfnClient = sfn.NewFromConfig(awsClients.Config)
	}

	clusterARN := os.Getenv("BLITZ_DB_CLUSTER_ARN")
	secretARN := os.Getenv("BLITZ_DB_SECRET_ARN")
	if clusterARN != "" && secretARN != "" {
		database := os.Getenv("BLITZ_DB_NAME")
		if database == "" {
			database = "cozyclean"
		}
		recordsClient = records.NewClient(rdsdata.NewFromConfig(awsClients.Config), clusterARN, secretARN, database)
		if os.Getenv("BLITZ_ENSURE_SCHEMA") == "1" {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := recordsClient.EnsureSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("Records schema check failed")
			}
			cancel()
		}
	} else {
		log.Warn().Msg("BLITZ_DB_CLUSTER_ARN or BLITZ_DB_SECRET_ARN not set, records mirror disabled")
	}

	loginLimiter = auth.NewLoginLimiter()

	appConfig = config.Default()
	if values, err := blitzStore.ConfigValues(context.Background()); err != nil {
		log.Warn().Err(err).Msg("Runtime config unavailable, using defaults")
	} else {
		appConfig = appConfig.Merge(values)
	}
	appConfig = appConfig.FromEnv()

	boot := lambdaboot.StartupLog("blitz-lambda", initStart).
		S3Bucket("photos", s3Clients.Bucket).
		DynamoTable("main", os.Getenv("BLITZ_TABLE_NAME")).
		LambdaFunc("worker", workerLambdaARN).
		EventBus("app", logging.EnvOrDefault("BLITZ_EVENT_BUS", "default")).
		Feature("originVerify", originVerifySecret != "").
		Feature("recordsMirror", recordsClient != nil).
		Feature("billingWebhook", webhookSecret != "").
		Feature("exportPipeline", exportSfnARN != "").
		Config("loginRateLimit", "3/min").
		Config("initialEnergy", strconv.FormatInt(appConfig.InitialEnergy, 10)).
		Config("decisionCost", strconv.FormatInt(appConfig.DecisionCost, 10)).
		Config("exportExpiryHours", strconv.Itoa(appConfig.ExportExpiryHours))
	if exportSfnARN != "" {
		boot = boot.StateMachine("exportPipeline", exportSfnARN)
	}
	if clusterARN != "" {
		boot = boot.DBCluster("records", clusterARN)
	}
	boot.Log()
}

func main() {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/api/v1/auth/login", handleLogin)
	mux.HandleFunc("/api/v1/config", handleConfig)
	mux.HandleFunc("/api/v1/sync/upload", requireAuth(handleSyncUpload))
	mux.HandleFunc("/api/v1/sync/finalized", requireAuth(handleSyncFinalized))
	mux.HandleFunc("/api/v1/user/profile", requireAuth(handleProfile))
	mux.HandleFunc("/api/v1/user/energy", requireAuth(handleEnergy))
	mux.HandleFunc("/api/v1/export", requireAuth(handleExportStart))
	mux.HandleFunc("/api/v1/poster", requireAuth(handlePosterStart))
	mux.HandleFunc("/api/v1/bestshot", requireAuth(handleBestShotStart))
	mux.HandleFunc("/api/v1/jobs/", requireAuth(handleJobStatus))
	mux.Handle("/api/v1/billing/webhook", billingWebhook)

	handler := withOriginVerify(withMetrics(withRequestLog(withCORS(mux))))

	adapter := httpadapter.NewV2(handler)
	lambda.Start(adapter.ProxyWithContext)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "blitz",
	})
}

package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/lambdaboot"
	"github.com/cozyclean/blitz/internal/logging"
	"github.com/cozyclean/blitz/internal/store"
)

// idleTimeout is how long the Aurora cluster may sit unused before the
// scheduled run stops it. Sync traffic refreshes the activity marker, so
// a busy evening keeps the cluster up and an idle night shuts it down.
const idleTimeout = 2 * time.Hour

var rdsClient *rds.Client
var blitzStore *store.DynamoStore
var clusterARN string

func handler(ctx context.Context) error {
	if clusterARN == "" || blitzStore == nil {
		log.Warn().Msg("AURORA_CLUSTER_ARN or BLITZ_TABLE_NAME not configured, skipping")
		return nil
	}

	lastActivity, err := blitzStore.LastActivity(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read activity marker")
		return err
	}
	if lastActivity.IsZero() {
		log.Info().Msg("No activity marker found, skipping autostop")
		return nil
	}

	idleDuration := time.Since(lastActivity)
	if idleDuration < idleTimeout {
		log.Debug().
			Dur("idleDuration", idleDuration).
			Dur("idleTimeout", idleTimeout).
			Msg("Cluster not idle long enough, skipping")
		return nil
	}

	// Check cluster status and stop if available
	clusterID := clusterARN
	if idx := strings.LastIndex(clusterARN, ":"); idx >= 0 && idx < len(clusterARN)-1 {
		clusterID = clusterARN[idx+1:]
	}

	descOut, err := rdsClient.DescribeDBClusters(ctx, &rds.DescribeDBClustersInput{
		DBClusterIdentifier: aws.String(clusterID),
	})
	if err != nil {
		log.Error().Err(err).Msg("DescribeDBClusters failed")
		return err
	}

	if len(descOut.DBClusters) == 0 {
		log.Warn().Str("clusterId", clusterID).Msg("DB cluster not found")
		return nil
	}

	status := aws.ToString(descOut.DBClusters[0].Status)
	if status != "available" {
		log.Info().Str("status", status).Msg("Cluster not available, skipping stop")
		return nil
	}

	_, err = rdsClient.StopDBCluster(ctx, &rds.StopDBClusterInput{
		DBClusterIdentifier: aws.String(clusterID),
	})
	if err != nil {
		log.Error().Err(err).Msg("StopDBCluster failed")
		return err
	}

	log.Info().
		Str("clusterId", clusterID).
		Dur("idleDuration", idleDuration).
		Msg("Stopped Aurora cluster due to idle timeout")
	return nil
}

func main() {
	logging.Init()

	clients := lambdaboot.InitAWS()
	rdsClient = rds.NewFromConfig(clients.Config)
	blitzStore = lambdaboot.InitDynamoOptional(clients.Config, "BLITZ_TABLE_NAME")
	clusterARN = os.Getenv("AURORA_CLUSTER_ARN")

	lambda.Start(handler)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/rs/zerolog/log"

	"github.com/cozyclean/blitz/internal/jobs"
)

// dispatchJob hands a job to the worker. Export jobs go through the Step
// Functions pipeline when EXPORT_SFN_ARN is configured; everything else
// is a direct async Lambda invoke.
func dispatchJob(ctx context.Context, event map[string]interface{}) error {
	if event["type"] == jobs.TypeExport && sfnClient != nil {
		return startExportPipeline(ctx, event)
	}
	return invokeWorkerAsync(ctx, event)
}

// invokeWorkerAsync sends an event to the worker Lambda with
// InvocationType=Event, so this Lambda returns immediately and the
// client polls the job record for results.
func invokeWorkerAsync(ctx context.Context, event map[string]interface{}) error {
	if lambdaClient == nil || workerLambdaARN == "" {
		log.Warn().Msg("Worker Lambda client not configured")
		return fmt.Errorf("worker lambda not configured")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal worker event: %w", err)
	}

	_, err = lambdaClient.Invoke(ctx, &lambdasvc.InvokeInput{
		FunctionName:   aws.String(workerLambdaARN),
		InvocationType: lambdatypes.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return fmt.Errorf("invoke worker lambda: %w", err)
	}

	log.Debug().
		Str("type", fmt.Sprintf("%v", event["type"])).
		Str("jobId", fmt.Sprintf("%v", event["jobId"])).
		Msg("Worker Lambda invoked asynchronously")
	return nil
}

// startExportPipeline starts the export state machine. The execution
// name is the job ID, so a duplicate dispatch for the same job is
// rejected by Step Functions instead of running twice.
func startExportPipeline(ctx context.Context, event map[string]interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal pipeline input: %w", err)
	}

	jobID := fmt.Sprintf("%v", event["jobId"])
	_, err = sfnClient.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(exportSfnARN),
		Name:            aws.String(jobID),
		Input:           aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("start export pipeline: %w", err)
	}

	log.Debug().Str("jobId", jobID).Msg("Export pipeline execution started")
	return nil
}

// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package workflow_test contains integration tests for the core application
// workflows. This file tests the complete `KeyframeIngestionPipeline`: it
// simulates a Pub/Sub trigger for a video uploaded to the ingest bucket and
// runs the entire chain, which downloads the video, samples it into
// keyframe stills, uploads the stills, persists the video document, and
// refreshes the precomputed feature index.
package workflow_test

import (
	"fmt"
	"log"
	"testing"

	"github.com/avisser/keyframe-search/internal/core/cor"
	"github.com/avisser/keyframe-search/internal/core/workflow"
	test "github.com/avisser/keyframe-search/internal/testutil"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/codes"
)

// TestKeyframeIngestionChain performs an end-to-end integration test of the
// keyframe ingestion workflow. The test's success is determined by whether
// the workflow completes without any errors being recorded in its context.
//
// Inputs:
//   - t: A pointer to the testing.T object, used for logging, error
//     reporting, and assertions.
func TestKeyframeIngestionChain(t *testing.T) {
	// Start a trace span so this test run is visible in Cloud Trace.
	traceCtx, span := tracer.Start(ctx, "keyframe-ingestion-test")
	defer span.End()

	ingestion := workflow.NewKeyframeIngestionPipeline(config, cloudClients)

	// Create a chain of responsibility (cor) context to carry state through
	// the workflow execution.
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(traceCtx)
	// The initial input mimics a real Pub/Sub notification from a GCS event.
	chainCtx.Add(cor.CtxIn, test.GetTestIngestMessageText())

	ingestion.Execute(chainCtx)

	// Print any recorded errors for debugging before asserting.
	for k, err := range chainCtx.GetErrors() {
		fmt.Printf("Error: (%s): %v\n", k, err)
	}

	if chainCtx.HasErrors() {
		span.SetStatus(codes.Error, "failed to execute keyframe ingestion test")
	}

	// Every command in the chain must have executed successfully.
	assert.False(t, chainCtx.HasErrors())

	span.SetStatus(codes.Ok, "passed - keyframe ingestion test")

	// Log the final persisted video document for manual verification.
	log.Println(chainCtx.Get(cor.CtxIn))
}

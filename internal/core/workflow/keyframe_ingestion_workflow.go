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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements
// the keyframe ingestion workflow.
package workflow

import (
	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/avisser/keyframe-search/internal/cloud"
	"github.com/avisser/keyframe-search/internal/core/commands"
	"github.com/avisser/keyframe-search/internal/core/cor"
)

// KeyframeIngestionWorkflow orchestrates the processing of a newly uploaded
// video: sampling it into keyframe stills, publishing the stills to the
// keyframe bucket, recording the video document in BigQuery, and refreshing
// the precomputed feature index the semantic search script answers from.
//
// It is structured as a Chain of Responsibility (cor.Chain) and is triggered
// by a Pub/Sub message announcing a new object in the ingest bucket.
type KeyframeIngestionWorkflow struct {
	cor.BaseCommand
	config         *cloud.Config
	bigqueryClient *bigquery.Client
	storageClient  *storage.Client
	chain          cor.Chain // The underlying chain of commands to be executed.
}

// Execute runs the ingestion workflow by invoking the underlying chain.
//
// Inputs:
//   - context: The chain of responsibility context for this execution.
func (m *KeyframeIngestionWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

// initializeChain builds the sequence of commands that make up this
// workflow. The output of each command is piped to the next, forming a
// processing pipeline. This method is called by the constructor.
func (m *KeyframeIngestionWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())

	// Step 1: Parse the incoming Pub/Sub message (JSON) and extract a
	// structured GCS object reference from it.
	out.AddCommand(commands.NewVideoTriggerToGCSObject("video-trigger-to-gcs-object"))

	// Step 2: Download the video from the ingest bucket to a temporary
	// local file so ffmpeg can read it.
	out.AddCommand(commands.NewGCSToTempFile("gcs-to-temp-file", m.storageClient, "ingest-"))

	// Step 3: Sample the video into evenly spaced keyframe stills with
	// ffmpeg. The result is a KeyframeBatch carrying the still paths and
	// the time span each still covers.
	out.AddCommand(commands.NewKeyframeExtractor(
		"extract-keyframes",
		m.config.Extraction.FfmpegPath,
		m.config.Extraction.IntervalSeconds,
		m.config.Extraction.SourceFPS))

	// Step 4: Upload the stills to the keyframe bucket as
	// `<videoID>/<frameID>.jpg` so the search path can locate them.
	out.AddCommand(commands.NewKeyframeUpload("upload-keyframes", m.storageClient, m.config.Storage.KeyframeBucket))

	// Step 5: Persist the video document, one frame record per still, to
	// the video table. This makes the video visible to ID and keyword
	// search.
	out.AddCommand(commands.NewVideoPersistToBigQuery(
		"write-to-bigquery",
		m.bigqueryClient,
		m.config.BigQueryDataSource.DatasetName,
		m.config.BigQueryDataSource.VideoTable,
		commands.GetKeyframeBatchParameterName()))

	// Step 6: Re-run the feature precompute script over the corpus so the
	// next semantic query sees the new keyframes.
	out.AddCommand(commands.NewPrecomputeFeatures(
		"precompute-features",
		m.config.Inference.Interpreter,
		m.config.Inference.PrecomputeScript,
		m.config.Inference.CorpusRoot))

	// Step 7: Remove the downloaded video and the extracted stills from
	// local disk.
	out.AddCommand(commands.NewTempFileCleanup("cleanup-file-system"))

	m.chain = out
}

// NewKeyframeIngestionPipeline is the constructor for the
// KeyframeIngestionWorkflow. It wires the command chain against the shared
// service clients.
//
// Inputs:
//   - config: The application's overall configuration.
//   - serviceClients: A struct containing initialized clients for GCP services.
//
// Returns:
//   - A pointer to a newly created and fully initialized KeyframeIngestionWorkflow.
func NewKeyframeIngestionPipeline(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients) *KeyframeIngestionWorkflow {
	pipeline := &KeyframeIngestionWorkflow{
		BaseCommand:    *cor.NewBaseCommand("keyframe-ingestion-pipeline"),
		config:         config,
		bigqueryClient: serviceClients.BigQueryClient,
		storageClient:  serviceClients.StorageClient,
	}
	pipeline.initializeChain()
	return pipeline
}

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

// Package main contains the logic for setting up and starting the Pub/Sub
// message listeners. These listeners initiate the backend ingestion workflow
// in response to new video uploads in Google Cloud Storage.
//
// Functions:
//   - SetupListeners: Initializes and starts the listener for the ingest
//     topic, attaching the keyframe ingestion workflow.
package main

import (
	"context"

	"github.com/avisser/keyframe-search/internal/cloud"
	"github.com/avisser/keyframe-search/internal/core/workflow"
)

// SetupListeners configures and starts the background Pub/Sub listeners.
// It creates the keyframe ingestion workflow and attaches it to the ingest
// topic listener.
//
// Inputs:
//   - config: The application's configuration, containing settings for storage, topics, etc.
//   - cloudClients: A struct containing all the initialized Google Cloud service clients.
//   - ctx: The application's root context, used to manage the lifecycle of the listeners.
//
// Outputs:
//   - This function does not return any value. It starts the listeners as background goroutines.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	// The ingest topic carries GCS notifications for new videos in the
	// ingest bucket. The ingestion workflow samples each video into
	// keyframes, uploads them, persists the video document, and refreshes
	// the feature index.
	ingestion := workflow.NewKeyframeIngestionPipeline(config, cloudClients)
	cloudClients.PubSubListeners["IngestTopic"].SetCommand(ingestion)
	cloudClients.PubSubListeners["IngestTopic"].Listen(ctx)
}

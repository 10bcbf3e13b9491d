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

package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/avisser/keyframe-search/internal/cloud"
	"github.com/avisser/keyframe-search/internal/core/services"
)

// StateManager holds the shared components for the application: the loaded
// configuration, the cloud service clients, and the wired search services.
type StateManager struct {
	config        *cloud.Config
	cloud         *cloud.ServiceClients
	searchService *services.SearchService
	blobStore     *services.BlobStore
}

var state = &StateManager{}

// SetupOS points the configuration loader at the local runtime config files.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig loads the application configuration once and caches it.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		// Create a default cloud config and load it from the TOML files.
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState initializes the application state: the cloud clients, the data
// stores, the inference boundary, and the search service that ties them
// together. It also starts the Pub/Sub listeners for the ingestion workflow.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	frameStore := &services.FrameStore{
		BigqueryClient: cloudClients.BigQueryClient,
		DatasetName:    config.BigQueryDataSource.DatasetName,
		VideoTable:     config.BigQueryDataSource.VideoTable,
	}

	state.blobStore = &services.BlobStore{
		StorageClient:  cloudClients.StorageClient,
		IAMClient:      cloudClients.IAMClient,
		SignerEmail:    config.Application.SignerServiceAccountEmail,
		KeyframeBucket: config.Storage.KeyframeBucket,
		VideoBucket:    config.Storage.VideoBucket,
	}

	aggregator := &services.ResultAggregator{
		Blobs:    state.blobStore,
		PoolSize: config.Application.ThreadPoolSize,
	}

	invoker := &services.ScriptInvoker{
		Interpreter:   config.Inference.Interpreter,
		SearchScript:  config.Inference.SearchScript,
		CaptionScript: config.Inference.CaptionScript,
		Timeout:       time.Duration(config.Inference.TimeoutInSeconds) * time.Second,
	}

	// The caption backend is selectable: the local caption script by
	// default, or a hosted Vertex AI model when configured.
	var captioner services.Captioner = invoker
	if config.Captioner.Mode == "vertex" {
		captioner = services.NewGenAICaptioner(cloudClients.AgentModels[config.Captioner.Model])
	}

	state.searchService = &services.SearchService{
		Frames:     frameStore,
		Aggregator: aggregator,
		Invoker:    invoker,
		Captioner:  captioner,
		Extractor:  services.NewKeywordExtractor(services.DefaultVocabulary),
	}

	SetupListeners(config, cloudClients, ctx)
}

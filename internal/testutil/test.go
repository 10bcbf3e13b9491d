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

// Package test provides utility functions and mock data to support the
// application's test suite. It helps in setting up a consistent test
// environment, loading test-specific configurations, and providing sample
// data for workflows and services.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/avisser/keyframe-search/internal/cloud"
)

// StateManager acts as a simple in-memory cache for the application
// configuration during test runs. This prevents reloading the configuration
// files for every test.
type StateManager struct {
	config *cloud.Config
}

// state is a package-level variable that holds the singleton instance of
// StateManager, ensuring that the configuration is loaded only once per
// test run.
var state = &StateManager{}

// HandleErr is a simple test helper function that checks if an error is not
// nil. If an error exists, it fails the test immediately.
//
// Inputs:
//   - err: The error to check.
//   - t: The *testing.T object from the current test.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("Error reading config file: %v", err)
	}
}

// GetTestIngestMessageText returns a hardcoded JSON string that simulates a
// Pub/Sub notification message from Google Cloud Storage for a video
// finalized in the ingest bucket. This mock data is used to test the
// keyframe ingestion workflow trigger.
//
// Returns:
//   - A string containing the JSON payload of a GCS notification.
func GetTestIngestMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "keyframe_ingest_resources/test-video-001.mp4/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/keyframe_ingest_resources/o/test-video-001.mp4",
  "name": "test-video-001.mp4",
  "bucket": "keyframe_ingest_resources",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "259348037",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/keyframe_ingest_resources/o/test-video-001.mp4?generation=1728615848664286&alt=media",
  "metadata": { "touch": "18" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}
`
}

// SetupOS configures the environment variables that the configuration
// loader (`cloud.LoadConfig`) depends on. Setting these directs the loader
// to the test-specific configuration files (e.g. `configs/.env.test.toml`)
// instead of production or development ones.
//
// Returns:
//   - An error if setting any environment variable fails.
func SetupOS() (err error) {
	// Set the directory where the configuration files are located.
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	// The "test" runtime causes the loader to look for ".env.test.toml"
	// overrides.
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration.
// It ensures that the configuration is loaded from TOML files only once and
// is cached for subsequent calls. This is the primary way tests should
// retrieve their configuration.
//
// Returns:
//   - A pointer to the loaded and cached cloud.Config struct.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		// LoadConfig handles the hierarchical loading (base file + test override).
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

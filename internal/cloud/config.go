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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for Google Cloud services, the external inference scripts, keyframe
// extraction, and Pub/Sub topics.
//
// Structs:
//   - BigQueryDataSource: Configuration for the BigQuery dataset and table.
//   - Storage: Configuration for the Google Cloud Storage buckets.
//   - Inference: Paths and limits for the external inference scripts.
//   - CaptionerConfig: Selection of the caption backend.
//   - Extraction: ffmpeg keyframe extraction settings.
//   - VertexAiLLMModel: Configuration for a Vertex AI model.
//   - TopicSubscription: Configuration for a single Pub/Sub subscription.
//   - Config: The top-level struct aggregating everything.
//
// Functions:
//   - NewConfig: A constructor that initializes a new Config with empty maps.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings defines the default content safety thresholds for
// GenAI models. They are non-restrictive: the corpus is trusted input and
// caption output never leaves the operator's own tooling.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// BigQueryDataSource represents the configuration for the corpus dataset.
type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"`     // The name of the BigQuery dataset.
	VideoTable  string `toml:"video_table"` // The table holding video documents.
}

// Storage represents the configuration for storage buckets.
type Storage struct {
	KeyframeBucket    string `toml:"keyframe_bucket"`     // Bucket holding `<videoID>/<frameID>.jpg` keyframe stills.
	VideoBucket       string `toml:"video_bucket"`        // Bucket holding the source video files.
	IngestInputBucket string `toml:"ingest_input_bucket"` // Bucket watched for newly uploaded source videos.
}

// Inference holds the paths and limits for the external inference scripts.
// The scripts own the models; the server only knows their I/O contracts.
type Inference struct {
	Interpreter      string `toml:"interpreter"`        // Interpreter binary, e.g. "/usr/bin/python3".
	SearchScript     string `toml:"search_script"`      // Semantic search script ([path, score] JSON on stdout).
	CaptionScript    string `toml:"caption_script"`     // Caption script (one text line on stdout).
	PrecomputeScript string `toml:"precompute_script"`  // Feature precompute script run after ingestion.
	CorpusRoot       string `toml:"corpus_root"`        // Root directory of the keyframe corpus the scripts index.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // Hard per-invocation timeout.
}

// CaptionerConfig selects the caption backend for image queries.
type CaptionerConfig struct {
	Mode  string `toml:"mode"`  // "script" for the local caption script, "vertex" for a hosted model.
	Model string `toml:"model"` // Key into AgentModels when mode is "vertex".
}

// Extraction configures the ffmpeg keyframe extraction step of the
// ingestion workflow.
type Extraction struct {
	FfmpegPath      string  `toml:"ffmpeg_path"`      // Path to the ffmpeg executable.
	IntervalSeconds float64 `toml:"interval_seconds"` // One still is sampled per interval.
	SourceFPS       float64 `toml:"source_fps"`       // Frame rate assumed for the source files.
}

// VertexAiLLMModel represents the configuration for a Vertex AI model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The name of the Vertex AI model.
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the model.
	Temperature        float32 `toml:"temperature"`         // The temperature parameter.
	TopP               float32 `toml:"top_p"`               // The top_p parameter.
	TopK               float32 `toml:"top_k"`               // The top_k parameter.
	MaxTokens          int32   `toml:"max_tokens"`          // The maximum number of output tokens.
	OutputFormat       string  `toml:"output_format"`       // The desired output MIME type.
	RateLimit          int     `toml:"rate_limit"`          // The rate limit in requests per second.
}

// TopicSubscription represents the configuration for a Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The dead-letter topic, if any.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // The processing timeout in seconds.
}

// Config represents the overall application configuration, loaded from TOML
// files. It is the root container for all other configuration structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name                      string `toml:"name"`                         // The name of the application.
		GoogleProjectId           string `toml:"google_project_id"`            // The Google Cloud project ID.
		GoogleLocation            string `toml:"location"`                     // The Google Cloud location.
		ThreadPoolSize            int    `toml:"thread_pool_size"`             // Worker pool size for parallel blob fetches.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // Service account used for signing GCS URLs.
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`               // Storage bucket configuration.
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"` // Corpus dataset configuration.
	Inference          Inference                    `toml:"inference"`             // External inference script configuration.
	Captioner          CaptionerConfig              `toml:"captioner"`             // Caption backend selection.
	Extraction         Extraction                   `toml:"extraction"`            // Keyframe extraction configuration.
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`   // Pub/Sub subscriptions, keyed by logical name.
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`          // Vertex AI models, keyed by logical name.
}

// NewConfig is a constructor that creates a new, initialized Config. The
// maps must be allocated up front so the TOML loader can populate them.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
	}
}

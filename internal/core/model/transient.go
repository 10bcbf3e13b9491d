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

// Package model defines the core data structures for the application.
// This file, `transient.go`, contains struct definitions for data models that
// only exist in memory while a request or an ingestion workflow is running.
// They are never persisted to the dataset in this form.
package model

// These objects are used in memory via search requests and ingestion
// workflows, but are not persisted to the dataset.

// InferenceHit is one entry of the ranked output of the external semantic
// search process: the keyframe object path it matched and the similarity
// score assigned to it. Hits arrive ordered most relevant first.
type InferenceHit struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// TimeSpan represents a simple time range with a start and end point, both
// formatted HH:MM:SS.mmm. It is used by the ingestion workflow while frame
// segment boundaries are being computed, before they are attached to a Frame.
type TimeSpan struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// KeyframeBatch is the intermediate product of the ffmpeg extraction step:
// the video the stills belong to and the local paths of the extracted files,
// in temporal order. The upload and persist commands consume it.
type KeyframeBatch struct {
	VideoID    string
	FPS        float64
	FramePaths []string
	Spans      []*TimeSpan
}

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
// This file, `video.go`, contains the persistent corpus model: one Video
// document per source video, with an ordered, repeated list of keyframes.
// The same structs are used for BigQuery row scanning (via the `bigquery`
// struct tags) and for the JSON bodies returned by the search API (via the
// `json` tags). Fields that exist only for the lifetime of a single search
// request (the decoded image payload and the match flag) carry a
// `bigquery:"-"` tag so they never leak into the dataset.
package model

// Frame is a single extracted keyframe of a source video. The frame ID
// doubles as the blob-store object name (`<ID>.jpg`), so it must stay unique
// across the corpus even though search-time deduplication is scoped to one
// video at a time.
type Frame struct {
	// ID is the frame identifier, unique within the corpus, and the basename
	// of the keyframe object in the blob store.
	ID string `json:"id" bigquery:"id"`
	// Start is the wall-clock offset of the frame's segment within the source
	// video, formatted HH:MM:SS.mmm.
	Start string `json:"start" bigquery:"start"`
	// End is the wall-clock offset of the end of the frame's segment.
	End string `json:"end" bigquery:"end"`
	// Objects holds the coarse detected-object labels for the frame.
	Objects []string `json:"objects,omitempty" bigquery:"objects"`
	// FineObjects holds the fine-grained detected-object labels.
	FineObjects []string `json:"fine_objects,omitempty" bigquery:"fine_objects"`

	// Image is the raw keyframe bytes, populated on demand during a search
	// pass and serialized to the client as base64. Never persisted.
	Image []byte `json:"image,omitempty" bigquery:"-"`
	// IsMatch is set by the aggregator when the frame satisfied the active
	// search predicate. Never persisted.
	IsMatch bool `json:"is_match" bigquery:"-"`
}

// Video is the top-level corpus document: an identifier, the original frame
// rate of the source file, and the temporally ordered keyframe sequence.
type Video struct {
	ID     string   `json:"id" bigquery:"id"`
	FPS    float64  `json:"fps" bigquery:"fps"`
	Frames []*Frame `json:"frames" bigquery:"frames"`
}

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

// Package model defines the data structures for the application. This file,
// `examples.go`, provides factory functions for hardcoded example instances
// of the corpus model. The test suites use them as canonical fixtures so a
// representative video shape is defined in exactly one place.
package model

// GetExampleFrame creates a sample keyframe with both label vocabularies
// populated.
func GetExampleFrame() *Frame {
	return &Frame{
		ID:          "v7_00010",
		Start:       "00:00:10.000",
		End:         "00:00:12.500",
		Objects:     []string{"dog", "car"},
		FineObjects: []string{"golden retriever", "taxi"},
	}
}

// GetExampleVideo creates a sample two-frame video document in the shape the
// ingestion workflow persists: ordered frames, fps from the source file, and
// no request-scoped fields set.
func GetExampleVideo() *Video {
	return &Video{
		ID:  "v7",
		FPS: 24,
		Frames: []*Frame{
			GetExampleFrame(),
			{
				ID:      "v7_00011",
				Start:   "00:00:12.500",
				End:     "00:00:15.000",
				Objects: []string{"person"},
			},
		},
	}
}

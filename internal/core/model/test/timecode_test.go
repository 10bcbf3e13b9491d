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

// Package model_test contains unit tests for the data models defined in the
// model package. This file tests the timecode conversions used by the
// ingestion workflow when it turns ffmpeg output into frame metadata.
package model_test

import (
	"testing"

	"github.com/avisser/keyframe-search/internal/core/model"
	"github.com/stretchr/testify/assert"
)

// TestFrameToSeconds verifies the frame-number-to-seconds conversion,
// including the guard against a non-positive frame rate.
func TestFrameToSeconds(t *testing.T) {
	// Frame 0 is always offset zero.
	assert.Equal(t, 0.0, model.FrameToSeconds(0, 24))
	// 48 frames at 24 fps is two seconds in.
	assert.Equal(t, 2.0, model.FrameToSeconds(48, 24))
	// 30 frames at 25 fps is 1.2 seconds.
	assert.InDelta(t, 1.2, model.FrameToSeconds(30, 25), 1e-9)
	// A broken frame rate must not divide by zero.
	assert.Equal(t, 0.0, model.FrameToSeconds(100, 0))
}

// TestFormatSeconds verifies the canonical HH:MM:SS.mmm rendering of frame
// segment boundaries.
func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "00:00:00.000", model.FormatSeconds(0))
	assert.Equal(t, "00:00:01.500", model.FormatSeconds(1.5))
	assert.Equal(t, "00:01:05.250", model.FormatSeconds(65.25))
	assert.Equal(t, "01:00:00.000", model.FormatSeconds(3600))
	assert.Equal(t, "02:03:04.000", model.FormatSeconds(2*3600+3*60+4))
	// Negative offsets clamp to zero.
	assert.Equal(t, "00:00:00.000", model.FormatSeconds(-5))
}

// TestNewTimeSpan verifies that a span carries both boundaries in the
// canonical format.
func TestNewTimeSpan(t *testing.T) {
	span := model.NewTimeSpan(10, 12.5)
	assert.Equal(t, "00:00:10.000", span.Start)
	assert.Equal(t, "00:00:12.500", span.End)
}

// TestExampleFixtures sanity-checks the shared example objects other test
// suites build on.
func TestExampleFixtures(t *testing.T) {
	video := model.GetExampleVideo()
	assert.Equal(t, "v7", video.ID)
	assert.Equal(t, 2, len(video.Frames))
	for _, frame := range video.Frames {
		// Frame IDs are prefixed with the video ID by construction.
		assert.Contains(t, frame.ID, video.ID)
	}

	frame := model.GetExampleFrame()
	assert.NotEmpty(t, frame.Objects)
	assert.NotEmpty(t, frame.FineObjects)
}

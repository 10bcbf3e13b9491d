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
// This file, `timecode.go`, holds the conversions between frame numbers,
// seconds, and the HH:MM:SS.mmm wall-clock offsets stored on every Frame.
// The ingestion workflow uses these helpers when it turns raw ffmpeg output
// into persisted frame metadata.
package model

import "fmt"

// FrameToSeconds converts a zero-based frame number of the source video into
// its offset in seconds, given the original frame rate of the file.
func FrameToSeconds(frame int, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(frame) / fps
}

// FormatSeconds renders an offset in seconds as HH:MM:SS.mmm, the canonical
// timestamp format for frame segment boundaries.
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := int(seconds) / 3600
	m := (int(seconds) % 3600) / 60
	s := seconds - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

// NewTimeSpan builds the segment boundaries for a frame from its start and
// end offsets in seconds.
func NewTimeSpan(startSeconds, endSeconds float64) *TimeSpan {
	return &TimeSpan{
		Start: FormatSeconds(startSeconds),
		End:   FormatSeconds(endSeconds),
	}
}

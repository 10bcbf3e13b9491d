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

// Package services_test contains the test suite for the services package.
// This file tests the keyword extraction against the label vocabulary.
package services_test

import (
	"testing"

	"github.com/avisser/keyframe-search/internal/core/model"
	"github.com/avisser/keyframe-search/internal/core/services"
	"github.com/zeebo/assert"
)

// TestKeywordExtraction verifies that free text is reduced to the vocabulary
// labels it mentions, case-insensitively and in vocabulary order.
func TestKeywordExtraction(t *testing.T) {
	extractor := services.NewKeywordExtractor(services.DefaultVocabulary)

	// Labels are matched regardless of the casing in the query.
	out := extractor.Extract("A DOG chasing a Frisbee near a parked car")
	assert.DeepEqual(t, []string{"car", "dog", "frisbee"}, out)

	// Text with no vocabulary labels yields an empty result, not nil
	// semantics the caller has to special-case.
	out = extractor.Extract("an empty hallway")
	assert.Equal(t, 0, len(out))

	// Empty input is a valid query that matches nothing.
	out = extractor.Extract("")
	assert.Equal(t, 0, len(out))

	// A label mentioned several times appears once.
	out = extractor.Extract("dog dog dog")
	assert.DeepEqual(t, []string{"dog"}, out)
}

// TestFrameMatchesKeywords verifies the per-frame label match across both
// the coarse and fine vocabularies.
func TestFrameMatchesKeywords(t *testing.T) {
	frame := model.GetExampleFrame()

	// Coarse label.
	assert.True(t, services.FrameMatchesKeywords(frame, []string{"dog"}))
	// Fine-grained label.
	assert.True(t, services.FrameMatchesKeywords(frame, []string{"taxi"}))
	// Case-insensitive on the stored labels.
	assert.True(t, services.FrameMatchesKeywords(frame, []string{"DOG"}))
	// Unrelated keyword.
	assert.False(t, services.FrameMatchesKeywords(frame, []string{"boat"}))
	// No keywords means no match.
	assert.False(t, services.FrameMatchesKeywords(frame, nil))
}

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
// This file tests the inference boundary: the stdout contract of the
// external scripts, the path normalization applied to their output, and the
// subprocess invoker itself, exercised against small shell script fixtures.
package services_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/avisser/keyframe-search/internal/core/services"
	"github.com/zeebo/assert"
)

// TestParseInferenceOutput verifies the [path, score] JSON contract of the
// semantic search script, including order preservation and the ErrParse
// classification of malformed output.
func TestParseInferenceOutput(t *testing.T) {
	raw := []byte(`[["corpus/v7/v7_00010.jpg", 0.91], ["corpus/v2/v2_00003.jpg", 0.55]]`)
	hits, err := services.ParseInferenceOutput(raw)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(hits))
	// Hits keep the script's ranking order.
	assert.Equal(t, "corpus/v7/v7_00010.jpg", hits[0].Path)
	assert.Equal(t, 0.91, hits[0].Score)
	assert.Equal(t, "corpus/v2/v2_00003.jpg", hits[1].Path)

	// An empty array is a valid "no results" answer.
	hits, err = services.ParseInferenceOutput([]byte(`[]`))
	assert.NoError(t, err)
	assert.Equal(t, 0, len(hits))

	// Anything else is a contract violation, reported as ErrParse.
	for _, bad := range []string{
		`not json`,
		`{"path": "a"}`,
		`[["only-path"]]`,
		`[["path", "not-a-number"]]`,
		`[[0.5, "swapped"]]`,
	} {
		_, err = services.ParseInferenceOutput([]byte(bad))
		assert.Error(t, err)
		assert.True(t, errors.Is(err, services.ErrParse))
	}
}

// TestNormalizePath verifies the cleanup applied to script output paths:
// backslashes become slashes and stray trailing underscores before the
// extension are stripped.
func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "corpus/v7/v7_00010.jpg", services.NormalizePath(`corpus\v7\v7_00010.jpg`))
	assert.Equal(t, "corpus/v7/v7_00010.jpg", services.NormalizePath("corpus/v7/v7_00010_.jpg"))
	assert.Equal(t, "corpus/v7/v7_00010.jpg", services.NormalizePath("corpus/v7/v7_00010.jpg"))
}

// TestSplitFramePath verifies that the video and frame IDs are recovered
// from the last two segments of a normalized corpus path.
func TestSplitFramePath(t *testing.T) {
	videoID, frameID, ok := services.SplitFramePath("corpus/v7/v7_00010.jpg")
	assert.True(t, ok)
	assert.Equal(t, "v7", videoID)
	assert.Equal(t, "v7_00010", frameID)

	// A path without a directory component cannot name a video.
	_, _, ok = services.SplitFramePath("v7_00010.jpg")
	assert.False(t, ok)
}

// writeScript drops an executable shell script fixture into the test's
// temporary directory.
func writeScript(t *testing.T, name string, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestScriptInvoker exercises the subprocess boundary with shell script
// stand-ins for the real inference scripts.
func TestScriptInvoker(t *testing.T) {
	ctx := context.Background()

	search := writeScript(t, "search.sh",
		"#!/bin/sh\necho '[[\"corpus/v7/v7_00010.jpg\", 0.91]]'\n")
	caption := writeScript(t, "caption.sh",
		"#!/bin/sh\necho 'a dog chasing a frisbee'\n")

	invoker := &services.ScriptInvoker{
		Interpreter:   "/bin/sh",
		SearchScript:  search,
		CaptionScript: caption,
		Timeout:       10 * time.Second,
	}

	hits, err := invoker.SemanticSearch(ctx, "dog")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(hits))
	assert.Equal(t, "corpus/v7/v7_00010.jpg", hits[0].Path)

	// Only the first line of caption output counts.
	text, err := invoker.Caption(ctx, "ignored.jpg")
	assert.NoError(t, err)
	assert.Equal(t, "a dog chasing a frisbee", text)
}

// TestScriptInvokerFailure verifies the error classification of a crashing
// script and of one that violates the output contract.
func TestScriptInvokerFailure(t *testing.T) {
	ctx := context.Background()

	crash := writeScript(t, "crash.sh", "#!/bin/sh\nexit 3\n")
	garbage := writeScript(t, "garbage.sh", "#!/bin/sh\necho 'not json'\n")

	invoker := &services.ScriptInvoker{
		Interpreter:   "/bin/sh",
		SearchScript:  crash,
		CaptionScript: crash,
		Timeout:       10 * time.Second,
	}

	// A non-zero exit is an inference failure.
	_, err := invoker.SemanticSearch(ctx, "dog")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrInference))

	// A clean exit with malformed output is a parse failure.
	invoker.SearchScript = garbage
	_, err = invoker.SemanticSearch(ctx, "dog")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrParse))
}

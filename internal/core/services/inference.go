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

// Package services contains the business logic for interacting with data
// sources. This file, `inference.go`, defines the boundary to the external
// inference models. The models themselves are opaque: each invocation runs a
// configured script to completion with a single argument and the contract is
// entirely in the process's standard output.
//
// Output contracts:
//   - semantic search: a JSON array of 2-element [path, score] arrays,
//     ordered most relevant first;
//   - captioning: a single trimmed line of generated text.
//
// A non-zero exit or an I/O failure is ErrInference; output that does not
// match the contract is ErrParse. Callers never partially recover from
// either - the whole request fails.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"
	"time"

	"github.com/avisser/keyframe-search/internal/core/model"
)

// Invoker runs the external semantic search model over the keyframe corpus.
type Invoker interface {
	// SemanticSearch ranks corpus keyframes against the free-text query and
	// returns the parsed hits, most relevant first.
	SemanticSearch(ctx context.Context, query string) ([]*model.InferenceHit, error)
}

// Captioner generates a one-line natural language description of an image
// on the local filesystem. Image search feeds the caption back into
// semantic search.
type Captioner interface {
	Caption(ctx context.Context, imagePath string) (string, error)
}

// ScriptInvoker shells out to the inference scripts that own the embedding
// and captioning models. Each call runs one process to completion under a
// hard timeout, since the subprocess is the only unbounded step in a search
// request.
type ScriptInvoker struct {
	Interpreter   string        // Path of the interpreter, e.g. "/usr/bin/python3".
	SearchScript  string        // Script implementing the semantic search contract.
	CaptionScript string        // Script implementing the caption contract.
	Timeout       time.Duration // Hard per-invocation deadline.
}

// run executes one script with a single argument and returns its buffered
// standard output. Stderr passes through to the server's own stderr, which
// keeps model diagnostics visible without mixing them into the contract.
func (s *ScriptInvoker) run(ctx context.Context, script string, arg string) ([]byte, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Interpreter, script, arg)
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInference, path.Base(script), err)
	}
	return stdout.Bytes(), nil
}

// SemanticSearch invokes the search script with the query text and parses
// its ranked [path, score] output.
func (s *ScriptInvoker) SemanticSearch(ctx context.Context, query string) ([]*model.InferenceHit, error) {
	raw, err := s.run(ctx, s.SearchScript, query)
	if err != nil {
		return nil, err
	}
	return ParseInferenceOutput(raw)
}

// Caption invokes the caption script with the image path and returns the
// first non-empty line of its output.
func (s *ScriptInvoker) Caption(ctx context.Context, imagePath string) (string, error) {
	raw, err := s.run(ctx, s.CaptionScript, imagePath)
	if err != nil {
		return "", err
	}
	caption := strings.TrimSpace(string(raw))
	if i := strings.IndexByte(caption, '\n'); i >= 0 {
		caption = strings.TrimSpace(caption[:i])
	}
	if len(caption) == 0 {
		return "", fmt.Errorf("%w: caption output empty", ErrParse)
	}
	return caption, nil
}

// ParseInferenceOutput decodes the semantic search stdout contract: a JSON
// array of 2-element arrays, the first element a string path and the second
// a numeric score. Any deviation from that shape is ErrParse.
func ParseInferenceOutput(raw []byte) ([]*model.InferenceHit, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	out := make([]*model.InferenceHit, 0, len(rows))
	for i, row := range rows {
		if len(row) != 2 {
			return nil, fmt.Errorf("%w: entry %d has %d elements, want 2", ErrParse, i, len(row))
		}
		hit := &model.InferenceHit{}
		if err := json.Unmarshal(row[0], &hit.Path); err != nil {
			return nil, fmt.Errorf("%w: entry %d path: %v", ErrParse, i, err)
		}
		if err := json.Unmarshal(row[1], &hit.Score); err != nil {
			return nil, fmt.Errorf("%w: entry %d score: %v", ErrParse, i, err)
		}
		out = append(out, hit)
	}
	return out, nil
}

// NormalizePath canonicalizes a keyframe object path for equality
// comparison: platform separators collapse to "/", and the repeated
// trailing underscores some frame extractors append before the extension
// are stripped (so "v1/f003__.jpg" and "v1/f003.jpg" compare equal).
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	ext := path.Ext(p)
	if len(ext) == 0 {
		return p
	}
	base := strings.TrimSuffix(p, ext)
	return strings.TrimRight(base, "_") + ext
}

// SplitFramePath derives the video and frame identifiers from a normalized
// hit path following the corpus layout `<root>/<videoID>/<frameID>.jpg`.
// The second return value is false when the path has too few segments.
func SplitFramePath(normalized string) (videoID string, frameID string, ok bool) {
	parts := strings.Split(normalized, "/")
	if len(parts) < 2 {
		return "", "", false
	}
	frameID = strings.TrimSuffix(parts[len(parts)-1], path.Ext(parts[len(parts)-1]))
	videoID = parts[len(parts)-2]
	if len(frameID) == 0 || len(videoID) == 0 {
		return "", "", false
	}
	return videoID, frameID, true
}

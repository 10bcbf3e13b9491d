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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that runs ffmpeg to sample keyframe stills out of a video file.
//
// Logic Flow:
// This command follows the download step in the ingestion workflow. It takes
// the local path of the downloaded video, derives the video ID from the GCS
// object name, and samples one still per configured interval into a
// per-video temporary directory.
//
//  1. Get the local video path from the COR context.
//  2. Derive the video ID from the triggering GCS object's base name.
//  3. Create a temporary output directory for the stills.
//  4. Run ffmpeg with an fps filter so one frame is written per interval,
//     named `<videoID>_00001.jpg`, `<videoID>_00002.jpg`, and so on.
//  5. Collect the written files in order and compute the time span each
//     still covers.
//  6. Publish a `model.KeyframeBatch` to the context for the upload and
//     persist commands.
package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/avisser/keyframe-search/internal/cloud"
	"github.com/avisser/keyframe-search/internal/core/cor"
	"github.com/avisser/keyframe-search/internal/core/model"
)

// Constants used for the ffmpeg keyframe extraction.
const (
	// DefaultExtractArgs is a format string for the ffmpeg command.
	// -analyzeduration 0 -probesize 5000000: faster probing of the input file.
	// -y: overwrite output files without asking.
	// -hide_banner: suppresses the ffmpeg banner.
	// -i %s: the input video file.
	// -vf fps=%s: emits one frame per configured interval.
	// -q:v 2 %s: high-quality JPEG output to the numbered file pattern.
	DefaultExtractArgs = "-analyzeduration 0 -probesize 5000000 -y -hide_banner -i %s -vf fps=%s -q:v 2 %s"
	ExtractDirPrefix   = "keyframes-"
	CommandSeparator   = " "
)

// GetKeyframeBatchParameterName returns the context key under which the
// extraction result is stored for downstream commands.
func GetKeyframeBatchParameterName() string {
	return "__KEYFRAME__BATCH__"
}

// KeyframeExtractor is a command implementation that wraps the execution of
// ffmpeg. It samples a video into evenly spaced JPEG stills, which become
// the searchable keyframes of the corpus.
type KeyframeExtractor struct {
	cor.BaseCommand // Embeds the BaseCommand for common functionality like naming and metrics.
	commandPath     string
	intervalSeconds float64 // Seconds of video covered by each still.
	sourceFPS       float64 // Frame rate recorded on the persisted video document.
}

// NewKeyframeExtractor is the constructor for creating a new KeyframeExtractor.
//
// Inputs:
//   - name: A string name for this command instance, used for logging and telemetry.
//   - commandPath: The file system path to the ffmpeg executable.
//   - intervalSeconds: The sampling interval in seconds; one still per interval.
//   - sourceFPS: The frame rate assumed for the source videos.
//
// Outputs:
//   - *KeyframeExtractor: A pointer to the newly instantiated command.
func NewKeyframeExtractor(name string, commandPath string, intervalSeconds float64, sourceFPS float64) *KeyframeExtractor {
	return &KeyframeExtractor{
		BaseCommand:     *cor.NewBaseCommand(name),
		commandPath:     commandPath,
		intervalSeconds: intervalSeconds,
		sourceFPS:       sourceFPS,
	}
}

// Execute runs ffmpeg against the downloaded video and assembles the
// resulting stills into a KeyframeBatch.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (c *KeyframeExtractor) Execute(context cor.Context) {
	videoPath := context.Get(c.GetInputParam()).(string)

	// The video ID is the triggering object's base name without its
	// extension, e.g. "videos/v7.mp4" becomes "v7".
	original := context.Get(cloud.GetGCSObjectName()).(*cloud.GCSObject)
	videoID := strings.TrimSuffix(filepath.Base(original.Name), filepath.Ext(original.Name))

	outDir, err := os.MkdirTemp("", ExtractDirPrefix)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("could not create extraction dir: %w", err))
		return
	}

	// fps=1/interval emits one frame per interval of video time.
	fpsFilter := fmt.Sprintf("1/%g", c.intervalSeconds)
	outPattern := filepath.Join(outDir, fmt.Sprintf("%s_%%05d.jpg", videoID))
	args := fmt.Sprintf(DefaultExtractArgs, videoPath, fpsFilter, outPattern)
	cmd := exec.Command(c.commandPath, strings.Split(args, CommandSeparator)...)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("error running ffmpeg: %w", err))
		return
	}

	// Collect the stills ffmpeg wrote. The numbered file pattern sorts
	// lexically in temporal order.
	entries, err := os.ReadDir(outDir)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("could not read extraction dir: %w", err))
		return
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			paths = append(paths, filepath.Join(outDir, entry.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("ffmpeg produced no keyframes for video %s", videoID))
		return
	}

	// Each still covers one interval of video time.
	spans := make([]*model.TimeSpan, 0, len(paths))
	for i := range paths {
		start := float64(i) * c.intervalSeconds
		spans = append(spans, model.NewTimeSpan(start, start+c.intervalSeconds))
	}

	batch := &model.KeyframeBatch{
		VideoID:    videoID,
		FPS:        c.sourceFPS,
		FramePaths: paths,
		Spans:      spans,
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	// Track every still for cleanup once the workflow ends.
	for _, p := range paths {
		context.AddTempFile(p)
	}
	context.Add(GetKeyframeBatchParameterName(), batch)
	context.Add(c.GetOutputParam(), batch)
}

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
// final cleanup step of the ingestion workflow.
//
// Logic Flow:
// Earlier commands register every file they write (the downloaded video,
// the extracted stills) with the context's temp-file tracker. Once the
// stills are uploaded and the video document is persisted, nothing on the
// local disk is needed anymore. This command removes the tracked files and
// any per-video extraction directories left behind.
package commands

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/avisser/keyframe-search/internal/core/cor"
)

// TempFileCleanup is a command that removes the local artifacts of a
// completed ingestion run.
type TempFileCleanup struct {
	cor.BaseCommand // Embeds the BaseCommand for common functionality.
}

// NewTempFileCleanup is the constructor for the TempFileCleanup command.
//
// Inputs:
//   - name: A string name for this command instance.
//
// Outputs:
//   - *TempFileCleanup: A pointer to the newly instantiated command.
func NewTempFileCleanup(name string) *TempFileCleanup {
	return &TempFileCleanup{BaseCommand: *cor.NewBaseCommand(name)}
}

// IsExecutable runs the cleanup whenever a Go context is present, even if no
// temp files were tracked.
func (v *TempFileCleanup) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute removes the tracked temporary files and their extraction
// directories.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (v *TempFileCleanup) Execute(context cor.Context) {
	dirs := make(map[string]bool)
	for _, file := range context.GetTempFiles() {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			log.Printf("failed to remove temporary file '%s': %v\n", file, err)
		}
		// Remember the per-video extraction directories so they can be
		// removed once their contents are gone.
		dir := filepath.Dir(file)
		if strings.HasPrefix(filepath.Base(dir), ExtractDirPrefix) {
			dirs[dir] = true
		}
	}
	for dir := range dirs {
		if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
			log.Printf("failed to remove extraction dir '%s': %v\n", dir, err)
		}
	}

	v.GetSuccessCounter().Add(context.GetContext(), 1)
	// Pass the previous output through untouched.
	context.Add(v.GetOutputParam(), context.Get(v.GetInputParam()))
}

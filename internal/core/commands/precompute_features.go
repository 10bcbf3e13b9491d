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
// command that refreshes the precomputed feature index of the external
// semantic search process.
//
// Logic Flow:
// The semantic search script answers queries against a feature file it
// computes ahead of time over the keyframe corpus. After a new video's
// stills land in the corpus, that file is stale. This command re-runs the
// precompute script so the next semantic query sees the new keyframes.
//
//  1. Build the interpreter command line for the precompute script, pointed
//     at the corpus root.
//  2. Run it and wait for completion, passing stderr through for operator
//     visibility.
//  3. A non-zero exit fails the workflow; the message is redelivered and the
//     precompute retried. The script is idempotent over the corpus.
package commands

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/avisser/keyframe-search/internal/core/cor"
)

// PrecomputeFeatures is a command that re-runs the external feature
// extraction script over the keyframe corpus.
type PrecomputeFeatures struct {
	cor.BaseCommand        // Embeds the BaseCommand for common functionality.
	interpreter     string // The interpreter binary, e.g. "/usr/bin/python3".
	script          string // The precompute script path.
	corpusRoot      string // The keyframe corpus directory the script indexes.
}

// NewPrecomputeFeatures is the constructor for the PrecomputeFeatures command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - interpreter: The interpreter binary used to run the script.
//   - script: The path to the precompute script.
//   - corpusRoot: The corpus directory passed to the script.
//
// Outputs:
//   - *PrecomputeFeatures: A pointer to the newly instantiated command.
func NewPrecomputeFeatures(name string, interpreter string, script string, corpusRoot string) *PrecomputeFeatures {
	return &PrecomputeFeatures{
		BaseCommand: *cor.NewBaseCommand(name),
		interpreter: interpreter,
		script:      script,
		corpusRoot:  corpusRoot,
	}
}

// Execute re-runs the feature precompute script.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (c *PrecomputeFeatures) Execute(context cor.Context) {
	cmd := exec.CommandContext(context.GetContext(), c.interpreter, c.script, c.corpusRoot)
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("error running feature precompute: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	// Pass the previous output through untouched.
	context.Add(c.GetOutputParam(), context.Get(c.GetInputParam()))
}

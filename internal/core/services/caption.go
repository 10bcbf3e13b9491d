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
// sources. This file, `caption.go`, provides the Vertex AI implementation of
// the Captioner boundary, for deployments where the caption model is hosted
// instead of shipped as a local script. It honors the same contract as the
// script-backed captioner: one trimmed line of text or a hard failure.
package services

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/avisser/keyframe-search/internal/cloud"
	"github.com/h2non/filetype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

// DefaultCaptionPrompt asks the model for the same kind of output the local
// caption script produces: one literal sentence, no preamble.
const DefaultCaptionPrompt = "Describe the content of this image in one short sentence. " +
	"Respond with the sentence only."

// GenAICaptioner captions images through a rate-limited Vertex AI model.
type GenAICaptioner struct {
	Model              *cloud.QuotaAwareGenerativeAIModel // The quota-aware model wrapper to call.
	Prompt             string                             // Prompt override; DefaultCaptionPrompt when empty.
	inputTokenCounter  metric.Int64Counter                // Counter for prompt tokens used.
	outputTokenCounter metric.Int64Counter                // Counter for response tokens generated.
	retryCounter       metric.Int64Counter                // Counter for retried model calls.
}

// NewGenAICaptioner creates a captioner around the given model and registers
// its token and retry counters.
func NewGenAICaptioner(model *cloud.QuotaAwareGenerativeAIModel) *GenAICaptioner {
	meter := otel.Meter("github.com/avisser/keyframe-search")
	inputTokenCounter, _ := meter.Int64Counter("caption.input.tokens", metric.WithDescription("the number of input tokens used by the caption model"))
	outputTokenCounter, _ := meter.Int64Counter("caption.output.tokens", metric.WithDescription("the number of output tokens generated by the caption model"))
	retryCounter, _ := meter.Int64Counter("caption.retry.count", metric.WithDescription("the number of retried caption model calls"))
	return &GenAICaptioner{
		Model:              model,
		inputTokenCounter:  inputTokenCounter,
		outputTokenCounter: outputTokenCounter,
		retryCounter:       retryCounter,
	}
}

// Caption reads the image from the local filesystem, sends it inline to the
// model, and returns the first line of the generated description.
func (c *GenAICaptioner) Caption(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("%w: reading image %q: %v", ErrInference, imagePath, err)
	}

	mimeType := "image/jpeg"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		mimeType = kind.MIME.Value
	}

	prompt := c.Prompt
	if len(prompt) == 0 {
		prompt = DefaultCaptionPrompt
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
		},
	}}
	text, err := cloud.GenerateMultiModalResponse(ctx,
		c.inputTokenCounter, c.outputTokenCounter, c.retryCounter, 0,
		c.Model, contents)
	if err != nil {
		return "", fmt.Errorf("%w: caption model: %v", ErrInference, err)
	}

	caption := strings.TrimSpace(text)
	if i := strings.IndexByte(caption, '\n'); i >= 0 {
		caption = strings.TrimSpace(caption[:i])
	}
	if len(caption) == 0 {
		return "", fmt.Errorf("%w: caption model returned no text", ErrParse)
	}
	return caption, nil
}

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

// This file implements a decorator around the Generative AI client that adds
// rate limiting on top of the base model. Services like Vertex AI have
// quotas on how many requests you can make per minute; the wrapper keeps the
// application under those limits instead of burning requests into quota
// errors.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: A struct that bundles a model name, its
//     generation config, and a rate limiter.
//
// Functions:
//   - NewQuotaAwareModel: A constructor to create a new instance of the wrapped model.
//   - GenerateContent: An overridden method that intercepts calls to the AI model
//     to enforce the rate limit.
package cloud

import (
	"context"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// QuotaAwareGenerativeAIModel is a decorator that pairs a Vertex AI model
// with a rate limiter. Calls to `GenerateContent` block until the limiter
// grants a token, so callers never have to know the quota exists.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // The generation config applied to every call.
	ModelName               string                       // The name of the Vertex AI model to invoke.
	ModelHandle             *genai.Models                // The handle used to issue the actual API call.
	RateLimit               *rate.Limiter                // Limits request frequency to the configured quota.
}

// NewQuotaAwareModel is a constructor function that creates a new
// QuotaAwareGenerativeAIModel. It takes the generation config, the model
// name and handle, and a rate limit in requests per second.
//
// Inputs:
//   - wrapped: The *genai.GenerateContentConfig applied to every call.
//   - name: The name of the Vertex AI model.
//   - modelHandle: The *genai.Models handle used to issue calls.
//   - requestsPerSecond: The maximum number of API calls allowed per second.
//
// Outputs:
//   - *QuotaAwareGenerativeAIModel: A pointer to the newly created wrapper.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, modelHandle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             modelHandle,
		// Allows a burst of `requestsPerSecond` events and replenishes the
		// token bucket at one token per second.
		RateLimit: rate.NewLimiter(rate.Every(time.Second/1), requestsPerSecond),
	}
}

// GenerateContent calls the underlying model after obtaining a token from
// the rate limiter. Wait blocks until a token is available or the context is
// cancelled, so a burst of concurrent callers is serialized to the quota
// instead of failing.
//
// Inputs:
//   - ctx: The context for the request, honored while waiting on the limiter.
//   - content: The content list of the multi-modal prompt (text, images, etc.).
//
// Outputs:
//   - *genai.GenerateContentResponse: The response from the AI model if successful.
//   - error: An error from the limiter wait or the API call.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}
	return q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
}

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
// initial command in the keyframe ingestion workflow.
//
// Logic Flow:
// This command is the entry point for any workflow triggered by a video being
// uploaded to Google Cloud Storage (GCS). GCS publishes a detailed
// notification message to a Pub/Sub topic when a new object is created or
// updated; this command parses that message.
//
//  1. The command receives the raw Pub/Sub message data as a JSON string from the context.
//  2. It unmarshals this JSON string into a `cloud.GCSPubSubNotification` struct.
//  3. It extracts the essential pieces of information: the bucket name, the
//     object name, and the content type.
//  4. It places a simplified `cloud.GCSObject` back into the context so the
//     rest of the chain can locate the video without understanding the full
//     GCS notification format.
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/avisser/keyframe-search/internal/cloud"

	"github.com/avisser/keyframe-search/internal/core/cor"
)

// VideoTriggerToGCSObject is a command that parses a GCS Pub/Sub notification
// and extracts key file information into a simplified GCSObject.
type VideoTriggerToGCSObject struct {
	cor.BaseCommand // Embeds the BaseCommand for common functionality.
}

// NewVideoTriggerToGCSObject is the constructor for the VideoTriggerToGCSObject command.
//
// Inputs:
//   - name: A string name for this command instance.
//
// Outputs:
//   - *VideoTriggerToGCSObject: A pointer to the newly instantiated command.
func NewVideoTriggerToGCSObject(name string) *VideoTriggerToGCSObject {
	return &VideoTriggerToGCSObject{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute contains the core logic for parsing the GCS notification message.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution, containing
//     the raw message data in the input parameter.
func (c *VideoTriggerToGCSObject) Execute(context cor.Context) {
	// Retrieve the raw JSON message string from the context.
	in := context.Get(c.GetInputParam()).(string)

	var out cloud.GCSPubSubNotification
	err := json.Unmarshal([]byte(in), &out)
	if err != nil {
		// If parsing fails, it's a critical error for the workflow.
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)

	// Distill the notification into the essential fields that downstream
	// commands need.
	msg := &cloud.GCSObject{Bucket: out.Bucket, Name: out.Name, MIMEType: out.ContentType}

	// Make the object available both under the well-known key and as the
	// input for the next command in the chain.
	context.Add(cloud.GetGCSObjectName(), msg)
	context.Add(c.GetOutputParam(), msg)
}

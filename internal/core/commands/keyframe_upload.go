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
// command that uploads extracted keyframe stills to the keyframe bucket.
//
// Logic Flow:
// This command follows the extraction step. It takes the `KeyframeBatch`
// produced by the extractor and streams every still into the keyframe
// bucket, laid out as `<videoID>/<frameID>.jpg` so the search path can
// recover both IDs from the object name alone.
//
//  1. Get the `model.KeyframeBatch` from the COR context.
//  2. For each local still, open it and create a GCS writer for the
//     destination object.
//  3. Stream the file's contents to GCS with `io.Copy`.
//  4. Stop the workflow on the first failed upload; a partially uploaded
//     video is repaired by the Pub/Sub redelivery, since uploads are
//     idempotent.
package commands

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/avisser/keyframe-search/internal/core/cor"
	"github.com/avisser/keyframe-search/internal/core/model"
)

// KeyframeUpload is a command implementation responsible for uploading the
// stills of a KeyframeBatch to the keyframe bucket.
type KeyframeUpload struct {
	cor.BaseCommand                 // Embeds the BaseCommand for common functionality like naming and metrics.
	client          *storage.Client // The GCS client for interacting with the storage service.
	bucket          string          // The name of the destination keyframe bucket.
}

// NewKeyframeUpload is the constructor for creating a new KeyframeUpload command.
//
// Inputs:
//   - name: A string name for this command instance, used for logging and telemetry.
//   - client: An initialized *storage.Client for communicating with GCS.
//   - bucket: The name of the keyframe bucket the stills are written to.
//
// Outputs:
//   - *KeyframeUpload: A pointer to the newly instantiated command.
func NewKeyframeUpload(name string, client *storage.Client, bucket string) *KeyframeUpload {
	return &KeyframeUpload{BaseCommand: *cor.NewBaseCommand(name), client: client, bucket: bucket}
}

// Execute streams each extracted still into the keyframe bucket.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (c *KeyframeUpload) Execute(context cor.Context) {
	batch := context.Get(c.GetInputParam()).(*model.KeyframeBatch)

	writerBucket := c.client.Bucket(c.bucket)
	for _, path := range batch.FramePaths {
		objectName := fmt.Sprintf("%s/%s", batch.VideoID, filepath.Base(path))
		if err := c.uploadOne(context, writerBucket, path, objectName); err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), err)
			return
		}
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	log.Printf("uploaded %d keyframes for video %s to gs://%s", len(batch.FramePaths), batch.VideoID, c.bucket)
	// Pass the batch along unchanged so the persist command can consume it.
	context.Add(c.GetOutputParam(), batch)
}

// uploadOne streams a single local still to the named GCS object.
func (c *KeyframeUpload) uploadOne(context cor.Context, bucket *storage.BucketHandle, path string, objectName string) error {
	dat, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer func(dat *os.File) {
		_ = dat.Close()
	}(dat)

	writer := bucket.Object(objectName).NewWriter(context.GetContext())
	if written, err := io.Copy(writer, dat); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to copy to GCS, %d bytes written: %w", written, err)
	}
	// Closing the writer finalizes the upload; without it the object may
	// not be created or may be incomplete.
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", objectName, err)
	}
	return nil
}

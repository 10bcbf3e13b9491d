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
// command responsible for persisting the video document to BigQuery.
//
// Logic Flow:
// This command is the persistence step of the ingestion workflow. It builds
// a `model.Video` from the extracted KeyframeBatch, with one frame record
// per still carrying the time span the still covers, and inserts it as a
// new row into the video table. That makes the video available to the ID
// and keyword search paths. The label fields start empty and are filled by
// a later labeling pass.
//
//  1. It retrieves the `model.KeyframeBatch` from the context.
//  2. It assembles a `model.Video` with one `model.Frame` per still. The
//     frame ID is the still's file name without the extension, matching the
//     object layout in the keyframe bucket.
//  3. It gets a BigQuery `Inserter`, a streaming client for inserting rows,
//     and uses `Put` to send the video. The client library marshals the
//     struct into table columns via the `bigquery` struct tags.
//  4. It performs error handling and updates telemetry counters.
package commands

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/avisser/keyframe-search/internal/core/cor"
	"github.com/avisser/keyframe-search/internal/core/model"
)

// VideoPersistToBigQuery is a command that saves a Video document to the
// video table.
type VideoPersistToBigQuery struct {
	cor.BaseCommand
	client     *bigquery.Client // The client for interacting with the BigQuery service.
	dataset    string           // The name of the BigQuery dataset.
	table      string           // The name of the video table within the dataset.
	batchParam string           // The context key for the input `model.KeyframeBatch`.
}

// NewVideoPersistToBigQuery is the constructor for the VideoPersistToBigQuery command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - client: An initialized *bigquery.Client.
//   - dataset: The name of the BigQuery dataset.
//   - table: The name of the video table.
//   - batchParam: The name of the context parameter holding the `model.KeyframeBatch`.
//
// Outputs:
//   - *VideoPersistToBigQuery: A pointer to the newly instantiated command.
func NewVideoPersistToBigQuery(name string, client *bigquery.Client, dataset string, table string, batchParam string) *VideoPersistToBigQuery {
	return &VideoPersistToBigQuery{BaseCommand: *cor.NewBaseCommand(name), client: client, dataset: dataset, table: table, batchParam: batchParam}
}

// IsExecutable overrides the default behavior to ensure that the batch to be
// persisted exists in the context before execution.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
//
// Outputs:
//   - bool: True if the KeyframeBatch exists in the context, otherwise false.
func (s *VideoPersistToBigQuery) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(s.batchParam) != nil
}

// Execute assembles the video document and writes it to BigQuery.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (s *VideoPersistToBigQuery) Execute(context cor.Context) {
	log.Println("persisting video document to BigQuery...")

	batch := context.Get(s.batchParam).(*model.KeyframeBatch)

	video := &model.Video{
		ID:     batch.VideoID,
		FPS:    batch.FPS,
		Frames: make([]*model.Frame, 0, len(batch.FramePaths)),
	}
	for i, path := range batch.FramePaths {
		name := filepath.Base(path)
		frame := &model.Frame{
			ID:          strings.TrimSuffix(name, filepath.Ext(name)),
			Objects:     []string{},
			FineObjects: []string{},
		}
		if i < len(batch.Spans) {
			frame.Start = batch.Spans[i].Start
			frame.End = batch.Spans[i].End
		}
		video.Frames = append(video.Frames, frame)
	}

	// The Inserter provides a streaming interface for inserting rows, which
	// is more efficient than individual INSERT statements.
	i := s.client.Dataset(s.dataset).Table(s.table).Inserter()
	if err := i.Put(context.GetContext(), video); err != nil {
		log.Printf("failed to write video to dataset. id %s error %s\n", video.ID, err)
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("bigquery insert failed for video '%s': %w", video.ID, err))
		return
	}

	// On success, update telemetry and pass the video to the next command.
	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, video)
	log.Printf("persisted video document '%s' with %d frames", video.ID, len(video.Frames))
}

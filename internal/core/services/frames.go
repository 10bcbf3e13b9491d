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
// sources. This file, `frames.go`, defines the FrameStore: the read-only
// accessor for video and frame metadata in BigQuery. Image payloads live in
// the blob store; this store only ever sees the document side.
package services

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/avisser/keyframe-search/internal/core/model"
	"google.golang.org/api/iterator"
)

// FrameStore reads video documents from the corpus dataset. It never
// mutates stored metadata; the ingestion workflow is the only writer.
type FrameStore struct {
	BigqueryClient *bigquery.Client // Client for interacting with Google BigQuery.
	DatasetName    string           // The name of the BigQuery dataset (e.g., "keyframe_ds").
	VideoTable     string           // The name of the table holding video documents.
}

// GetFQN (Get Fully Qualified Name) returns the complete, queryable name for
// the videos table, formatted with dots instead of colons.
// Example: `gcp-project-id.keyframe_ds.videos`
func (s *FrameStore) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.VideoTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// Get retrieves a single video document by its identifier. A missing row is
// reported as ErrNotFound; any other query failure is returned as-is for the
// caller to classify.
func (s *FrameStore) Get(ctx context.Context, id string) (*model.Video, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryFindVideoByID, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "id", Value: id}}

	itr, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query video %q: %w", id, err)
	}

	video := &model.Video{}
	err = itr.Next(video)
	if err == iterator.Done {
		return nil, fmt.Errorf("video %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan video %q: %w", id, err)
	}
	return video, nil
}

// FindByKeywords returns every video with at least one frame whose coarse or
// fine-grained label set intersects the keyword set. Matching is at the
// frame level; one matching frame qualifies the whole video. An empty
// keyword set short-circuits to an empty result without touching the store.
func (s *FrameStore) FindByKeywords(ctx context.Context, keywords []string) ([]*model.Video, error) {
	out := make([]*model.Video, 0)
	if len(keywords) == 0 {
		return out, nil
	}

	q := s.BigqueryClient.Query(fmt.Sprintf(QryFindVideosByKeywords, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "keywords", Value: keywords}}

	itr, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query videos by keywords: %w", err)
	}

	for {
		video := &model.Video{}
		err := itr.Next(video)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate keyword results: %w", err)
		}
		out = append(out, video)
	}
	return out, nil
}

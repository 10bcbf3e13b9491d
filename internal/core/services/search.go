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
// sources. This file, `search.go`, defines the SearchService: the router
// that dispatches the four query modes and wires the extractor, the
// inference boundary, the frame store, and the aggregator together.
//
// Modes:
//   - ID lookup: exact video identifier, every frame fetched, none flagged.
//   - Semantic search: the external model ranks keyframes; its hit paths
//     decide which videos are loaded and which frames are flagged.
//   - Keyword search: vocabulary extraction, label matching in the store,
//     match-count ranking, top-15 truncation.
//   - Image search: caption generation first, then the caption is treated
//     exactly like a semantic-search query.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/avisser/keyframe-search/internal/core/model"
)

// VideoFinder is the slice of the frame store the search service needs. The
// BigQuery-backed FrameStore satisfies it in production; tests substitute an
// in-memory double.
type VideoFinder interface {
	Get(ctx context.Context, id string) (*model.Video, error)
	FindByKeywords(ctx context.Context, keywords []string) ([]*model.Video, error)
}

// SearchService routes inbound queries to the right retrieval pipeline and
// hands the candidates to the aggregator. It is safe for concurrent use:
// every field is a read-only handle constructed once at startup.
type SearchService struct {
	Frames     VideoFinder       // Video metadata lookups.
	Aggregator *ResultAggregator // Final dedup/fetch/rank pass.
	Invoker    Invoker           // External semantic search model.
	Captioner  Captioner         // External caption model for image queries.
	Extractor  *KeywordExtractor // Vocabulary matcher for keyword queries.
}

// SearchByID looks up one video by its exact identifier and returns it with
// every keyframe materialized and no match flags set. A missing video is
// surfaced to the caller as ErrNotFound with no partial body.
func (s *SearchService) SearchByID(ctx context.Context, videoID string) (map[string]*model.Video, error) {
	video, err := s.Frames.Get(ctx, videoID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrAggregation, err)
	}

	return s.Aggregator.Aggregate(ctx, []*model.Video{video}, func(_ *model.Video, _ *model.Frame) (bool, bool) {
		return true, false
	})
}

// SearchSemantic runs the external semantic search model over the query and
// assembles the videos its hits point into. The model's own ranking is the
// only ranking: no server-side filtering or truncation is applied beyond
// the identifiers the model returned. Frames are flagged as matches when
// their normalized corpus path equals one of the normalized hit paths;
// every frame of a hit video is fetched either way.
func (s *SearchService) SearchSemantic(ctx context.Context, query string) (map[string]*model.Video, error) {
	hits, err := s.Invoker.SemanticSearch(ctx, query)
	if err != nil {
		return nil, err
	}

	// Index the hits by their video/frame identity, derived from the corpus
	// path convention `<root>/<videoID>/<frameID>.jpg`, and remember each
	// video in order of first appearance.
	matched := make(map[string]bool, len(hits))
	videoIDs := make([]string, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, hit := range hits {
		videoID, frameID, ok := SplitFramePath(NormalizePath(hit.Path))
		if !ok {
			slog.WarnContext(ctx, "ignoring inference hit with unusable path", "path", hit.Path)
			continue
		}
		matched[videoID+"/"+frameID] = true
		if !seen[videoID] {
			seen[videoID] = true
			videoIDs = append(videoIDs, videoID)
		}
	}

	videos := make([]*model.Video, 0, len(videoIDs))
	for _, id := range videoIDs {
		video, err := s.Frames.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// The model's feature index can lag the metadata store; a hit
			// for an unknown video is dropped, not fatal.
			slog.WarnContext(ctx, "inference hit references unknown video", "video", id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAggregation, err)
		}
		videos = append(videos, video)
	}

	return s.Aggregator.Aggregate(ctx, videos, func(v *model.Video, f *model.Frame) (bool, bool) {
		return true, matched[v.ID+"/"+f.ID]
	})
}

// SearchByKeywords extracts vocabulary labels from the query text, loads
// every video with a matching frame, ranks the candidates by match count,
// truncates to the top MaxKeywordResults, and aggregates. Frames whose
// label sets intersect the keyword set are flagged as matches; every frame
// of a surviving video is fetched.
func (s *SearchService) SearchByKeywords(ctx context.Context, text string) (map[string]*model.Video, error) {
	keywords := s.Extractor.Extract(text)

	videos, err := s.Frames.FindByKeywords(ctx, keywords)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAggregation, err)
	}
	ranked := s.Aggregator.RankByKeywords(videos, keywords)

	return s.Aggregator.Aggregate(ctx, ranked, func(_ *model.Video, f *model.Frame) (bool, bool) {
		return true, FrameMatchesKeywords(f, keywords)
	})
}

// SearchByImage is the two-stage image query pipeline: generate a caption
// for the uploaded image, then run that caption through semantic search.
// The generated caption is returned alongside the results so the boundary
// can echo what the corpus was actually searched for. A caption failure
// fails the whole request.
func (s *SearchService) SearchByImage(ctx context.Context, imagePath string) (map[string]*model.Video, string, error) {
	caption, err := s.Captioner.Caption(ctx, imagePath)
	if err != nil {
		return nil, "", err
	}
	slog.InfoContext(ctx, "generated caption for image query", "caption", caption)

	out, err := s.SearchSemantic(ctx, caption)
	return out, caption, err
}

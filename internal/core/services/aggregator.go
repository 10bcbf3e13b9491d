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
// sources. This file, `aggregator.go`, implements the result aggregation
// pass that turns candidate videos into the final annotated response:
// per-video frame deduplication, on-demand keyframe fetching, match
// flagging, and keyword relevance ranking.
//
// Aggregation rules, per candidate video:
//  1. Frames are walked in their original temporal order. A frame identifier
//     already seen for this video is dropped outright - not re-emitted, not
//     re-fetched. The "seen" set is scoped to one video and reset for the
//     next; it never spans videos or requests.
//  2. The match predicate decides per frame whether the keyframe image must
//     be materialized and whether the frame is flagged as a match.
//  3. Keyframe fetches fan out across a bounded worker pool. Results are
//     re-joined by slice position, so output order is the input order of the
//     survivors, never completion order.
//  4. A missing blob drops just that frame, with a logged warning. Any other
//     fetch failure aborts the whole request as ErrAggregation.
//  5. The response is keyed by video identifier; if upstream retrieval
//     yields the same video twice, the later copy overwrites the earlier
//     (overwrite, not merge).
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/avisser/keyframe-search/internal/core/model"
)

// MaxKeywordResults caps the number of videos a keyword search returns after
// ranking.
const MaxKeywordResults = 15

// DefaultFetchPoolSize bounds concurrent keyframe fetches when no pool size
// is configured.
const DefaultFetchPoolSize = 8

// BlobFetcher is the slice of the blob store the aggregator needs. The
// GCS-backed BlobStore satisfies it in production; tests substitute an
// in-memory double.
type BlobFetcher interface {
	Fetch(ctx context.Context, filename string) ([]byte, error)
}

// MatchPredicate decides, for one frame of one candidate video, whether the
// keyframe image must be fetched and whether the frame counts as a match
// for the active search mode.
type MatchPredicate func(video *model.Video, frame *model.Frame) (fetch bool, match bool)

// ResultAggregator assembles the final per-video, per-frame response for a
// single request. It holds no request state itself, so one instance is
// shared by all requests.
type ResultAggregator struct {
	Blobs    BlobFetcher // Source of keyframe image bytes.
	PoolSize int         // Max concurrent blob fetches; DefaultFetchPoolSize when zero.
}

// Aggregate runs one aggregation pass over the candidate videos and returns
// the response collection keyed by video identifier. The input order of
// videos and of frames within each video is preserved among survivors; see
// the package comment for the full rule set.
func (a *ResultAggregator) Aggregate(ctx context.Context, videos []*model.Video, predicate MatchPredicate) (map[string]*model.Video, error) {
	out := make(map[string]*model.Video, len(videos))
	for _, video := range videos {
		if err := a.aggregateVideo(ctx, video, predicate); err != nil {
			return nil, err
		}
		out[video.ID] = video
	}
	return out, nil
}

// aggregateVideo dedupes, fetches, and annotates the frames of one video in
// place, replacing its frame sequence with the filtered result.
func (a *ResultAggregator) aggregateVideo(ctx context.Context, video *model.Video, predicate MatchPredicate) error {
	// Dedup scope is this video only. Frame identifiers are unique across
	// the corpus by naming convention, but the aggregation pass does not
	// rely on that.
	processed := make(map[string]bool, len(video.Frames))

	kept := make([]*model.Frame, 0, len(video.Frames))
	needFetch := make([]bool, 0, len(video.Frames))
	for _, frame := range video.Frames {
		if processed[frame.ID] {
			continue
		}
		processed[frame.ID] = true

		fetch, match := predicate(video, frame)
		frame.IsMatch = match
		kept = append(kept, frame)
		needFetch = append(needFetch, fetch)
	}

	images := make([][]byte, len(kept))
	fetchErrs := make([]error, len(kept))

	poolSize := a.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultFetchPoolSize
	}
	sem := make(chan struct{}, poolSize)
	var wg sync.WaitGroup

	for i, frame := range kept {
		if !needFetch[i] {
			continue
		}
		wg.Add(1)
		// Keyframe objects follow the ingestion layout <videoID>/<frameID>.jpg.
		go func(i int, objectName string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			images[i], fetchErrs[i] = a.Blobs.Fetch(ctx, objectName)
		}(i, video.ID+"/"+frame.ID+".jpg")
	}
	wg.Wait()

	// Re-join in slice order so the output sequence is positional, then
	// filter out the frames whose blobs were missing.
	survivors := make([]*model.Frame, 0, len(kept))
	for i, frame := range kept {
		if err := fetchErrs[i]; err != nil {
			if errors.Is(err, ErrNotFound) {
				slog.WarnContext(ctx, "keyframe blob missing, dropping frame",
					"video", video.ID, "frame", frame.ID)
				continue
			}
			return fmt.Errorf("%w: video %q frame %q: %v", ErrAggregation, video.ID, frame.ID, err)
		}
		frame.Image = images[i]
		survivors = append(survivors, frame)
	}
	video.Frames = survivors
	return nil
}

// RankByKeywords orders candidate videos by how many of their frames carry
// a label from the keyword set, descending, and truncates to the top
// MaxKeywordResults. The sort is stable: videos with equal match counts keep
// the order the store returned them in.
func (a *ResultAggregator) RankByKeywords(videos []*model.Video, keywords []string) []*model.Video {
	type scored struct {
		video *model.Video
		count int
	}
	ranked := make([]scored, 0, len(videos))
	for _, video := range videos {
		ranked = append(ranked, scored{video: video, count: KeywordMatchCount(video, keywords)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].count > ranked[j].count
	})

	if len(ranked) > MaxKeywordResults {
		ranked = ranked[:MaxKeywordResults]
	}
	out := make([]*model.Video, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, s.video)
	}
	return out
}

// KeywordMatchCount returns the number of frames of the video whose label
// sets intersect the keyword set.
func KeywordMatchCount(video *model.Video, keywords []string) int {
	count := 0
	for _, frame := range video.Frames {
		if FrameMatchesKeywords(frame, keywords) {
			count++
		}
	}
	return count
}

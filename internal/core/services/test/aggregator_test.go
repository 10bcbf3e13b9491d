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

// Package services_test contains the test suite for the services package.
// This file tests the aggregation pass: frame deduplication, concurrent
// keyframe fetching against an in-memory blob store, missing-blob handling,
// and keyword ranking.
package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/avisser/keyframe-search/internal/core/model"
	"github.com/avisser/keyframe-search/internal/core/services"
	"github.com/zeebo/assert"
)

// fakeBlobStore is an in-memory BlobFetcher. Unknown object names report
// ErrNotFound like the GCS-backed store; names in failures report the mapped
// error instead.
type fakeBlobStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failures map[string]error
	fetches  []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects:  make(map[string][]byte),
		failures: make(map[string]error),
	}
}

func (f *fakeBlobStore) Fetch(_ context.Context, filename string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, filename)
	if err, ok := f.failures[filename]; ok {
		return nil, err
	}
	data, ok := f.objects[filename]
	if !ok {
		return nil, fmt.Errorf("%w: %s", services.ErrNotFound, filename)
	}
	return data, nil
}

// fetchAll marks every deduped frame for fetch and match.
func fetchAll(_ *model.Video, _ *model.Frame) (bool, bool) {
	return true, true
}

func makeFrame(id string, labels ...string) *model.Frame {
	return &model.Frame{ID: id, Objects: labels, FineObjects: []string{}}
}

// TestAggregateDedupAndFetch verifies that duplicate frame identifiers
// collapse per video, that surviving frames keep their temporal order, and
// that fetched image bytes land on the right frames.
func TestAggregateDedupAndFetch(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.objects["v1/f1.jpg"] = []byte("img-1")
	blobs.objects["v1/f2.jpg"] = []byte("img-2")

	video := &model.Video{
		ID:  "v1",
		FPS: 24,
		Frames: []*model.Frame{
			makeFrame("f1"),
			makeFrame("f2"),
			makeFrame("f1"), // duplicate, dropped before fetch
		},
	}

	agg := &services.ResultAggregator{Blobs: blobs, PoolSize: 2}
	out, err := agg.Aggregate(context.Background(), []*model.Video{video}, fetchAll)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out))

	got := out["v1"]
	assert.NotNil(t, got)
	assert.Equal(t, 2, len(got.Frames))
	assert.Equal(t, "f1", got.Frames[0].ID)
	assert.Equal(t, "f2", got.Frames[1].ID)
	assert.Equal(t, "img-1", string(got.Frames[0].Image))
	assert.Equal(t, "img-2", string(got.Frames[1].Image))
	assert.True(t, got.Frames[0].IsMatch)

	// The duplicate must not have cost a second fetch.
	assert.Equal(t, 2, len(blobs.fetches))
}

// TestAggregateDedupScope verifies that the seen-set resets between videos:
// the same frame identifier in two different videos survives in both.
func TestAggregateDedupScope(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.objects["v1/f1.jpg"] = []byte("a")
	blobs.objects["v2/f1.jpg"] = []byte("b")

	videos := []*model.Video{
		{ID: "v1", Frames: []*model.Frame{makeFrame("f1")}},
		{ID: "v2", Frames: []*model.Frame{makeFrame("f1")}},
	}

	agg := &services.ResultAggregator{Blobs: blobs}
	out, err := agg.Aggregate(context.Background(), videos, fetchAll)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out["v1"].Frames))
	assert.Equal(t, 1, len(out["v2"].Frames))
}

// TestAggregateMissingBlob verifies that a missing keyframe object drops
// only the affected frame while the request succeeds.
func TestAggregateMissingBlob(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.objects["v1/f2.jpg"] = []byte("img-2")
	// v1/f1.jpg intentionally absent.

	video := &model.Video{
		ID:     "v1",
		Frames: []*model.Frame{makeFrame("f1"), makeFrame("f2")},
	}

	agg := &services.ResultAggregator{Blobs: blobs}
	out, err := agg.Aggregate(context.Background(), []*model.Video{video}, fetchAll)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out["v1"].Frames))
	assert.Equal(t, "f2", out["v1"].Frames[0].ID)
}

// TestAggregateFetchFailure verifies that any non-missing fetch error aborts
// the whole request as ErrAggregation.
func TestAggregateFetchFailure(t *testing.T) {
	blobs := newFakeBlobStore()
	blobs.failures["v1/f1.jpg"] = errors.New("transport reset")

	video := &model.Video{ID: "v1", Frames: []*model.Frame{makeFrame("f1")}}

	agg := &services.ResultAggregator{Blobs: blobs}
	_, err := agg.Aggregate(context.Background(), []*model.Video{video}, fetchAll)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrAggregation))
}

// TestAggregateSkipFetch verifies that the predicate can keep a frame in the
// response without materializing its image.
func TestAggregateSkipFetch(t *testing.T) {
	blobs := newFakeBlobStore()

	video := &model.Video{ID: "v1", Frames: []*model.Frame{makeFrame("f1")}}

	agg := &services.ResultAggregator{Blobs: blobs}
	out, err := agg.Aggregate(context.Background(), []*model.Video{video},
		func(_ *model.Video, _ *model.Frame) (bool, bool) { return false, false })
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out["v1"].Frames))
	assert.Nil(t, out["v1"].Frames[0].Image)
	assert.False(t, out["v1"].Frames[0].IsMatch)
	assert.Equal(t, 0, len(blobs.fetches))
}

// keywordVideo builds a video whose first n frames carry the "dog" label.
func keywordVideo(id string, matching int, total int) *model.Video {
	video := &model.Video{ID: id}
	for i := 0; i < total; i++ {
		frame := makeFrame(fmt.Sprintf("%s_%05d", id, i))
		if i < matching {
			frame.Objects = []string{"dog"}
		}
		video.Frames = append(video.Frames, frame)
	}
	return video
}

// TestRankByKeywords verifies descending match-count order, stability among
// ties, and truncation to the result cap.
func TestRankByKeywords(t *testing.T) {
	agg := &services.ResultAggregator{}
	keywords := []string{"dog"}

	videos := []*model.Video{
		keywordVideo("low", 1, 4),
		keywordVideo("high", 3, 4),
		keywordVideo("mid-a", 2, 4),
		keywordVideo("mid-b", 2, 4),
	}

	ranked := agg.RankByKeywords(videos, keywords)
	assert.Equal(t, 4, len(ranked))
	assert.Equal(t, "high", ranked[0].ID)
	// Equal counts keep store order.
	assert.Equal(t, "mid-a", ranked[1].ID)
	assert.Equal(t, "mid-b", ranked[2].ID)
	assert.Equal(t, "low", ranked[3].ID)

	// Truncation to the cap.
	many := make([]*model.Video, 0, services.MaxKeywordResults+5)
	for i := 0; i < services.MaxKeywordResults+5; i++ {
		many = append(many, keywordVideo(fmt.Sprintf("v%02d", i), 1, 2))
	}
	assert.Equal(t, services.MaxKeywordResults, len(agg.RankByKeywords(many, keywords)))
}

// TestKeywordMatchCount verifies the per-video frame match tally.
func TestKeywordMatchCount(t *testing.T) {
	video := keywordVideo("v1", 2, 5)
	assert.Equal(t, 2, services.KeywordMatchCount(video, []string{"dog"}))
	assert.Equal(t, 0, services.KeywordMatchCount(video, []string{"boat"}))
}

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
// This file tests the SearchService routing: each query mode against
// in-memory doubles for the frame store, the blob store, and the inference
// boundary.
package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/avisser/keyframe-search/internal/core/model"
	"github.com/avisser/keyframe-search/internal/core/services"
	"github.com/zeebo/assert"
)

// fakeFrameStore is an in-memory VideoFinder keyed by video identifier.
type fakeFrameStore struct {
	videos map[string]*model.Video
	err    error
}

func (f *fakeFrameStore) Get(_ context.Context, id string) (*model.Video, error) {
	if f.err != nil {
		return nil, f.err
	}
	video, ok := f.videos[id]
	if !ok {
		return nil, fmt.Errorf("%w: video %q", services.ErrNotFound, id)
	}
	return video, nil
}

func (f *fakeFrameStore) FindByKeywords(_ context.Context, keywords []string) ([]*model.Video, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*model.Video, 0, len(f.videos))
	for _, video := range f.videos {
		if services.KeywordMatchCount(video, keywords) > 0 {
			out = append(out, video)
		}
	}
	return out, nil
}

// fakeInvoker returns canned semantic hits or a canned error.
type fakeInvoker struct {
	hits []*model.InferenceHit
	err  error
}

func (f *fakeInvoker) SemanticSearch(_ context.Context, _ string) ([]*model.InferenceHit, error) {
	return f.hits, f.err
}

// fakeCaptioner returns a canned caption or a canned error.
type fakeCaptioner struct {
	caption string
	err     error
}

func (f *fakeCaptioner) Caption(_ context.Context, _ string) (string, error) {
	return f.caption, f.err
}

// corpusVideo builds a two-frame video whose keyframes exist in the given
// blob store.
func corpusVideo(blobs *fakeBlobStore, videoID string, labels ...string) *model.Video {
	video := &model.Video{ID: videoID, FPS: 24}
	for i := 0; i < 2; i++ {
		frame := makeFrame(fmt.Sprintf("%s_%05d", videoID, i+1))
		if i == 0 {
			frame.Objects = labels
		}
		video.Frames = append(video.Frames, frame)
		blobs.objects[fmt.Sprintf("%s/%s.jpg", videoID, frame.ID)] = []byte("img")
	}
	return video
}

func newSearchFixture() (*services.SearchService, *fakeFrameStore, *fakeBlobStore, *fakeInvoker, *fakeCaptioner) {
	blobs := newFakeBlobStore()
	store := &fakeFrameStore{videos: map[string]*model.Video{}}
	store.videos["v1"] = corpusVideo(blobs, "v1", "dog")
	store.videos["v2"] = corpusVideo(blobs, "v2", "car")

	invoker := &fakeInvoker{}
	captioner := &fakeCaptioner{}
	svc := &services.SearchService{
		Frames:     store,
		Aggregator: &services.ResultAggregator{Blobs: blobs},
		Invoker:    invoker,
		Captioner:  captioner,
		Extractor:  services.NewKeywordExtractor(services.DefaultVocabulary),
	}
	return svc, store, blobs, invoker, captioner
}

// TestSearchByID verifies the exact-identifier path: all frames fetched,
// no match flags, missing identifier surfaced as ErrNotFound.
func TestSearchByID(t *testing.T) {
	svc, _, _, _, _ := newSearchFixture()

	out, err := svc.SearchByID(context.Background(), "v1")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out))
	video := out["v1"]
	assert.NotNil(t, video)
	assert.Equal(t, 2, len(video.Frames))
	for _, frame := range video.Frames {
		assert.False(t, frame.IsMatch)
		assert.Equal(t, "img", string(frame.Image))
	}

	_, err = svc.SearchByID(context.Background(), "missing")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

// TestSearchSemantic verifies hit-path resolution: the hit videos are loaded,
// only the frames the model named are flagged, and hits against unknown
// videos are dropped without failing the request.
func TestSearchSemantic(t *testing.T) {
	svc, _, _, invoker, _ := newSearchFixture()
	invoker.hits = []*model.InferenceHit{
		{Path: `corpus\v1\v1_00002_.jpg`, Score: 0.93}, // denormalized on purpose
		{Path: "corpus/gone/gone_00001.jpg", Score: 0.80},
	}

	out, err := svc.SearchSemantic(context.Background(), "a dog")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out))

	video := out["v1"]
	assert.NotNil(t, video)
	assert.Equal(t, 2, len(video.Frames))
	assert.False(t, video.Frames[0].IsMatch)
	assert.True(t, video.Frames[1].IsMatch)
}

// TestSearchSemanticInferenceFailure verifies that a model failure is
// surfaced unchanged, so the boundary can classify it.
func TestSearchSemanticInferenceFailure(t *testing.T) {
	svc, _, _, invoker, _ := newSearchFixture()
	invoker.err = fmt.Errorf("%w: model crashed", services.ErrInference)

	_, err := svc.SearchSemantic(context.Background(), "a dog")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrInference))
}

// TestSearchByKeywords verifies the vocabulary pipeline: only videos with a
// label match come back and their matching frames are flagged.
func TestSearchByKeywords(t *testing.T) {
	svc, _, _, _, _ := newSearchFixture()

	out, err := svc.SearchByKeywords(context.Background(), "show me a DOG running")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out))

	video := out["v1"]
	assert.NotNil(t, video)
	assert.True(t, video.Frames[0].IsMatch)
	assert.False(t, video.Frames[1].IsMatch)

	// No vocabulary label in the text means no candidates.
	out, err = svc.SearchByKeywords(context.Background(), "nothing relevant here")
	assert.NoError(t, err)
	assert.Equal(t, 0, len(out))
}

// TestSearchByImage verifies the two-stage pipeline: the caption drives the
// semantic search and is echoed back to the caller.
func TestSearchByImage(t *testing.T) {
	svc, _, _, invoker, captioner := newSearchFixture()
	captioner.caption = "a dog in a park"
	invoker.hits = []*model.InferenceHit{{Path: "corpus/v1/v1_00001.jpg", Score: 0.88}}

	out, caption, err := svc.SearchByImage(context.Background(), "upload.jpg")
	assert.NoError(t, err)
	assert.Equal(t, "a dog in a park", caption)
	assert.Equal(t, 1, len(out))
	assert.True(t, out["v1"].Frames[0].IsMatch)

	// A caption failure fails the request before any search runs.
	captioner.err = fmt.Errorf("%w: caption output empty", services.ErrParse)
	_, _, err = svc.SearchByImage(context.Background(), "upload.jpg")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrParse))
}

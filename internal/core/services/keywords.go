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
// sources. This file, `keywords.go`, defines the KeywordExtractor: the pure
// text-to-vocabulary matcher behind keyword search. The detector that
// annotated the corpus was trained on the 80 COCO object classes, so that
// list is the default closed vocabulary.
package services

import (
	"strings"

	"github.com/avisser/keyframe-search/internal/core/model"
)

// DefaultVocabulary lists the 80 COCO object-class labels in canonical
// order. Extraction results preserve this ordering.
var DefaultVocabulary = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train",
	"truck", "boat", "traffic light", "fire hydrant", "stop sign",
	"parking meter", "bench", "bird", "cat", "dog", "horse", "sheep", "cow",
	"elephant", "bear", "zebra", "giraffe", "backpack", "umbrella",
	"handbag", "tie", "suitcase", "frisbee", "skis", "snowboard",
	"sports ball", "kite", "baseball bat", "baseball glove", "skateboard",
	"surfboard", "tennis racket", "bottle", "wine glass", "cup", "fork",
	"knife", "spoon", "bowl", "banana", "apple", "sandwich", "orange",
	"broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair",
	"couch", "potted plant", "bed", "dining table", "toilet", "tv",
	"laptop", "mouse", "remote", "keyboard", "cell phone", "microwave",
	"oven", "toaster", "sink", "refrigerator", "book", "clock", "vase",
	"scissors", "teddy bear", "hair drier", "toothbrush",
}

// KeywordExtractor maps free query text onto a fixed, ordered vocabulary of
// object-class labels. Matching is plain case-insensitive substring search:
// no stemming, no fuzziness.
type KeywordExtractor struct {
	vocabulary []string
}

// NewKeywordExtractor creates an extractor over the given vocabulary, or
// over DefaultVocabulary when none is supplied.
func NewKeywordExtractor(vocabulary []string) *KeywordExtractor {
	if len(vocabulary) == 0 {
		vocabulary = DefaultVocabulary
	}
	return &KeywordExtractor{vocabulary: vocabulary}
}

// Extract returns every vocabulary label that occurs as a case-insensitive
// substring of the text, in vocabulary order and without duplicates. Empty
// text yields an empty result. Side-effect-free.
func (e *KeywordExtractor) Extract(text string) []string {
	out := make([]string, 0)
	if len(strings.TrimSpace(text)) == 0 {
		return out
	}
	lowered := strings.ToLower(text)
	for _, label := range e.vocabulary {
		if strings.Contains(lowered, strings.ToLower(label)) {
			out = append(out, label)
		}
	}
	return out
}

// FrameMatchesKeywords reports whether either of a frame's label sets
// intersects the keyword set. Both the coarse and the fine-grained
// vocabulary count.
func FrameMatchesKeywords(frame *model.Frame, keywords []string) bool {
	for _, kw := range keywords {
		for _, label := range frame.Objects {
			if strings.EqualFold(label, kw) {
				return true
			}
		}
		for _, label := range frame.FineObjects {
			if strings.EqualFold(label, kw) {
				return true
			}
		}
	}
	return false
}

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
// sources. This file defines the error kinds the search path reports.
// Callers classify failures with errors.Is and map them to HTTP statuses;
// everything else about the underlying cause stays wrapped inside.
//
// Propagation policy: a missing keyframe blob is recovered locally (the
// frame is dropped from the response with a logged warning); every other
// kind aborts the whole request. Partial results are never returned for an
// aborted request.
package services

import "errors"

var (
	// ErrNotFound reports a missing video document or a missing keyframe
	// blob. For an ID lookup it is surfaced to the caller; for a blob fetch
	// the aggregator recovers by dropping the frame.
	ErrNotFound = errors.New("not found")

	// ErrParse reports malformed output from the external inference process.
	// Fatal to the request.
	ErrParse = errors.New("malformed inference output")

	// ErrInference reports a failed inference invocation: non-zero exit,
	// timeout, or an I/O error talking to the process. Fatal to the request.
	ErrInference = errors.New("inference invocation failed")

	// ErrAggregation reports an unexpected store failure while a result set
	// was being assembled. Fatal to the request.
	ErrAggregation = errors.New("aggregation failed")
)

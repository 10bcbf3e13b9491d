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
// sources. This file, `queries.go`, centralizes the BigQuery SQL used by the
// FrameStore. The queries use a `fmt.Sprintf` verb only for the fully
// qualified table name; every user-supplied value is bound as a query
// parameter.
package services

const (
	// QryFindVideoByID looks up a single video document by its identifier.
	//
	// Placeholders:
	// - `%s`: the fully qualified name of the videos table.
	// - `@id`: the video identifier.
	QryFindVideoByID = "SELECT * FROM `%s` WHERE id = @id"

	// QryFindVideosByKeywords returns every video having at least one frame
	// whose coarse or fine-grained label array intersects the keyword set.
	//
	// How it works:
	// - `UNNEST(v.frames)` flattens the repeated frame records so each frame
	//   can be inspected individually.
	// - The inner `UNNEST(f.objects)` / `UNNEST(f.fine_objects)` clauses test
	//   the two parallel label arrays against the `@keywords` array; a single
	//   matching frame qualifies the whole video.
	// - Results are ordered by video id so retrieval order is deterministic;
	//   relevance ranking happens afterwards in the aggregator.
	//
	// Placeholders:
	// - `%s`: the fully qualified name of the videos table.
	// - `@keywords`: the array of matched vocabulary labels.
	QryFindVideosByKeywords = "SELECT * FROM `%s` v WHERE EXISTS (" +
		"SELECT 1 FROM UNNEST(v.frames) f WHERE " +
		"EXISTS (SELECT 1 FROM UNNEST(f.objects) o WHERE o IN UNNEST(@keywords)) OR " +
		"EXISTS (SELECT 1 FROM UNNEST(f.fine_objects) o WHERE o IN UNNEST(@keywords))" +
		") ORDER BY v.id"
)

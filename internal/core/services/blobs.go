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
// sources. This file, `blobs.go`, defines the BlobStore: the read path to
// the binary side of the corpus in Google Cloud Storage. Keyframe stills are
// addressed by `<videoID>/<frameID>.jpg` in the keyframe bucket; full source
// videos live in a separate bucket and are served to browsers through
// short-lived signed URLs rather than proxied bytes.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
)

// BlobStore resolves blob names against the corpus buckets. All methods are
// read-only and safe for concurrent use; the underlying GCS client handles
// its own connection pooling.
type BlobStore struct {
	StorageClient  *storage.Client                   // Client for interacting with Google Cloud Storage.
	IAMClient      *credentials.IamCredentialsClient // Client for IAM, used to sign streaming URLs.
	SignerEmail    string                            // The service account email used to sign URLs.
	KeyframeBucket string                            // Bucket holding `<videoID>/<frameID>.jpg` stills.
	VideoBucket    string                            // Bucket holding the source video files.
}

// Fetch streams and fully buffers the named keyframe blob. A missing object
// is reported as ErrNotFound so callers can treat it as "skip this frame"
// instead of a request failure.
func (s *BlobStore) Fetch(ctx context.Context, filename string) ([]byte, error) {
	reader, err := s.StorageClient.Bucket(s.KeyframeBucket).Object(filename).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("blob %q: %w", filename, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %q: %w", filename, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %q: %w", filename, err)
	}
	return data, nil
}

// SignedVideoURL creates a time-limited GET URL for a source video object,
// so clients stream straight from the bucket without holding credentials.
// Signing goes through the IAM Credentials API, which avoids distributing
// service account keys with the server.
func (s *BlobStore) SignedVideoURL(ctx context.Context, objectName string, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			}
			resp, err := s.IAMClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}

	u, err := s.StorageClient.Bucket(s.VideoBucket).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", s.VideoBucket, objectName, err)
	}
	return u, nil
}

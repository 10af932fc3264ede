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

// Package services wraps the Google Cloud clients used to fetch evidence
// from Cloud Storage and to hand out browser friendly preview links.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"

	"github.com/prakashgnana97/AI-Image-generaot/internal/cloud"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
)

// MediaService loads media objects from Cloud Storage into local MediaFiles.
type MediaService struct {
	StorageClient *storage.Client
	IAMClient     *credentials.IamCredentialsClient // optional, used with SignerEmail
	SignerEmail   string
	MaxBytes      int64
	PreviewExpiry time.Duration
}

// Load downloads the object into a temporary file and returns a MediaFile
// over it. Releasing the MediaFile removes the file. Objects larger than
// MaxBytes are rejected before any byte is downloaded.
func (s *MediaService) Load(ctx context.Context, obj *cloud.GCSObject) (*model.MediaFile, error) {
	if s.StorageClient == nil {
		return nil, fmt.Errorf("%w: cloud storage is not configured", model.ErrRead)
	}
	handle := s.StorageClient.Bucket(obj.Bucket).Object(obj.Name)

	attrs, err := handle.Attrs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read attributes of %s: %w", model.ErrRead, obj.URI(), err)
	}
	if s.MaxBytes > 0 && attrs.Size > s.MaxBytes {
		return nil, model.ErrFileTooLarge
	}
	contentType := obj.MIMEType
	if contentType == "" {
		contentType = attrs.ContentType
	}

	reader, err := handle.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %w", model.ErrRead, obj.URI(), err)
	}
	defer func(reader *storage.Reader) {
		if err := reader.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close GCS reader", "object", obj.URI(), "error", err)
		}
	}(reader)

	tempFile, err := os.CreateTemp("", "evidence-*"+path.Ext(obj.Name))
	if err != nil {
		return nil, fmt.Errorf("%w: could not create temp file: %w", model.ErrRead, err)
	}
	written, err := io.Copy(tempFile, reader)
	closeErr := tempFile.Close()
	if err = errors.Join(err, closeErr); err != nil {
		_ = os.Remove(tempFile.Name())
		return nil, fmt.Errorf("%w: download of %s failed after %d bytes: %w", model.ErrRead, obj.URI(), written, err)
	}
	slog.DebugContext(ctx, "downloaded evidence", "object", obj.URI(), "file", tempFile.Name(), "bytes", written)

	media, err := model.NewMediaFileFromPath(path.Base(obj.Name), contentType, tempFile.Name())
	if err != nil {
		_ = os.Remove(tempFile.Name())
		return nil, fmt.Errorf("%w: %w", model.ErrRead, err)
	}
	tempPath := tempFile.Name()
	media.OnRelease(func() {
		if err := os.Remove(tempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove downloaded evidence", "file", tempPath, "error", err)
		}
	})

	if s.PreviewExpiry > 0 {
		previewURL, err := s.GenerateSignedURL(ctx, obj, s.PreviewExpiry)
		if err != nil {
			slog.WarnContext(ctx, "preview link unavailable", "object", obj.URI(), "error", err)
		} else {
			media = media.WithPreviewURL(previewURL)
		}
	}
	return media, nil
}

// GenerateSignedURL creates a V4 GET URL for the object. When a signer
// service account is configured the signature is produced by the IAM
// Credentials API, otherwise the storage client's own credentials are used.
func (s *MediaService) GenerateSignedURL(ctx context.Context, obj *cloud.GCSObject, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expires),
	}
	if s.IAMClient != nil && s.SignerEmail != "" {
		opts.GoogleAccessID = s.SignerEmail
		opts.SignBytes = func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			}
			resp, err := s.IAMClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		}
	}
	u, err := s.StorageClient.Bucket(obj.Bucket).SignedURL(obj.Name, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", obj.Bucket, obj.Name, err)
	}
	return u, nil
}

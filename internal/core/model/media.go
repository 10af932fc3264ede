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

// Package model holds the value types that flow through the forensic
// analysis pipeline: the uploaded media, the still frames extracted from it
// and the verdict returned by the generative model.
package model

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MediaType is the coarse classification of an upload.
type MediaType string

const (
	MediaTypeImage MediaType = "IMAGE"
	MediaTypeVideo MediaType = "VIDEO"
)

// MediaTypeOf derives the media type from a declared content type such as
// "image/png" or "video/mp4". The second return value is false for anything
// that is neither an image nor a video.
func MediaTypeOf(contentType string) (MediaType, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return MediaTypeImage, true
	case strings.HasPrefix(ct, "video/"):
		return MediaTypeVideo, true
	default:
		return "", false
	}
}

// Opener returns a fresh reader over the raw payload of a MediaFile.
type Opener func() (io.ReadCloser, error)

// releaser runs a set of cleanup hooks at most once. It is shared between
// copies of a MediaFile so that releasing any copy releases them all.
type releaser struct {
	once  sync.Once
	mu    sync.Mutex
	hooks []func()
}

func (r *releaser) add(hook func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

func (r *releaser) release() {
	r.once.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i := len(r.hooks) - 1; i >= 0; i-- {
			r.hooks[i]()
		}
		r.hooks = nil
	})
}

// MediaFile is a user supplied image or video together with the metadata the
// pipeline needs to route it. The payload is read lazily through Open.
type MediaFile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Type        MediaType `json:"type"`
	PreviewURL  string    `json:"preview_url,omitempty"`

	open     Opener
	releaser *releaser
}

// NewMediaFile creates a media file whose payload is served by open. The ID is
// a name based UUID so the same upload always maps to the same identifier.
func NewMediaFile(name string, contentType string, size int64, open Opener) *MediaFile {
	mediaType, _ := MediaTypeOf(contentType)
	return &MediaFile{
		ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", name, size))).String(),
		Name:        name,
		ContentType: contentType,
		Size:        size,
		Type:        mediaType,
		open:        open,
		releaser:    &releaser{},
	}
}

// NewMediaFileFromBytes wraps an in-memory payload.
func NewMediaFileFromBytes(name string, contentType string, data []byte) *MediaFile {
	return NewMediaFile(name, contentType, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// NewMediaFileFromPath wraps a file on the local disk.
func NewMediaFileFromPath(name string, contentType string, path string) (*MediaFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return NewMediaFile(name, contentType, info.Size(), func() (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}

// Open returns a reader over the payload. Callers must close it.
func (m *MediaFile) Open() (io.ReadCloser, error) {
	if m.open == nil {
		return nil, fmt.Errorf("media file %q has no payload", m.Name)
	}
	return m.open()
}

// WithContentType returns a copy of the media file with a different declared
// content type. Both copies share the payload and the release hooks.
func (m *MediaFile) WithContentType(contentType string) *MediaFile {
	out := *m
	out.ContentType = contentType
	out.Type, _ = MediaTypeOf(contentType)
	return &out
}

// WithPreviewURL returns a copy of the media file with a preview reference.
func (m *MediaFile) WithPreviewURL(previewURL string) *MediaFile {
	out := *m
	out.PreviewURL = previewURL
	return &out
}

// OnRelease registers a hook that runs when the media file is released.
// Hooks run in reverse registration order.
func (m *MediaFile) OnRelease(hook func()) {
	if m.releaser == nil {
		m.releaser = &releaser{}
	}
	m.releaser.add(hook)
}

// Release runs the registered hooks. It is safe to call more than once.
func (m *MediaFile) Release() {
	if m.releaser != nil {
		m.releaser.release()
	}
}

// EncodedFrame is a single still image ready to be sent to the model.
// Data is standard base64 with no data URL prefix.
type EncodedFrame struct {
	MIMEType string        `json:"mime_type"`
	Data     string        `json:"data"`
	Offset   time.Duration `json:"offset,omitempty"`
}

// NewEncodedFrame base64 encodes raw image bytes.
func NewEncodedFrame(mimeType string, raw []byte) EncodedFrame {
	return EncodedFrame{MIMEType: mimeType, Data: base64.StdEncoding.EncodeToString(raw)}
}

// Bytes decodes the frame payload.
func (f EncodedFrame) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Data)
}

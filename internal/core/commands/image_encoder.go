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

package commands

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
)

// EncodeImage reads r to the end and returns its content as a single base64
// frame tagged with contentType. Any read failure is an ErrRead.
func EncodeImage(r io.Reader, contentType string) (model.EncodedFrame, error) {
	var buf bytes.Buffer
	encoder := base64.NewEncoder(base64.StdEncoding, &buf)
	if _, err := io.Copy(encoder, r); err != nil {
		return model.EncodedFrame{}, fmt.Errorf("%w: %w", model.ErrRead, err)
	}
	if err := encoder.Close(); err != nil {
		return model.EncodedFrame{}, fmt.Errorf("%w: %w", model.ErrRead, err)
	}
	return model.EncodedFrame{MIMEType: contentType, Data: buf.String()}, nil
}

// ImageEncoder turns an image upload into the one frame sent to the model.
type ImageEncoder struct{}

// EncodeMedia opens media and encodes its full content with the declared
// content type.
func (ImageEncoder) EncodeMedia(media *model.MediaFile) (model.EncodedFrame, error) {
	reader, err := media.Open()
	if err != nil {
		return model.EncodedFrame{}, fmt.Errorf("%w: %w", model.ErrRead, err)
	}
	defer func() {
		if err := reader.Close(); err != nil {
			slog.Warn("failed to close media reader", "media", media.Name, "error", err)
		}
	}()
	return EncodeImage(reader, media.ContentType)
}

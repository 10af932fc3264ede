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

// Package commands contains the steps of the forensic analysis workflows.
// Each step is a cor.Command; the reusable logic behind a step is also
// exported as a plain function or type so it can be called directly.
package commands

import (
	"fmt"
	"io"

	"github.com/h2non/filetype"

	"github.com/prakashgnana97/AI-Image-generaot/internal/core/cor"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
)

// sniffLength is how many leading bytes filetype needs to recognise a format.
const sniffLength = 261

// ValidateMedia applies the intake rules: the content type must be image/* or
// video/*, and the file must be non-empty and no larger than maxBytes. When no
// content type was declared it is sniffed from the payload. The returned media
// file carries the effective content type.
func ValidateMedia(media *model.MediaFile, maxBytes int64) (*model.MediaFile, error) {
	if media.ContentType == "" {
		sniffed, err := SniffContentType(media)
		if err != nil {
			return nil, err
		}
		media = media.WithContentType(sniffed)
	}

	if _, ok := model.MediaTypeOf(media.ContentType); !ok {
		return nil, fmt.Errorf("content type %q: %w", media.ContentType, model.ErrUnsupportedFormat)
	}
	if maxBytes > 0 && media.Size > maxBytes {
		return nil, fmt.Errorf("%d bytes exceeds %d: %w", media.Size, maxBytes, model.ErrFileTooLarge)
	}
	if media.Size == 0 {
		return nil, model.ErrEmptyFile
	}
	return media, nil
}

// SniffContentType detects the MIME type from the payload's magic bytes. An
// unrecognised payload yields an empty string.
func SniffContentType(media *model.MediaFile) (string, error) {
	reader, err := media.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrRead, err)
	}
	defer reader.Close()

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(reader, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("%w: %w", model.ErrRead, err)
	}
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return "", nil
	}
	return kind.MIME.Value, nil
}

// MediaIntakeValidator is the first step of the analysis workflow. It takes a
// *model.MediaFile and outputs the validated *model.MediaFile.
type MediaIntakeValidator struct {
	cor.BaseCommand
	maxBytes int64
}

func NewMediaIntakeValidator(name string, maxBytes int64) *MediaIntakeValidator {
	return &MediaIntakeValidator{BaseCommand: *cor.NewBaseCommand(name), maxBytes: maxBytes}
}

func (v *MediaIntakeValidator) Execute(context cor.Context) {
	media, ok := context.Get(v.GetInputParam()).(*model.MediaFile)
	if !ok {
		v.Fail(context, fmt.Errorf("%w: expected a media file", model.ErrValidation))
		return
	}
	validated, err := ValidateMedia(media, v.maxBytes)
	if err != nil {
		v.Fail(context, err)
		return
	}
	context.Add(MediaFileParam, validated)
	v.Succeed(context, validated)
}

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
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/prakashgnana97/AI-Image-generaot/internal/core/cor"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
)

// EvidenceExtractor converts a validated media file into the frames sent to
// the model: the image itself for IMAGE, frameCount sampled stills for VIDEO.
//
// Input: *model.MediaFile. Output: []model.EncodedFrame, also stored under
// FramesParam.
type EvidenceExtractor struct {
	cor.BaseCommand
	encoder    ImageEncoder
	sampler    *FrameSampler
	frameCount int
}

func NewEvidenceExtractor(name string, sampler *FrameSampler, frameCount int) *EvidenceExtractor {
	return &EvidenceExtractor{
		BaseCommand: *cor.NewBaseCommand(name),
		sampler:     sampler,
		frameCount:  frameCount,
	}
}

func (e *EvidenceExtractor) Execute(context cor.Context) {
	media, ok := context.Get(e.GetInputParam()).(*model.MediaFile)
	if !ok {
		e.Fail(context, fmt.Errorf("%w: expected a media file", model.ErrValidation))
		return
	}

	var frames []model.EncodedFrame
	switch media.Type {
	case model.MediaTypeImage:
		frame, err := e.encoder.EncodeMedia(media)
		if err != nil {
			e.Fail(context, err)
			return
		}
		frames = []model.EncodedFrame{frame}
	case model.MediaTypeVideo:
		sampled, err := e.sampler.SampleMedia(context.GetContext(), media, e.frameCount)
		if err != nil {
			e.Fail(context, err)
			return
		}
		frames = sampled
	default:
		e.Fail(context, fmt.Errorf("media type %q: %w", media.Type, model.ErrUnsupportedFormat))
		return
	}

	trace.SpanFromContext(context.GetContext()).SetAttributes(
		attribute.String("media.type", string(media.Type)),
		attribute.Int("frames.count", len(frames)),
	)
	context.Add(FramesParam, frames)
	e.Succeed(context, frames)
}

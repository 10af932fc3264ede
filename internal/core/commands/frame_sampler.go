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
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/h2non/filetype"

	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
)

const (
	// FrameMIMEType is the content type of every sampled video frame.
	FrameMIMEType = "image/jpeg"
	// DefaultJPEGQuality is used when a sampler is configured with a quality
	// outside 1..100.
	DefaultJPEGQuality = 70
	samplerTempPrefix  = "frame-sampler-"
)

// VideoDecoder opens videos for frame-accurate seeking.
type VideoDecoder interface {
	Open(ctx context.Context, path string) (VideoStream, error)
}

// VideoStream is an opened video. Seek blocks until the frame at the given
// offset is ready; Capture returns that frame. Implementations need not be
// safe for concurrent use.
type VideoStream interface {
	Info() model.VideoInfo
	Seek(ctx context.Context, at time.Duration) error
	Capture() (image.Image, error)
	Close() error
}

// SampleInstants returns frameCount offsets evenly spaced strictly inside
// (0, duration): duration/(frameCount+1) * i for i = 1..frameCount.
func SampleInstants(duration time.Duration, frameCount int) []time.Duration {
	if frameCount <= 0 || duration <= 0 {
		return nil
	}
	interval := float64(duration) / float64(frameCount+1)
	out := make([]time.Duration, frameCount)
	for i := 1; i <= frameCount; i++ {
		out[i-1] = time.Duration(interval * float64(i))
	}
	return out
}

// FrameSampler extracts evenly spaced JPEG stills from a video. Frames are
// taken one at a time in temporal order.
type FrameSampler struct {
	Decoder     VideoDecoder
	JPEGQuality int
	SeekTimeout time.Duration
}

func NewFrameSampler(decoder VideoDecoder, jpegQuality int, seekTimeout time.Duration) *FrameSampler {
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	return &FrameSampler{Decoder: decoder, JPEGQuality: jpegQuality, SeekTimeout: seekTimeout}
}

// Sample returns exactly frameCount frames from the video at path, or an
// error and no frames. A frameCount below one is rejected before the video is
// opened.
func (s *FrameSampler) Sample(ctx context.Context, path string, frameCount int) ([]model.EncodedFrame, error) {
	if frameCount <= 0 {
		return nil, fmt.Errorf("%d frames requested: %w", frameCount, model.ErrInvalidFrameCount)
	}

	stream, err := s.Decoder.Open(ctx, path)
	if err != nil {
		return nil, asDecodeError(err, "open video")
	}
	defer func() {
		if err := stream.Close(); err != nil {
			slog.WarnContext(ctx, "failed to close video stream", "path", path, "error", err)
		}
	}()

	info := stream.Info()
	if info.Duration <= 0 {
		return nil, fmt.Errorf("%w: video has no duration", model.ErrDecode)
	}

	frames := make([]model.EncodedFrame, 0, frameCount)
	for _, at := range SampleInstants(info.Duration, frameCount) {
		frame, err := s.captureAt(ctx, stream, at)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	slog.DebugContext(ctx, "sampled video frames", "path", path, "duration", info.Duration, "frames", len(frames))
	return frames, nil
}

func (s *FrameSampler) captureAt(ctx context.Context, stream VideoStream, at time.Duration) (model.EncodedFrame, error) {
	seekCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.SeekTimeout > 0 {
		seekCtx, cancel = context.WithTimeout(ctx, s.SeekTimeout)
	}
	defer cancel()

	if err := stream.Seek(seekCtx, at); err != nil {
		// The caller's own deadline or cancellation is not a stalled seek.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.EncodedFrame{}, ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(seekCtx.Err(), context.DeadlineExceeded) {
			return model.EncodedFrame{}, fmt.Errorf("%w: seek to %s did not complete: %w", model.ErrTimeout, at, err)
		}
		return model.EncodedFrame{}, asDecodeError(err, fmt.Sprintf("seek to %s", at))
	}

	img, err := stream.Capture()
	if err != nil {
		return model.EncodedFrame{}, asDecodeError(err, fmt.Sprintf("capture at %s", at))
	}
	// The decoder hands back frames in display orientation, which differs
	// from the coded size of rotated streams.
	raw, err := RasterizeJPEG(img, 0, 0, s.JPEGQuality)
	if err != nil {
		return model.EncodedFrame{}, asDecodeError(err, fmt.Sprintf("encode frame at %s", at))
	}

	frame := model.NewEncodedFrame(FrameMIMEType, raw)
	frame.Offset = at
	return frame, nil
}

// SampleMedia copies the video payload to a temporary file, samples it and
// removes the file again on every path.
func (s *FrameSampler) SampleMedia(ctx context.Context, media *model.MediaFile, frameCount int) ([]model.EncodedFrame, error) {
	if frameCount <= 0 {
		return nil, fmt.Errorf("%d frames requested: %w", frameCount, model.ErrInvalidFrameCount)
	}
	path, err := copyToTempFile(media)
	if path != "" {
		defer func() {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				slog.WarnContext(ctx, "failed to remove temporary video", "path", path, "error", err)
			}
		}()
	}
	if err != nil {
		return nil, err
	}
	return s.Sample(ctx, path, frameCount)
}

// copyToTempFile writes the payload to a temp file whose extension matches
// the detected container, since ffmpeg picks demuxers by extension.
func copyToTempFile(media *model.MediaFile) (string, error) {
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
	head = head[:n]

	pattern := samplerTempPrefix + "*"
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		pattern += "." + kind.Extension
	}
	tempFile, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", model.ErrRead, err)
	}
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, io.MultiReader(bytes.NewReader(head), reader)); err != nil {
		return tempFile.Name(), fmt.Errorf("%w: copy video payload: %w", model.ErrRead, err)
	}
	return tempFile.Name(), nil
}

// RasterizeJPEG draws img onto a canvas of width x height (the frame's own
// bounds when either is zero) and encodes it as JPEG.
func RasterizeJPEG(img image.Image, width int, height int, quality int) ([]byte, error) {
	if img == nil {
		return nil, errors.New("no frame captured")
	}
	if width <= 0 || height <= 0 {
		width, height = img.Bounds().Dx(), img.Bounds().Dy()
	}
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// asDecodeError wraps err as an ErrDecode unless it already carries a
// pipeline error kind.
func asDecodeError(err error, op string) error {
	for _, kind := range []error{model.ErrDecode, model.ErrTimeout, model.ErrRead, model.ErrValidation} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %w", model.ErrDecode, op, err)
}

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
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
)

const (
	DefaultFFmpegCommand  = "ffmpeg"
	DefaultFFprobeCommand = "ffprobe"
)

// ProbeArgs asks ffprobe for the container duration and the native size of
// the first video stream, as JSON.
func ProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height:format=duration",
		"-of", "json",
		path,
	}
}

// SeekArgs extracts the single frame at offset at as a PNG on stdout. The
// -ss before -i makes ffmpeg seek in the demuxer instead of decoding from the
// start.
func SeekArgs(path string, at time.Duration) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", FormatSeconds(at),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

// FormatSeconds renders d in seconds with millisecond precision.
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

type probeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ParseProbeOutput reads the JSON written by ffprobe with ProbeArgs.
func ParseProbeOutput(data []byte) (model.VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return model.VideoInfo{}, fmt.Errorf("unreadable probe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return model.VideoInfo{}, errors.New("no video stream found")
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64)
	if err != nil {
		return model.VideoInfo{}, fmt.Errorf("unknown duration %q: %w", out.Format.Duration, err)
	}
	return model.VideoInfo{
		Duration: time.Duration(seconds * float64(time.Second)),
		Width:    out.Streams[0].Width,
		Height:   out.Streams[0].Height,
	}, nil
}

// FFMpegDecoder implements VideoDecoder with the ffprobe and ffmpeg binaries.
// Each Seek runs one ffmpeg process.
type FFMpegDecoder struct {
	FFmpegPath  string
	FFprobePath string
}

func NewFFMpegDecoder(ffmpegPath string, ffprobePath string) *FFMpegDecoder {
	if len(strings.TrimSpace(ffmpegPath)) == 0 {
		ffmpegPath = DefaultFFmpegCommand
	}
	if len(strings.TrimSpace(ffprobePath)) == 0 {
		ffprobePath = DefaultFFprobeCommand
	}
	return &FFMpegDecoder{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

func (d *FFMpegDecoder) Open(ctx context.Context, path string) (VideoStream, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.FFprobePath, ProbeArgs(path)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: ffprobe failed: %w: %s", model.ErrDecode, err, strings.TrimSpace(stderr.String()))
	}
	info, err := ParseProbeOutput(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	return &ffmpegStream{ffmpegPath: d.FFmpegPath, path: path, info: info}, nil
}

type ffmpegStream struct {
	ffmpegPath string
	path       string
	info       model.VideoInfo
	current    image.Image
	closed     bool
}

func (s *ffmpegStream) Info() model.VideoInfo {
	return s.info
}

func (s *ffmpegStream) Seek(ctx context.Context, at time.Duration) error {
	if s.closed {
		return errors.New("stream is closed")
	}
	if at < 0 || at > s.info.Duration {
		return fmt.Errorf("offset %s outside [0, %s]", at, s.info.Duration)
	}
	s.current = nil

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.ffmpegPath, SeekArgs(s.path, at)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return fmt.Errorf("no frame at %s", at)
	}
	img, err := png.Decode(&stdout)
	if err != nil {
		return fmt.Errorf("decode frame at %s: %w", at, err)
	}
	s.current = img
	return nil
}

func (s *ffmpegStream) Capture() (image.Image, error) {
	if s.current == nil {
		return nil, errors.New("no frame decoded; seek first")
	}
	return s.current, nil
}

func (s *ffmpegStream) Close() error {
	s.closed = true
	s.current = nil
	return nil
}

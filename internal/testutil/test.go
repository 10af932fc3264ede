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

// Package test provides configuration, fakes and fixtures shared by the
// package tests: a scripted content generator, a scripted video decoder,
// small images and sample notifications.
package test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/prakashgnana97/AI-Image-generaot/internal/cloud"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/commands"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
)

// StateManager caches the configuration between tests.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetConfig returns the default configuration with the test overrides the
// loader finds. It never talks to Google Cloud: the project is cleared.
func GetConfig() *cloud.Config {
	if state.config == nil {
		config := NewTestConfig()
		if err := cloud.LoadConfig(config); err != nil {
			panic(err)
		}
		config.Application.GoogleProjectId = ""
		state.config = config
	}
	return state.config
}

// NewTestConfig returns defaults suitable for unit tests: no project, no
// rate limit and a short seek timeout.
func NewTestConfig() *cloud.Config {
	config := cloud.NewConfig()
	config.Forensics.SeekTimeoutSeconds = 1
	for key, values := range config.AgentModels {
		values.RateLimit = 0
		config.AgentModels[key] = values
	}
	return config
}

// RealResultJSON is a well formed response for an authentic photo.
const RealResultJSON = `{
  "is_ai_generated": false,
  "confidence_score": 8,
  "verdict": "REAL",
  "reasoning": "Shadows fall consistently from a single light source and sensor noise is uniform.",
  "artifacts_detected": [],
  "watermark_detected": false,
  "technical_details": {
    "lighting_consistency": "Single key light from the left, consistent shadows.",
    "anatomy_geometry": "Hands and architecture are structurally sound.",
    "texture_quality": "Natural grain and pores."
  }
}`

// LikelyAIResultJSON is a well formed response for a generated video.
const LikelyAIResultJSON = `{
  "is_ai_generated": true,
  "confidence_score": 91,
  "verdict": "LIKELY_AI",
  "reasoning": "The subject's face morphs between frames and background text is garbled.",
  "artifacts_detected": ["temporal morphing", "garbled signage"],
  "watermark_detected": false,
  "technical_details": {
    "lighting_consistency": "Highlights drift between frames.",
    "anatomy_geometry": "Ear shape changes across the sequence.",
    "texture_quality": "Glossy, over-smoothed skin."
  }
}`

// FencedLikelyAIResultJSON wraps LikelyAIResultJSON in a markdown code
// fence, as models sometimes reply.
const FencedLikelyAIResultJSON = "```json\n" + LikelyAIResultJSON + "\n```"

// FakeCall is one request seen by FakeGenerator.
type FakeCall struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// FakeGenerator implements cloud.ContentGenerator with a scripted reply.
type FakeGenerator struct {
	Response string
	Err      error
	Empty    bool // reply without candidates

	mu    sync.Mutex
	calls []FakeCall
}

func (f *FakeGenerator) GenerateContent(_ context.Context, modelName string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Model: modelName, Contents: contents, Config: config})
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	resp := &genai.GenerateContentResponse{
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 100, CandidatesTokenCount: 50},
	}
	if !f.Empty {
		resp.Candidates = []*genai.Candidate{{Content: genai.NewContentFromText(f.Response, genai.RoleModel)}}
	}
	return resp, nil
}

// Calls returns the requests received so far.
func (f *FakeGenerator) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

// FakeVideoDecoder implements commands.VideoDecoder over a synthetic video.
// Every frame is a solid image of Info's dimensions unless Frame is set.
type FakeVideoDecoder struct {
	Info       model.VideoInfo
	Frame      image.Image
	OpenErr    error
	CaptureErr error
	// BlockSeeks makes every seek wait until its context is done.
	BlockSeeks bool

	mu     sync.Mutex
	opened []string
	seeks  []time.Duration
	closed int
}

func (d *FakeVideoDecoder) Open(_ context.Context, path string) (commands.VideoStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = append(d.opened, path)
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	return &fakeVideoStream{decoder: d}, nil
}

// Opened returns the paths passed to Open.
func (d *FakeVideoDecoder) Opened() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.opened...)
}

// Seeks returns every seek offset in the order requested.
func (d *FakeVideoDecoder) Seeks() []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Duration(nil), d.seeks...)
}

// Closed returns how many streams were closed.
func (d *FakeVideoDecoder) Closed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type fakeVideoStream struct {
	decoder *FakeVideoDecoder
	seeked  bool
}

func (s *fakeVideoStream) Info() model.VideoInfo {
	return s.decoder.Info
}

func (s *fakeVideoStream) Seek(ctx context.Context, at time.Duration) error {
	s.decoder.mu.Lock()
	s.decoder.seeks = append(s.decoder.seeks, at)
	s.decoder.mu.Unlock()
	if s.decoder.BlockSeeks {
		<-ctx.Done()
		return ctx.Err()
	}
	s.seeked = true
	return nil
}

func (s *fakeVideoStream) Capture() (image.Image, error) {
	if s.decoder.CaptureErr != nil {
		return nil, s.decoder.CaptureErr
	}
	if !s.seeked {
		return nil, errors.New("capture before seek")
	}
	s.seeked = false
	if s.decoder.Frame != nil {
		return s.decoder.Frame, nil
	}
	return NewSolidImage(s.decoder.Info.Width, s.decoder.Info.Height, color.RGBA{R: 40, G: 90, B: 160, A: 255}), nil
}

func (s *fakeVideoStream) Close() error {
	s.decoder.mu.Lock()
	defer s.decoder.mu.Unlock()
	s.decoder.closed++
	return nil
}

// NewSolidImage returns a width x height image of a single colour.
func NewSolidImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// NewTestPNG returns a small encoded PNG.
func NewTestPNG() []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, NewSolidImage(8, 8, color.RGBA{R: 200, A: 255}))
	return buf.Bytes()
}

// NewTestJPEG returns a small encoded JPEG.
func NewTestJPEG() []byte {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, NewSolidImage(8, 8, color.RGBA{G: 200, A: 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

// NewTestJPEGOfSize returns a valid JPEG padded with comment segments to
// size bytes, give or take three.
func NewTestJPEGOfSize(size int) []byte {
	base := NewTestJPEG()
	out := make([]byte, 0, size+4)
	out = append(out, base[:2]...)
	for remaining := size - len(base); remaining > 0; {
		n := max(min(remaining, 0xFFFF+2), 4)
		body := n - 4
		out = append(out, 0xFF, 0xFE, byte((body+2)>>8), byte(body+2))
		out = append(out, bytes.Repeat([]byte{'x'}, body)...)
		remaining -= n
	}
	return append(out, base[2:]...)
}

// NewTestMP4 returns bytes that carry an MP4 signature. They are not a
// playable video; tests pair them with FakeVideoDecoder.
func NewTestMP4() []byte {
	header := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'i', 's', 'o', '2'}
	return append(header, make([]byte, 512)...)
}

// GetTestEvidenceMessageText is a Cloud Storage notification for a video
// finalized in the evidence bucket.
func GetTestEvidenceMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "forensic_evidence/suspect-clip.mp4/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/forensic_evidence/o/suspect-clip.mp4",
  "name": "suspect-clip.mp4",
  "bucket": "forensic_evidence",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "size": "5348037",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/forensic_evidence/o/suspect-clip.mp4?generation=1728615848664286&alt=media",
  "metadata": { "source": "upload-portal" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}`
}

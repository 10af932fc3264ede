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

package commands_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/prakashgnana97/AI-Image-generaot/internal/cloud"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/commands"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
	test "github.com/prakashgnana97/AI-Image-generaot/internal/testutil"
)

func newSubmitter(t *testing.T, generator cloud.ContentGenerator) *commands.Submitter {
	t.Helper()
	prompt, err := commands.NewForensicPrompt("")
	require.NoError(t, err)
	return commands.NewSubmitter(generator, cloud.GenAILLMModel{Model: cloud.DefaultModelName}, prompt)
}

func jpegFrames(n int) []model.EncodedFrame {
	frames := make([]model.EncodedFrame, n)
	for i := range frames {
		frames[i] = model.NewEncodedFrame("image/jpeg", test.NewTestJPEG())
	}
	return frames
}

func TestSubmitBuildsOneRequest(t *testing.T) {
	generator := &test.FakeGenerator{Response: test.RealResultJSON}
	submitter := newSubmitter(t, generator)

	result, err := submitter.Submit(context.Background(), jpegFrames(3))
	require.NoError(t, err)
	assert.Equal(t, model.VerdictReal, result.Verdict)

	calls := generator.Calls()
	require.Len(t, calls, 1)
	call := calls[0]
	assert.Equal(t, cloud.DefaultModelName, call.Model)

	require.Len(t, call.Contents, 1)
	assert.Equal(t, "user", call.Contents[0].Role)
	parts := call.Contents[0].Parts
	require.Len(t, parts, 4)
	for _, part := range parts[:3] {
		require.NotNil(t, part.InlineData)
		assert.Equal(t, "image/jpeg", part.InlineData.MIMEType)
		assert.Equal(t, test.NewTestJPEG(), part.InlineData.Data)
	}
	prompt := parts[3].Text
	assert.Contains(t, prompt, "Digital Forensics Expert")
	assert.Contains(t, prompt, "Imagined with AI")
	assert.Contains(t, prompt, "3 images provided are keyframes")

	require.NotNil(t, call.Config.Temperature)
	assert.InDelta(t, 0.2, *call.Config.Temperature, 1e-6)
	assert.Equal(t, "application/json", call.Config.ResponseMIMEType)
	require.NotNil(t, call.Config.ResponseSchema)
	assert.Equal(t, genai.TypeObject, call.Config.ResponseSchema.Type)
}

func TestSubmitSingleImagePrompt(t *testing.T) {
	generator := &test.FakeGenerator{Response: test.RealResultJSON}
	_, err := newSubmitter(t, generator).Submit(context.Background(), jpegFrames(1))
	require.NoError(t, err)

	parts := generator.Calls()[0].Contents[0].Parts
	require.Len(t, parts, 2)
	assert.NotContains(t, parts[1].Text, "keyframes from a video")
}

func TestSubmitStripsCodeFence(t *testing.T) {
	generator := &test.FakeGenerator{Response: test.FencedLikelyAIResultJSON}
	result, err := newSubmitter(t, generator).Submit(context.Background(), jpegFrames(3))
	require.NoError(t, err)
	assert.Equal(t, model.VerdictLikelyAI, result.Verdict)
	assert.Equal(t, 91.0, result.ConfidenceScore)
	assert.Equal(t, []string{"temporal morphing", "garbled signage"}, result.ArtifactsDetected)
}

func TestSubmitServiceFailures(t *testing.T) {
	cases := map[string]*test.FakeGenerator{
		"transport":       {Err: errors.New("503 unavailable")},
		"no candidates":   {Empty: true},
		"blank":           {Response: "   "},
		"malformed":       {Response: `{"verdict": "REAL"`},
		"missing fields":  {Response: `{"verdict": "REAL", "confidence_score": 10}`},
		"score too high":  {Response: strings.Replace(test.RealResultJSON, `"confidence_score": 8`, `"confidence_score": 101`, 1)},
		"unknown verdict": {Response: strings.Replace(test.RealResultJSON, `"verdict": "REAL"`, `"verdict": "FAKE"`, 1)},
	}
	for name, generator := range cases {
		t.Run(name, func(t *testing.T) {
			result, err := newSubmitter(t, generator).Submit(context.Background(), jpegFrames(1))
			assert.Nil(t, result)
			assert.ErrorIs(t, err, model.ErrService)
			assert.Equal(t, "Forensic analysis failed due to an API error.", model.UserMessage(err))
			assert.Len(t, generator.Calls(), 1)
		})
	}
}

func TestSubmitWithoutFrames(t *testing.T) {
	generator := &test.FakeGenerator{Response: test.RealResultJSON}
	_, err := newSubmitter(t, generator).Submit(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Empty(t, generator.Calls())
}

func TestSubmitRejectsCorruptFrame(t *testing.T) {
	generator := &test.FakeGenerator{Response: test.RealResultJSON}
	frames := []model.EncodedFrame{{MIMEType: "image/png", Data: "not base64!"}}
	_, err := newSubmitter(t, generator).Send(context.Background(), frames)
	assert.ErrorIs(t, err, model.ErrRead)
	assert.Empty(t, generator.Calls())
}

func TestNewSubmitterDefaultsTemperature(t *testing.T) {
	prompt, err := commands.NewForensicPrompt("")
	require.NoError(t, err)
	submitter := commands.NewSubmitter(&test.FakeGenerator{}, cloud.GenAILLMModel{}, prompt)
	assert.Equal(t, cloud.DefaultModelName, submitter.ModelName)
	assert.InDelta(t, float64(cloud.DefaultTemperature), float64(*submitter.Config.Temperature), 1e-6)
}

func TestForensicPromptCustomTemplate(t *testing.T) {
	prompt, err := commands.NewForensicPrompt("frames={{.FRAME_COUNT}} multi={{.MULTI_FRAME}}")
	require.NoError(t, err)
	out, err := prompt.Render(3)
	require.NoError(t, err)
	assert.Equal(t, "frames=3 multi=true", out)

	_, err = commands.NewForensicPrompt("{{.FRAME_COUNT")
	assert.Error(t, err)
}

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
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakashgnana97/AI-Image-generaot/internal/cloud"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/commands"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/cor"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
	test "github.com/prakashgnana97/AI-Image-generaot/internal/testutil"
)

func newChainContext(in any) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, in)
	return chainCtx
}

type fakeLoader struct {
	media *model.MediaFile
	err   error
	seen  []*cloud.GCSObject
}

func (l *fakeLoader) Load(_ context.Context, obj *cloud.GCSObject) (*model.MediaFile, error) {
	l.seen = append(l.seen, obj)
	return l.media, l.err
}

type fakePublisher struct {
	data       []byte
	attributes map[string]string
	err        error
}

func (p *fakePublisher) Publish(_ context.Context, data []byte, attributes map[string]string) (string, error) {
	p.data = data
	p.attributes = attributes
	return "msg-1", p.err
}

func TestMediaTriggerToGCSObject(t *testing.T) {
	chainCtx := newChainContext(test.GetTestEvidenceMessageText())
	commands.NewMediaTriggerToGCSObject("trigger").Execute(chainCtx)
	require.False(t, chainCtx.HasErrors())

	obj, ok := chainCtx.Get(cloud.GCSObjectParam).(*cloud.GCSObject)
	require.True(t, ok)
	assert.Equal(t, "forensic_evidence", obj.Bucket)
	assert.Equal(t, "suspect-clip.mp4", obj.Name)
	assert.Equal(t, "video/mp4", obj.MIMEType)
	assert.Same(t, obj, chainCtx.Get(cor.CtxOut))
}

func TestMediaTriggerToGCSObjectRejectsBadMessages(t *testing.T) {
	for _, in := range []string{"not json", `{"kind": "storage#object"}`} {
		chainCtx := newChainContext(in)
		commands.NewMediaTriggerToGCSObject("trigger").Execute(chainCtx)
		assert.ErrorIs(t, chainCtx.Err(), model.ErrValidation)
	}
}

func TestGCSToMediaFileReleasesOnClose(t *testing.T) {
	released := false
	media := model.NewMediaFileFromBytes("clip.mp4", "video/mp4", test.NewTestMP4())
	media.OnRelease(func() { released = true })
	loader := &fakeLoader{media: media}

	obj := &cloud.GCSObject{Bucket: "b", Name: "clip.mp4"}
	chainCtx := newChainContext(obj)
	commands.NewGCSToMediaFile("load", loader).Execute(chainCtx)
	require.False(t, chainCtx.HasErrors())
	assert.Same(t, media, chainCtx.Get(cor.CtxOut))
	assert.Equal(t, []*cloud.GCSObject{obj}, loader.seen)

	assert.False(t, released)
	chainCtx.Close()
	assert.True(t, released)
}

func TestGCSToMediaFileFailure(t *testing.T) {
	loader := &fakeLoader{err: model.ErrFileTooLarge}
	chainCtx := newChainContext(&cloud.GCSObject{Bucket: "b", Name: "big.mp4"})
	commands.NewGCSToMediaFile("load", loader).Execute(chainCtx)
	assert.ErrorIs(t, chainCtx.Err(), model.ErrFileTooLarge)
}

func TestEvidenceExtractorImage(t *testing.T) {
	decoder := newDecoder(9 * time.Second)
	extractor := commands.NewEvidenceExtractor("extract", commands.NewFrameSampler(decoder, 70, time.Second), 3)
	media := model.NewMediaFileFromBytes("photo.png", "image/png", test.NewTestPNG())

	chainCtx := newChainContext(media)
	extractor.Execute(chainCtx)
	require.False(t, chainCtx.HasErrors())

	frames := chainCtx.Get(commands.FramesParam).([]model.EncodedFrame)
	require.Len(t, frames, 1)
	assert.Equal(t, "image/png", frames[0].MIMEType)
	assert.Empty(t, decoder.Opened())
}

func TestEvidenceExtractorVideo(t *testing.T) {
	decoder := newDecoder(9 * time.Second)
	extractor := commands.NewEvidenceExtractor("extract", commands.NewFrameSampler(decoder, 70, time.Second), 3)
	media := model.NewMediaFileFromBytes("clip.mp4", "video/mp4", test.NewTestMP4())

	chainCtx := newChainContext(media)
	extractor.Execute(chainCtx)
	require.False(t, chainCtx.HasErrors())

	frames := chainCtx.Get(cor.CtxOut).([]model.EncodedFrame)
	require.Len(t, frames, 3)
	for _, frame := range frames {
		assert.Equal(t, "image/jpeg", frame.MIMEType)
	}
	assert.Len(t, decoder.Seeks(), 3)
}

func TestAnalysisJsonToStruct(t *testing.T) {
	chainCtx := newChainContext(test.RealResultJSON)
	commands.NewAnalysisJsonToStruct("convert", commands.ResultParam).Execute(chainCtx)
	require.False(t, chainCtx.HasErrors())

	result := chainCtx.Get(commands.ResultParam).(*model.AnalysisResult)
	assert.Equal(t, model.VerdictReal, result.Verdict)
	assert.Same(t, result, chainCtx.Get(cor.CtxOut))

	chainCtx = newChainContext(`{"verdict": "REAL"}`)
	commands.NewAnalysisJsonToStruct("convert", commands.ResultParam).Execute(chainCtx)
	assert.ErrorIs(t, chainCtx.Err(), model.ErrService)
	assert.Nil(t, chainCtx.Get(commands.ResultParam))
}

func TestEvidenceSubmitterCommand(t *testing.T) {
	generator := &test.FakeGenerator{Response: test.RealResultJSON}
	chainCtx := newChainContext(jpegFrames(2))
	commands.NewEvidenceSubmitter("submit", newSubmitter(t, generator)).Execute(chainCtx)
	require.False(t, chainCtx.HasErrors())
	assert.Equal(t, test.RealResultJSON, chainCtx.Get(commands.RawResultParam))

	generator.Err = errors.New("quota exceeded")
	chainCtx = newChainContext(jpegFrames(2))
	commands.NewEvidenceSubmitter("submit", newSubmitter(t, generator)).Execute(chainCtx)
	assert.ErrorIs(t, chainCtx.Err(), model.ErrService)
}

func TestVerdictPublisher(t *testing.T) {
	result, err := model.ParseAnalysisResult([]byte(test.LikelyAIResultJSON))
	require.NoError(t, err)

	publisher := &fakePublisher{}
	chainCtx := newChainContext(result)
	chainCtx.Add(cor.CtxRunID, "run-1")
	chainCtx.Add(cloud.GCSObjectParam, &cloud.GCSObject{Bucket: "forensic_evidence", Name: "suspect-clip.mp4"})
	chainCtx.Add(commands.FramesParam, jpegFrames(3))

	commands.NewVerdictPublisher("publish", publisher, cloud.DefaultModelName).Execute(chainCtx)
	require.False(t, chainCtx.HasErrors())

	var report model.AnalysisReport
	require.NoError(t, json.Unmarshal(publisher.data, &report))
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 3, report.FrameCount)
	assert.Equal(t, "gs://forensic_evidence/suspect-clip.mp4", report.Source)
	assert.Equal(t, cloud.DefaultModelName, report.Model)
	assert.Equal(t, model.VerdictLikelyAI, report.Result.Verdict)
	assert.Equal(t, "LIKELY_AI", publisher.attributes["verdict"])
}

func TestVerdictPublisherDisabled(t *testing.T) {
	publisher := commands.NewVerdictPublisher("publish", nil, cloud.DefaultModelName)
	assert.False(t, publisher.IsExecutable(newChainContext(&model.AnalysisResult{})))
}

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

// Package workflow assembles the analysis commands into the pipelines the
// server runs: direct analysis of an upload, and asynchronous analysis of an
// object announced by a Cloud Storage notification.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prakashgnana97/AI-Image-generaot/internal/cloud"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/commands"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/cor"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
)

// ForensicAnalysisWorkflow turns one media file into a validated verdict:
//
//  1. intake: type and size checks
//  2. evidence: the image itself, or sampled video frames
//  3. submit: one call to the model
//  4. parse: schema validation of the response
//
// The workflow is stateless between runs and may be shared by concurrent
// callers as long as each run uses its own cor.Context.
type ForensicAnalysisWorkflow struct {
	cor.BaseCommand
	config    *cloud.Config
	submitter *commands.Submitter
	sampler   *commands.FrameSampler
	chain     cor.Chain
}

// NewForensicAnalysisWorkflow wires the pipeline around generator, the model
// client, and decoder, the video backend.
func NewForensicAnalysisWorkflow(
	config *cloud.Config,
	generator cloud.ContentGenerator,
	decoder commands.VideoDecoder) (*ForensicAnalysisWorkflow, error) {

	prompt, err := commands.NewForensicPrompt(config.PromptTemplates.ForensicPrompt)
	if err != nil {
		return nil, err
	}

	workflow := &ForensicAnalysisWorkflow{
		BaseCommand: *cor.NewBaseCommand("forensic-analysis-workflow"),
		config:      config,
		submitter:   commands.NewSubmitter(generator, config.ForensicModel(), prompt),
		sampler: commands.NewFrameSampler(decoder, config.Forensics.JPEGQuality,
			time.Duration(config.Forensics.SeekTimeoutSeconds)*time.Second),
	}
	workflow.initializeChain()
	return workflow, nil
}

func (w *ForensicAnalysisWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())
	out.AddCommand(commands.NewMediaIntakeValidator("media-intake", w.config.Forensics.MaxUploadBytes))
	out.AddCommand(commands.NewEvidenceExtractor("extract-evidence", w.sampler, w.config.Forensics.FrameCount))
	out.AddCommand(commands.NewEvidenceSubmitter("submit-evidence", w.submitter))
	out.AddCommand(commands.NewAnalysisJsonToStruct("convert-analysis", commands.ResultParam))
	w.chain = out
}

// ModelName is the model the workflow submits evidence to.
func (w *ForensicAnalysisWorkflow) ModelName() string {
	return w.submitter.ModelName
}

// Execute runs the chain in the caller's context. The result is left under
// commands.ResultParam and handed to the next command of an enclosing chain.
func (w *ForensicAnalysisWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
	if context.HasErrors() {
		return
	}
	if result := context.Get(commands.ResultParam); result != nil {
		context.Add(cor.CtxOut, result)
	}
}

// Run analyzes one media file in a fresh context. The media file and every
// temporary resource of the run are released before Run returns.
func (w *ForensicAnalysisWorkflow) Run(ctx context.Context, media *model.MediaFile) (*model.AnalysisReport, error) {
	if media == nil {
		return nil, fmt.Errorf("%w: no media supplied", model.ErrValidation)
	}

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.AddCleanup(media.Release)
	chainCtx.SetContext(ctx)

	runID := uuid.NewString()
	chainCtx.Add(cor.CtxRunID, runID)
	chainCtx.Add(cor.CtxIn, media)

	w.Execute(chainCtx)
	if err := chainCtx.Err(); err != nil {
		return nil, err
	}

	result, ok := chainCtx.Get(commands.ResultParam).(*model.AnalysisResult)
	if !ok || result == nil {
		return nil, errors.New("analysis finished without a result")
	}
	report := &model.AnalysisReport{
		RunID:  runID,
		Media:  media,
		Model:  w.ModelName(),
		Result: result,
	}
	if validated, ok := chainCtx.Get(commands.MediaFileParam).(*model.MediaFile); ok {
		report.Media = validated
	}
	if frames, ok := chainCtx.Get(commands.FramesParam).([]model.EncodedFrame); ok {
		report.FrameCount = len(frames)
	}
	return report, nil
}

// Analyze runs the pipeline and returns only the verdict.
func (w *ForensicAnalysisWorkflow) Analyze(ctx context.Context, media *model.MediaFile) (*model.AnalysisResult, error) {
	report, err := w.Run(ctx, media)
	if err != nil {
		return nil, err
	}
	return report.Result, nil
}

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
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"

	"github.com/prakashgnana97/AI-Image-generaot/internal/cloud"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/cor"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
)

// Submitter sends evidence frames and the forensic prompt to a generative
// model in a single request. It never retries and keeps no state between
// calls.
type Submitter struct {
	Generator          cloud.ContentGenerator
	ModelName          string
	Config             *genai.GenerateContentConfig
	Prompt             *ForensicPrompt
	InputTokenCounter  metric.Int64Counter
	OutputTokenCounter metric.Int64Counter
}

// NewSubmitter configures a JSON response constrained to the AnalysisResult
// schema. A zero temperature in values is replaced by the 0.2 default.
func NewSubmitter(generator cloud.ContentGenerator, values cloud.GenAILLMModel, prompt *ForensicPrompt) *Submitter {
	if values.Temperature == 0 {
		values.Temperature = cloud.DefaultTemperature
	}
	if values.Model == "" {
		values.Model = cloud.DefaultModelName
	}
	config := cloud.NewGenerateContentConfig(values)
	config.ResponseMIMEType = "application/json"
	config.ResponseSchema = model.AnalysisResultSchema()
	return &Submitter{
		Generator: generator,
		ModelName: values.Model,
		Config:    config,
		Prompt:    prompt,
	}
}

// BuildContents lays out the request: every frame as inline data in order,
// followed by the prompt text.
func (s *Submitter) BuildContents(frames []model.EncodedFrame) ([]*genai.Content, error) {
	parts := make([]*genai.Part, 0, len(frames)+1)
	for i, frame := range frames {
		data, err := frame.Bytes()
		if err != nil {
			return nil, fmt.Errorf("%w: frame %d is not valid base64: %w", model.ErrRead, i, err)
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: frame.MIMEType, Data: data}})
	}
	prompt, err := s.Prompt.Render(len(frames))
	if err != nil {
		return nil, err
	}
	parts = append(parts, &genai.Part{Text: prompt})
	return []*genai.Content{{Role: "user", Parts: parts}}, nil
}

// Send performs the request and returns the raw JSON text.
func (s *Submitter) Send(ctx context.Context, frames []model.EncodedFrame) (string, error) {
	if len(frames) == 0 {
		return "", fmt.Errorf("%w: no frames to submit", model.ErrValidation)
	}
	contents, err := s.BuildContents(frames)
	if err != nil {
		return "", err
	}
	out, err := cloud.GenerateStructuredResponse(ctx, s.InputTokenCounter, s.OutputTokenCounter, s.Generator, s.ModelName, contents, s.Config)
	if err != nil {
		return "", fmt.Errorf("%w: %s request failed: %w", model.ErrService, s.ModelName, err)
	}
	if out == "" {
		return "", fmt.Errorf("%w: no response from %s", model.ErrService, s.ModelName)
	}
	return out, nil
}

// Submit sends the frames and validates the response.
func (s *Submitter) Submit(ctx context.Context, frames []model.EncodedFrame) (*model.AnalysisResult, error) {
	out, err := s.Send(ctx, frames)
	if err != nil {
		return nil, err
	}
	result, err := model.ParseAnalysisResult([]byte(out))
	if err != nil {
		return nil, err
	}
	warnIfInconsistent(ctx, result)
	return result, nil
}

func warnIfInconsistent(ctx context.Context, result *model.AnalysisResult) {
	if !result.IsConsistent() {
		slog.WarnContext(ctx, "verdict disagrees with is_ai_generated",
			"verdict", result.Verdict.String(),
			"is_ai_generated", result.IsAIGenerated,
			"confidence_score", result.ConfidenceScore)
	}
}

// EvidenceSubmitter is the workflow step around Submitter.Send.
//
// Input: []model.EncodedFrame. Output: the raw JSON string, also stored under
// RawResultParam.
type EvidenceSubmitter struct {
	cor.BaseCommand
	submitter *Submitter
}

func NewEvidenceSubmitter(name string, submitter *Submitter) *EvidenceSubmitter {
	out := &EvidenceSubmitter{BaseCommand: *cor.NewBaseCommand(name), submitter: submitter}
	if submitter.InputTokenCounter == nil {
		submitter.InputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", name))
	}
	if submitter.OutputTokenCounter == nil {
		submitter.OutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", name))
	}
	return out
}

func (e *EvidenceSubmitter) Execute(context cor.Context) {
	frames, ok := context.Get(e.GetInputParam()).([]model.EncodedFrame)
	if !ok {
		e.Fail(context, fmt.Errorf("%w: expected encoded frames", model.ErrValidation))
		return
	}
	out, err := e.submitter.Send(context.GetContext(), frames)
	if err != nil {
		e.Fail(context, err)
		return
	}
	context.Add(RawResultParam, out)
	e.Succeed(context, out)
}

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
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prakashgnana97/AI-Image-generaot/internal/cloud"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/cor"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
)

// ReportPublisher delivers an encoded report. cloud.TopicPublisher
// implements it.
type ReportPublisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) (string, error)
}

// VerdictPublisher publishes the verdict of an asynchronous run as a
// model.AnalysisReport. It is skipped when no publisher is configured.
type VerdictPublisher struct {
	cor.BaseCommand
	publisher ReportPublisher
	modelName string
}

func NewVerdictPublisher(name string, publisher ReportPublisher, modelName string) *VerdictPublisher {
	return &VerdictPublisher{BaseCommand: *cor.NewBaseCommand(name), publisher: publisher, modelName: modelName}
}

func (v *VerdictPublisher) IsExecutable(context cor.Context) bool {
	return v.publisher != nil && v.BaseCommand.IsExecutable(context)
}

func (v *VerdictPublisher) Execute(context cor.Context) {
	result, ok := context.Get(v.GetInputParam()).(*model.AnalysisResult)
	if !ok {
		v.Fail(context, fmt.Errorf("%w: expected an analysis result", model.ErrService))
		return
	}

	report := &model.AnalysisReport{Model: v.modelName, Result: result}
	report.RunID, _ = context.Get(cor.CtxRunID).(string)
	report.Media, _ = context.Get(MediaFileParam).(*model.MediaFile)
	if frames, ok := context.Get(FramesParam).([]model.EncodedFrame); ok {
		report.FrameCount = len(frames)
	}
	if obj, ok := context.Get(cloud.GCSObjectParam).(*cloud.GCSObject); ok {
		report.Source = obj.URI()
	}

	data, err := json.Marshal(report)
	if err != nil {
		v.Fail(context, err)
		return
	}
	attributes := map[string]string{"verdict": result.Verdict.String()}
	if report.Source != "" {
		attributes["source"] = report.Source
	}
	id, err := v.publisher.Publish(context.GetContext(), data, attributes)
	if err != nil {
		v.Fail(context, fmt.Errorf("failed to publish verdict: %w", err))
		return
	}
	slog.InfoContext(context.GetContext(), "published verdict",
		"run_id", report.RunID, "message_id", id, "verdict", result.Verdict.String())

	v.Succeed(context, result)
}

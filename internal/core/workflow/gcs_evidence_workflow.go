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

package workflow

import (
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/commands"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/cor"
)

// GCSEvidenceWorkflow analyzes an object announced by a Cloud Storage
// Pub/Sub notification and publishes the verdict. It expects the raw
// notification JSON under cor.CtxIn.
type GCSEvidenceWorkflow struct {
	cor.BaseCommand
	loader    commands.MediaLoader
	forensics *ForensicAnalysisWorkflow
	publisher commands.ReportPublisher
	chain     cor.Chain
}

// NewGCSEvidenceWorkflow builds the workflow. A nil publisher disables
// publishing; the verdict is then only logged.
func NewGCSEvidenceWorkflow(
	loader commands.MediaLoader,
	forensics *ForensicAnalysisWorkflow,
	publisher commands.ReportPublisher) *GCSEvidenceWorkflow {

	workflow := &GCSEvidenceWorkflow{
		BaseCommand: *cor.NewBaseCommand("gcs-evidence-workflow"),
		loader:      loader,
		forensics:   forensics,
		publisher:   publisher,
	}
	workflow.initializeChain()
	return workflow
}

func (w *GCSEvidenceWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())
	out.AddCommand(commands.NewMediaTriggerToGCSObject("media-trigger-to-gcs-object"))
	out.AddCommand(commands.NewGCSToMediaFile("gcs-to-media-file", w.loader))
	out.AddCommand(w.forensics)
	out.AddCommand(commands.NewVerdictPublisher("publish-verdict", w.publisher, w.forensics.ModelName()))
	w.chain = out
}

func (w *GCSEvidenceWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

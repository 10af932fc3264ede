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

package main

import (
	"context"
	"log/slog"

	"github.com/prakashgnana97/AI-Image-generaot/internal/cloud"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/commands"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/services"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/workflow"
)

// SetupListeners attaches the Cloud Storage evidence workflow to the
// EvidenceTopic subscription and starts it. Verdicts are published to the
// results topic when one is configured.
func SetupListeners(
	ctx context.Context,
	cloudClients *cloud.ServiceClients,
	forensics *workflow.ForensicAnalysisWorkflow,
	mediaService *services.MediaService) {

	listener, ok := cloudClients.PubSubListeners[cloud.DefaultEvidenceTopicKey]
	if !ok {
		slog.Info("no evidence subscription configured", "key", cloud.DefaultEvidenceTopicKey)
		return
	}

	var publisher commands.ReportPublisher
	if cloudClients.ResultsTopic != nil {
		publisher = cloud.NewTopicPublisher(cloudClients.ResultsTopic)
	}

	listener.SetCommand(workflow.NewGCSEvidenceWorkflow(mediaService, forensics, publisher))
	listener.Listen(ctx)
}

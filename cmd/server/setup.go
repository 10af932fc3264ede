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
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prakashgnana97/AI-Image-generaot/internal/api"
	"github.com/prakashgnana97/AI-Image-generaot/internal/cloud"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/commands"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/services"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/workflow"
)

// StateManager holds the dependencies shared by the HTTP handlers and the
// Pub/Sub listeners.
type StateManager struct {
	config       *cloud.Config
	cloud        *cloud.ServiceClients
	forensics    *workflow.ForensicAnalysisWorkflow
	mediaService *services.MediaService
	handlers     *api.Handlers
}

var state = &StateManager{}

// SetupOS points the configuration loader at ./configs and the "local"
// runtime unless the environment already says otherwise.
func SetupOS() (err error) {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig loads the configuration once and caches it.
func GetConfig() (*cloud.Config, error) {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			return nil, fmt.Errorf("failed to set up environment: %w", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			return nil, err
		}
		state.config = config
	}
	return state.config, nil
}

// InitState creates the service clients, the forensic workflow and the HTTP
// handlers, and starts the Pub/Sub listeners.
func InitState(ctx context.Context) error {
	config, err := GetConfig()
	if err != nil {
		return err
	}

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	var generator cloud.ContentGenerator
	if model, ok := cloudClients.AgentModels[config.Forensics.AgentModel]; ok {
		generator = model
	} else {
		values := config.ForensicModel()
		generator = cloud.NewQuotaAwareModel(cloud.NewGenerateContentConfig(values), values.Model, cloudClients.GenAIClient.Models, values.RateLimit)
	}
	decoder := commands.NewFFMpegDecoder(config.Forensics.FFmpegPath, config.Forensics.FFprobePath)

	state.forensics, err = workflow.NewForensicAnalysisWorkflow(config, generator, decoder)
	if err != nil {
		return err
	}
	state.handlers = &api.Handlers{
		Analyzer:       state.forensics,
		MaxUploadBytes: config.Forensics.MaxUploadBytes,
	}

	if cloudClients.StorageClient != nil {
		state.mediaService = &services.MediaService{
			StorageClient: cloudClients.StorageClient,
			IAMClient:     cloudClients.IAMClient,
			SignerEmail:   config.Application.SignerServiceAccountEmail,
			MaxBytes:      config.Forensics.MaxUploadBytes,
			PreviewExpiry: time.Duration(config.Storage.PreviewURLMinutes) * time.Minute,
		}
		state.handlers.Loader = state.mediaService
		SetupListeners(ctx, cloudClients, state.forensics, state.mediaService)
	}

	slog.Info("initialized state", "model", state.forensics.ModelName(), "gcs_enabled", state.mediaService != nil)
	return nil
}

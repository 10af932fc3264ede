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

package cloud_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zeebo/assert"

	"github.com/prakashgnana97/AI-Image-generaot/internal/cloud"
)

func writeConfigFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		assert.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestNewConfigDefaults(t *testing.T) {
	config := cloud.NewConfig()
	assert.Equal(t, config.Forensics.FrameCount, 3)
	assert.Equal(t, config.Forensics.JPEGQuality, 70)
	assert.Equal(t, config.Forensics.MaxUploadBytes, int64(20*1024*1024))
	assert.Equal(t, config.Forensics.AgentModel, cloud.DefaultAgentModel)

	model := config.ForensicModel()
	assert.Equal(t, model.Model, "gemini-2.5-flash")
	assert.Equal(t, model.Temperature, float32(0.2))
	assert.That(t, !config.HasProject())
	assert.That(t, !config.UsesVertexAI())
}

func TestLoadConfigLayersRuntimeOverrides(t *testing.T) {
	dir := writeConfigFiles(t, map[string]string{
		".env.toml": `
[application]
name = "forensics"
google_project_id = "base-project"

[forensics]
frame_count = 5
`,
		".env.prod.toml": `
[application]
google_project_id = "prod-project"

[topic_subscriptions.EvidenceTopic]
name = "evidence-sub"
`,
	})
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "prod")
	t.Setenv(cloud.EnvGeminiAPIKey, "")

	config := cloud.NewConfig()
	assert.NoError(t, cloud.LoadConfig(config))

	assert.Equal(t, config.Application.Name, "forensics")
	assert.Equal(t, config.Application.GoogleProjectId, "prod-project")
	assert.Equal(t, config.Forensics.FrameCount, 5)
	assert.Equal(t, config.Forensics.JPEGQuality, 70)
	assert.Equal(t, config.TopicSubscriptions[cloud.DefaultEvidenceTopicKey].Name, "evidence-sub")
	assert.That(t, config.HasProject())
	assert.That(t, config.UsesVertexAI())
}

func TestLoadConfigMissingFiles(t *testing.T) {
	t.Setenv(cloud.EnvConfigFilePrefix, t.TempDir())
	t.Setenv(cloud.EnvConfigRuntime, "")
	t.Setenv(cloud.EnvGeminiAPIKey, "from-env")

	config := cloud.NewConfig()
	assert.NoError(t, cloud.LoadConfig(config))
	assert.Equal(t, config.Forensics.APIKey, "from-env")
	assert.That(t, !config.UsesVertexAI())
}

func TestLoadConfigInvalidFile(t *testing.T) {
	dir := writeConfigFiles(t, map[string]string{".env.toml": "[application\nname = "})
	t.Setenv(cloud.EnvConfigFilePrefix, dir)

	assert.Error(t, cloud.LoadConfig(cloud.NewConfig()))
}

func TestForensicModelFallback(t *testing.T) {
	config := cloud.NewConfig()
	config.Forensics.AgentModel = "missing"
	assert.Equal(t, config.ForensicModel().Model, cloud.DefaultModelName)

	config.AgentModels["custom"] = cloud.GenAILLMModel{Model: "gemini-2.5-pro", Temperature: 0.1}
	config.Forensics.AgentModel = "custom"
	assert.Equal(t, config.ForensicModel().Model, "gemini-2.5-pro")
}

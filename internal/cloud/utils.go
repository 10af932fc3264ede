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

package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

const (
	ConfigFileBaseName  = ".env"
	ConfigFileExtension = ".toml"
	ConfigSeparator     = "."
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX"
	EnvConfigRuntime    = "GCP_RUNTIME"
	EnvGeminiAPIKey     = "GEMINI_API_KEY"
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig decodes ".env.toml" and then ".env.<runtime>.toml" from the
// directory named by GCP_CONFIG_PREFIX into baseConfig. The runtime comes from
// GCP_RUNTIME and defaults to "test". Missing files are skipped.
func LoadConfig(baseConfig any) error {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	for _, fileName := range []string{baseConfigFileName, envConfigFileName} {
		if !fileExists(fileName) {
			slog.Debug("configuration file not found", "file", fileName)
			continue
		}
		if _, err := toml.DecodeFile(fileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode configuration file %s: %w", fileName, err)
		}
		slog.Info("loaded configuration file", "file", fileName)
	}

	if c, ok := baseConfig.(*Config); ok && c.Forensics.APIKey == "" {
		c.Forensics.APIKey = os.Getenv(EnvGeminiAPIKey)
	}
	return nil
}

// NewGenAIClient creates a genai client for either the Gemini API (API key) or
// Vertex AI (project and location).
func NewGenAIClient(ctx context.Context, config *Config) (*genai.Client, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  config.Forensics.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.UsesVertexAI() {
		clientConfig = &genai.ClientConfig{
			Project:  config.Application.GoogleProjectId,
			Location: config.Application.GoogleLocation,
			Backend:  genai.BackendVertexAI,
		}
	}
	return genai.NewClient(ctx, clientConfig)
}

// NewGenerateContentConfig builds the request configuration for a model.
// Callers add the response schema.
func NewGenerateContentConfig(values GenAILLMModel) *genai.GenerateContentConfig {
	out := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](values.Temperature),
		SafetySettings:   DefaultSafetySettings,
		ResponseMIMEType: "application/json",
	}
	if values.TopP > 0 {
		out.TopP = genai.Ptr[float32](values.TopP)
	}
	if values.TopK > 0 {
		out.TopK = genai.Ptr[float32](values.TopK)
	}
	if values.MaxTokens > 0 {
		out.MaxOutputTokens = values.MaxTokens
	}
	if len(values.SystemInstructions) > 0 {
		out.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
	}
	return out
}

// GenerateStructuredResponse sends one request and returns the concatenated
// candidate text with any markdown code fence removed. Token usage is added
// to the given counters. It never retries.
func GenerateStructuredResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	generator ContentGenerator,
	modelName string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig) (string, error) {

	resp, err := generator.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", nil
	}
	if resp.UsageMetadata != nil {
		if inputTokenCounter != nil {
			inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		}
		if outputTokenCounter != nil {
			outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
		}
	}

	var value strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil {
				value.WriteString(part.Text)
			}
		}
	}
	return StripCodeFence(value.String()), nil
}

// StripCodeFence removes a surrounding ```json ... ``` fence.
func StripCodeFence(in string) string {
	out := strings.TrimSpace(in)
	if !strings.HasPrefix(out, "```") {
		return out
	}
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```JSON")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	return strings.TrimSpace(out)
}

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

// Package cloud holds configuration and the clients for the Google services the
// forensic pipeline talks to: Gemini through the genai SDK, Cloud Storage,
// Pub/Sub and the IAM Credentials API.
package cloud

import "google.golang.org/genai"

// Defaults applied by NewConfig before any TOML file is read.
const (
	DefaultModelName        = "gemini-2.5-flash"
	DefaultAgentModel       = "forensic-flash"
	DefaultTemperature      = float32(0.2)
	DefaultFrameCount       = 3
	DefaultJPEGQuality      = 70
	DefaultMaxUploadBytes   = int64(20 * 1024 * 1024)
	DefaultSeekTimeoutSecs  = 30
	DefaultPreviewURLMins   = 15
	DefaultServerPort       = 8080
	DefaultRequestTimeout   = 120
	DefaultRateLimitPerSec  = 1
	DefaultEvidenceTopicKey = "EvidenceTopic"
)

// DefaultSafetySettings disables content blocking. Forensic review routinely
// covers material a consumer filter would refuse.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// PromptTemplates are text/template sources. An empty forensic template
// selects the built-in instruction block.
type PromptTemplates struct {
	ForensicPrompt string `toml:"forensic"`
}

// GenAILLMModel configures one generative model.
type GenAILLMModel struct {
	Model              string  `toml:"model"`
	SystemInstructions string  `toml:"system_instructions"`
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	RateLimit          int     `toml:"rate_limit"` // requests per second
}

// TopicSubscription binds a logical listener name to a Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Storage configures Cloud Storage access.
type Storage struct {
	CredentialsFile   string `toml:"credentials_file"`
	PreviewURLMinutes int    `toml:"preview_url_minutes"`
}

// Forensics configures the analysis pipeline itself.
type Forensics struct {
	AgentModel         string `toml:"agent_model"`
	APIKey             string `toml:"api_key"`
	FrameCount         int    `toml:"frame_count"`
	JPEGQuality        int    `toml:"jpeg_quality"`
	MaxUploadBytes     int64  `toml:"max_upload_bytes"`
	SeekTimeoutSeconds int    `toml:"seek_timeout_seconds"`
	FFmpegPath         string `toml:"ffmpeg_path"`
	FFprobePath        string `toml:"ffprobe_path"`
	ResultsTopic       string `toml:"results_topic"`
}

// Server configures the HTTP front end.
type Server struct {
	Port                  int      `toml:"port"`
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds"`
	AllowedOrigins        []string `toml:"allowed_origins"`
}

type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"`
		SignerServiceAccountEmail string `toml:"signer_service_account_email"`
		LogLevel                  string `toml:"log_level"`
	} `toml:"application"`
	Server             Server                       `toml:"server"`
	Storage            Storage                      `toml:"storage"`
	Forensics          Forensics                    `toml:"forensics"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
	AgentModels        map[string]GenAILLMModel     `toml:"agent_models"`
}

// NewConfig returns a configuration populated with working defaults. TOML
// files decoded on top of it only override the keys they set.
func NewConfig() *Config {
	c := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels: map[string]GenAILLMModel{
			DefaultAgentModel: {
				Model:       DefaultModelName,
				Temperature: DefaultTemperature,
				RateLimit:   DefaultRateLimitPerSec,
			},
		},
	}
	c.Application.Name = "ai-media-forensics"
	c.Application.GoogleLocation = "us-central1"
	c.Application.LogLevel = "info"
	c.Server = Server{Port: DefaultServerPort, RequestTimeoutSeconds: DefaultRequestTimeout}
	c.Storage = Storage{PreviewURLMinutes: DefaultPreviewURLMins}
	c.Forensics = Forensics{
		AgentModel:         DefaultAgentModel,
		FrameCount:         DefaultFrameCount,
		JPEGQuality:        DefaultJPEGQuality,
		MaxUploadBytes:     DefaultMaxUploadBytes,
		SeekTimeoutSeconds: DefaultSeekTimeoutSecs,
		FFmpegPath:         "ffmpeg",
		FFprobePath:        "ffprobe",
	}
	return c
}

// ForensicModel returns the agent model used for analysis.
func (c *Config) ForensicModel() GenAILLMModel {
	if m, ok := c.AgentModels[c.Forensics.AgentModel]; ok {
		return m
	}
	return GenAILLMModel{Model: DefaultModelName, Temperature: DefaultTemperature, RateLimit: DefaultRateLimitPerSec}
}

// UsesVertexAI reports whether Gemini is reached through Vertex AI. An API
// key always selects the Gemini API.
func (c *Config) UsesVertexAI() bool {
	return c.Forensics.APIKey == "" && c.Application.GoogleProjectId != ""
}

// HasProject reports whether Google Cloud services beyond Gemini are
// available.
func (c *Config) HasProject() bool {
	return c.Application.GoogleProjectId != ""
}

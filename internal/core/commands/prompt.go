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
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
)

// DefaultForensicPrompt is the instruction block sent after the frames. It
// is a text/template with MULTI_FRAME, FRAME_COUNT and EXAMPLE_JSON.
const DefaultForensicPrompt = `Act as a world-class Digital Forensics Expert specializing in Generative AI detection.
Analyze the provided media content carefully.

Look for common Generative AI artifacts such as:
1. Inconsistent lighting or shadows.
2. Warped geometry (background lines not matching).
3. Anatomical errors (hands, eyes, teeth).
4. "AI Glaze" or overly smooth textures.
5. Text rendering errors.
6. Strange logical inconsistencies in the scene.
7. VISIBLE WATERMARKS OR SIGNATURES: Scan corners for text like "nanobanana", "Imagined with AI", color bars (common in DALL-E), or faint logo overlays.
{{if .MULTI_FRAME}}
The {{.FRAME_COUNT}} images provided are keyframes from a video, in temporal order. Treat them as a sequence to detect temporal inconsistencies or morphing artifacts common in deepfakes.
{{end}}
Set verdict to REAL, SUSPICIOUS or LIKELY_AI and confidence_score to a number between 0 and 100.
Example of the expected output:
{{.EXAMPLE_JSON}}

Provide a strict JSON response.`

// ForensicPrompt renders the forensic instruction block.
type ForensicPrompt struct {
	template *template.Template
}

// NewForensicPrompt parses source, or DefaultForensicPrompt when source is
// empty.
func NewForensicPrompt(source string) (*ForensicPrompt, error) {
	if source == "" {
		source = DefaultForensicPrompt
	}
	tmpl, err := template.New("forensic-prompt").Parse(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse forensic prompt: %w", err)
	}
	return &ForensicPrompt{template: tmpl}, nil
}

// Render produces the prompt for frameCount frames.
func (p *ForensicPrompt) Render(frameCount int) (string, error) {
	example, err := json.Marshal(model.GetExampleAnalysisResult())
	if err != nil {
		return "", err
	}
	params := map[string]any{
		"MULTI_FRAME":  frameCount > 1,
		"FRAME_COUNT":  frameCount,
		"EXAMPLE_JSON": string(example),
	}
	var buffer bytes.Buffer
	if err := p.template.Execute(&buffer, params); err != nil {
		return "", fmt.Errorf("failed to execute forensic prompt: %w", err)
	}
	return buffer.String(), nil
}

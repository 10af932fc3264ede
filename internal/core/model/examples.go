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

package model

// GetExampleAnalysisResult returns a fully populated result. It is rendered
// into the forensic prompt as a few-shot example of the expected JSON.
func GetExampleAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		IsAIGenerated:   true,
		ConfidenceScore: 87,
		Verdict:         VerdictLikelyAI,
		Reasoning: "The subject's left hand shows six fingers and the shadow under the chin falls " +
			"toward the key light. Skin has a uniform waxy sheen with no pores, and a faint " +
			"coloured bar is visible in the bottom right corner.",
		ArtifactsDetected: []string{
			"extra finger on left hand",
			"shadow direction contradicts light source",
			"glossy skin texture",
			"colour bar watermark in corner",
		},
		WatermarkDetected: true,
		TechnicalDetails: TechnicalDetails{
			LightingConsistency: "Inconsistent: the chin shadow points toward the key light.",
			AnatomyGeometry:     "Six fingers on the left hand; door frame bends behind the subject.",
			TextureQuality:      "Over-smoothed skin and hair with an AI glaze.",
		},
	}
}

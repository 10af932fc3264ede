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

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"google.golang.org/genai"
)

// Verdict is the categorical outcome of an analysis. The zero value is not a
// valid verdict.
type Verdict uint8

const (
	verdictUnknown Verdict = iota
	VerdictReal
	VerdictSuspicious
	VerdictLikelyAI
)

// Verdicts lists every valid verdict in increasing severity.
func Verdicts() []Verdict {
	return []Verdict{VerdictReal, VerdictSuspicious, VerdictLikelyAI}
}

func (v Verdict) String() string {
	switch v {
	case VerdictReal:
		return "REAL"
	case VerdictSuspicious:
		return "SUSPICIOUS"
	case VerdictLikelyAI:
		return "LIKELY_AI"
	default:
		return fmt.Sprintf("Verdict(%d)", uint8(v))
	}
}

// Severity orders verdicts from REAL (1) to LIKELY_AI (3). Invalid verdicts
// have severity 0.
func (v Verdict) Severity() int {
	switch v {
	case VerdictReal, VerdictSuspicious, VerdictLikelyAI:
		return int(v)
	default:
		return 0
	}
}

// ParseVerdict accepts exactly REAL, SUSPICIOUS or LIKELY_AI.
func ParseVerdict(s string) (Verdict, error) {
	for _, v := range Verdicts() {
		if v.String() == s {
			return v, nil
		}
	}
	return verdictUnknown, fmt.Errorf("unknown verdict %q", s)
}

func (v Verdict) MarshalText() ([]byte, error) {
	if v.Severity() == 0 {
		return nil, fmt.Errorf("cannot marshal invalid verdict %d", uint8(v))
	}
	return []byte(v.String()), nil
}

func (v *Verdict) UnmarshalText(text []byte) error {
	parsed, err := ParseVerdict(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// TechnicalDetails holds the per-dimension assessments.
type TechnicalDetails struct {
	LightingConsistency string `json:"lighting_consistency"`
	AnatomyGeometry     string `json:"anatomy_geometry"`
	TextureQuality      string `json:"texture_quality"`
}

// AnalysisResult is the structured verdict returned by the model. Values are
// only produced by ParseAnalysisResult and are never modified afterwards.
type AnalysisResult struct {
	IsAIGenerated     bool             `json:"is_ai_generated"`
	ConfidenceScore   float64          `json:"confidence_score"`
	Verdict           Verdict          `json:"verdict"`
	Reasoning         string           `json:"reasoning"`
	ArtifactsDetected []string         `json:"artifacts_detected"`
	WatermarkDetected bool             `json:"watermark_detected"`
	TechnicalDetails  TechnicalDetails `json:"technical_details"`
}

// IsConsistent reports whether the boolean flag agrees with the verdict.
// A REAL verdict flagged as AI generated, or a LIKELY_AI verdict that is not,
// is inconsistent. SUSPICIOUS is compatible with either flag.
func (r *AnalysisResult) IsConsistent() bool {
	switch r.Verdict {
	case VerdictReal:
		return !r.IsAIGenerated
	case VerdictLikelyAI:
		return r.IsAIGenerated
	default:
		return true
	}
}

// analysisResultDocument mirrors AnalysisResult with pointer fields so that a
// missing key can be told apart from a zero value.
type analysisResultDocument struct {
	IsAIGenerated     *bool                     `json:"is_ai_generated" validate:"required"`
	ConfidenceScore   *float64                  `json:"confidence_score" validate:"required,gte=0,lte=100"`
	Verdict           *string                   `json:"verdict" validate:"required,oneof=REAL SUSPICIOUS LIKELY_AI"`
	Reasoning         *string                   `json:"reasoning" validate:"required,min=1"`
	ArtifactsDetected []string                  `json:"artifacts_detected" validate:"required"`
	WatermarkDetected *bool                     `json:"watermark_detected" validate:"required"`
	TechnicalDetails  *technicalDetailsDocument `json:"technical_details" validate:"required"`
}

type technicalDetailsDocument struct {
	LightingConsistency *string `json:"lighting_consistency" validate:"required"`
	AnatomyGeometry     *string `json:"anatomy_geometry" validate:"required"`
	TextureQuality      *string `json:"texture_quality" validate:"required"`
}

var resultValidator = validator.New()

// ParseAnalysisResult decodes and validates a model response. Any deviation
// from the expected shape, including a confidence score outside [0, 100],
// an unknown verdict or an empty reasoning, is reported as ErrService.
func ParseAnalysisResult(data []byte) (*AnalysisResult, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrService)
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	doc := &analysisResultDocument{}
	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %w", ErrService, err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("%w: malformed response: unexpected data after the result", ErrService)
	}
	if err := resultValidator.Struct(doc); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return nil, fmt.Errorf("%w: malformed response: field %s failed %q check", ErrService, fe.Namespace(), fe.Tag())
		}
		return nil, fmt.Errorf("%w: malformed response: %w", ErrService, err)
	}
	if strings.TrimSpace(*doc.Reasoning) == "" {
		return nil, fmt.Errorf("%w: malformed response: reasoning is blank", ErrService)
	}
	verdict, err := ParseVerdict(*doc.Verdict)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed response: %w", ErrService, err)
	}

	return &AnalysisResult{
		IsAIGenerated:     *doc.IsAIGenerated,
		ConfidenceScore:   *doc.ConfidenceScore,
		Verdict:           verdict,
		Reasoning:         *doc.Reasoning,
		ArtifactsDetected: append([]string{}, doc.ArtifactsDetected...),
		WatermarkDetected: *doc.WatermarkDetected,
		TechnicalDetails: TechnicalDetails{
			LightingConsistency: *doc.TechnicalDetails.LightingConsistency,
			AnatomyGeometry:     *doc.TechnicalDetails.AnatomyGeometry,
			TextureQuality:      *doc.TechnicalDetails.TextureQuality,
		},
	}, nil
}

// AnalysisResultSchema is the response schema declared to the model.
func AnalysisResultSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"is_ai_generated": {
				Type:        genai.TypeBoolean,
				Description: "Whether the media is likely AI generated",
			},
			"confidence_score": {
				Type:        genai.TypeNumber,
				Description: "Confidence score between 0 and 100",
			},
			"verdict": {
				Type: genai.TypeString,
				Enum: []string{VerdictReal.String(), VerdictSuspicious.String(), VerdictLikelyAI.String()},
			},
			"reasoning": {
				Type:        genai.TypeString,
				Description: "A detailed paragraph explaining the forensic findings in plain language.",
			},
			"artifacts_detected": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "List of specific visual artifacts found (e.g., 'warped fingers', 'inconsistent shadows', 'glossy skin texture')",
			},
			"watermark_detected": {
				Type:        genai.TypeBoolean,
				Description: "Whether a visible watermark, text signature, or color bar typically associated with AI generators is present.",
			},
			"technical_details": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"lighting_consistency": {Type: genai.TypeString},
					"anatomy_geometry":     {Type: genai.TypeString},
					"texture_quality":      {Type: genai.TypeString},
				},
				Required: []string{"lighting_consistency", "anatomy_geometry", "texture_quality"},
			},
		},
		Required: []string{
			"is_ai_generated",
			"confidence_score",
			"verdict",
			"reasoning",
			"artifacts_detected",
			"watermark_detected",
			"technical_details",
		},
	}
}

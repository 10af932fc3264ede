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

import "time"

// VideoInfo is what a decoder learns about a video before any frame is read.
type VideoInfo struct {
	Duration time.Duration `json:"duration"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
}

// AnalysisReport pairs a verdict with the media it describes. It is what the
// HTTP API returns and what is published for asynchronous analyses.
type AnalysisReport struct {
	RunID      string          `json:"run_id"`
	Media      *MediaFile      `json:"media"`
	FrameCount int             `json:"frame_count"`
	Model      string          `json:"model,omitempty"`
	Source     string          `json:"source,omitempty"`
	Result     *AnalysisResult `json:"result"`
}

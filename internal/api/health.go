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

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse reports liveness and the model verdicts come from.
type HealthResponse struct {
	Status     string `json:"status"`
	Model      string `json:"model"`
	GCSEnabled bool   `json:"gcs_enabled"`
}

// HealthRouter registers GET /health.
func HealthRouter(r *gin.RouterGroup, h *Handlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:     "ok",
			Model:      h.Analyzer.ModelName(),
			GCSEnabled: h.Loader != nil,
		})
	})
}

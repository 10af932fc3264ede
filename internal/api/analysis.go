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

// Package api exposes the forensic pipeline over HTTP with gin.
package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prakashgnana97/AI-Image-generaot/internal/cloud"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
)

// Analyzer runs the forensic pipeline on one media file.
// workflow.ForensicAnalysisWorkflow implements it.
type Analyzer interface {
	Run(ctx context.Context, media *model.MediaFile) (*model.AnalysisReport, error)
	ModelName() string
}

// Loader fetches an object from Cloud Storage as a media file.
// services.MediaService implements it.
type Loader interface {
	Load(ctx context.Context, obj *cloud.GCSObject) (*model.MediaFile, error)
}

// Handlers holds the dependencies of the HTTP endpoints. A nil Loader
// disables the Cloud Storage endpoint.
type Handlers struct {
	Analyzer       Analyzer
	Loader         Loader
	MaxUploadBytes int64
}

// AnalysisRequest names an object that is already in Cloud Storage.
type AnalysisRequest struct {
	Bucket string `json:"bucket" binding:"required"`
	Name   string `json:"name" binding:"required"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AnalysisRouter registers:
//   - POST /analyses: multipart upload in the "file" field
//   - POST /analyses/gcs: JSON {"bucket": ..., "name": ...}
func AnalysisRouter(r *gin.RouterGroup, h *Handlers) {
	analyses := r.Group("/analyses")
	{
		analyses.POST("", h.AnalyzeUpload)
		analyses.POST("/gcs", h.AnalyzeGCSObject)
	}
}

// AnalyzeUpload analyzes the uploaded file. The payload is streamed from the
// multipart form and never buffered as a whole.
func (h *Handlers) AnalyzeUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No file uploaded."})
		return
	}
	if h.MaxUploadBytes > 0 && header.Size > h.MaxUploadBytes {
		h.fail(c, model.ErrFileTooLarge)
		return
	}

	media := model.NewMediaFile(header.Filename, header.Header.Get("Content-Type"), header.Size,
		func() (io.ReadCloser, error) {
			return header.Open()
		})
	h.analyze(c, media)
}

// AnalyzeGCSObject analyzes an object that is already stored in Cloud
// Storage.
func (h *Handlers) AnalyzeGCSObject(c *gin.Context) {
	if h.Loader == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Cloud Storage is not configured."})
		return
	}
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "A bucket and an object name are required."})
		return
	}

	media, err := h.Loader.Load(c.Request.Context(), &cloud.GCSObject{Bucket: req.Bucket, Name: req.Name})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.analyze(c, media)
}

func (h *Handlers) analyze(c *gin.Context, media *model.MediaFile) {
	report, err := h.Analyzer.Run(c.Request.Context(), media)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "analysis failed", "status", status, "error", err)
	} else {
		slog.InfoContext(c.Request.Context(), "analysis rejected", "status", status, "error", err)
	}
	c.JSON(status, ErrorResponse{Error: model.UserMessage(err)})
}

// StatusCode maps a pipeline error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, model.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, model.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrDecode), errors.Is(err, model.ErrRead), errors.Is(err, model.ErrTimeout):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrService):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

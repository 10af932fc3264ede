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

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakashgnana97/AI-Image-generaot/internal/api"
	"github.com/prakashgnana97/AI-Image-generaot/internal/cloud"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
	test "github.com/prakashgnana97/AI-Image-generaot/internal/testutil"
)

type stubAnalyzer struct {
	err   error
	media *model.MediaFile
	data  []byte
}

func (a *stubAnalyzer) Run(_ context.Context, media *model.MediaFile) (*model.AnalysisReport, error) {
	a.media = media
	if reader, err := media.Open(); err == nil {
		a.data, _ = io.ReadAll(reader)
		_ = reader.Close()
	}
	if a.err != nil {
		return nil, a.err
	}
	result, err := model.ParseAnalysisResult([]byte(test.RealResultJSON))
	if err != nil {
		return nil, err
	}
	return &model.AnalysisReport{RunID: "run-1", Media: media, FrameCount: 1, Model: a.ModelName(), Result: result}, nil
}

func (a *stubAnalyzer) ModelName() string {
	return cloud.DefaultModelName
}

type stubLoader struct {
	obj *cloud.GCSObject
	err error
}

func (l *stubLoader) Load(_ context.Context, obj *cloud.GCSObject) (*model.MediaFile, error) {
	l.obj = obj
	if l.err != nil {
		return nil, l.err
	}
	return model.NewMediaFileFromBytes(obj.Name, "image/png", test.NewTestPNG()), nil
}

func newRouter(h *api.Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v1 := r.Group("/api/v1")
	api.AnalysisRouter(v1, h)
	api.HealthRouter(v1, h)
	return r
}

func uploadRequest(t *testing.T, filename string, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Error
}

func TestAnalyzeUpload(t *testing.T) {
	analyzer := &stubAnalyzer{}
	router := newRouter(&api.Handlers{Analyzer: analyzer, MaxUploadBytes: cloud.DefaultMaxUploadBytes})
	raw := test.NewTestPNG()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "photo.png", "image/png", raw))
	require.Equal(t, http.StatusOK, rec.Code)

	var report model.AnalysisReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, model.VerdictReal, report.Result.Verdict)
	assert.Equal(t, "photo.png", report.Media.Name)

	assert.Equal(t, "image/png", analyzer.media.ContentType)
	assert.Equal(t, int64(len(raw)), analyzer.media.Size)
	assert.Equal(t, raw, analyzer.data)
}

func TestAnalyzeUploadWithoutFile(t *testing.T) {
	router := newRouter(&api.Handlers{Analyzer: &stubAnalyzer{}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses", nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeUploadTooLarge(t *testing.T) {
	analyzer := &stubAnalyzer{}
	router := newRouter(&api.Handlers{Analyzer: analyzer, MaxUploadBytes: 16})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "clip.mp4", "video/mp4", make([]byte, 17)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "File too large. Please upload files under 20MB.", decodeError(t, rec))
	assert.Nil(t, analyzer.media)
}

func TestAnalyzeUploadErrors(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{fmt.Errorf("content type %q: %w", "application/pdf", model.ErrUnsupportedFormat), http.StatusUnsupportedMediaType, "Unsupported file format. Please upload JPG, PNG, or MP4."},
		{model.ErrEmptyFile, http.StatusBadRequest, "The uploaded file is empty."},
		{fmt.Errorf("%w: no duration", model.ErrDecode), http.StatusUnprocessableEntity, "The video could not be decoded. Please upload a valid MP4."},
		{fmt.Errorf("%w: seek stalled", model.ErrTimeout), http.StatusUnprocessableEntity, "Timed out while extracting frames from the video."},
		{fmt.Errorf("%w: no response", model.ErrService), http.StatusBadGateway, "Forensic analysis failed due to an API error."},
		{errors.New("boom"), http.StatusInternalServerError, "Forensic analysis failed."},
	}
	for _, c := range cases {
		router := newRouter(&api.Handlers{Analyzer: &stubAnalyzer{err: c.err}})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, uploadRequest(t, "file.bin", "image/png", []byte{1, 2, 3}))

		assert.Equal(t, c.status, rec.Code, c.err.Error())
		assert.Equal(t, c.message, decodeError(t, rec))
	}
}

func TestAnalyzeGCSObject(t *testing.T) {
	loader := &stubLoader{}
	router := newRouter(&api.Handlers{Analyzer: &stubAnalyzer{}, Loader: loader})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/gcs", bytes.NewBufferString(`{"bucket": "evidence", "name": "photo.png"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, &cloud.GCSObject{Bucket: "evidence", Name: "photo.png"}, loader.obj)
}

func TestAnalyzeGCSObjectValidation(t *testing.T) {
	router := newRouter(&api.Handlers{Analyzer: &stubAnalyzer{}, Loader: &stubLoader{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/gcs", bytes.NewBufferString(`{"bucket": "evidence"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeGCSObjectLoadFailure(t *testing.T) {
	router := newRouter(&api.Handlers{Analyzer: &stubAnalyzer{}, Loader: &stubLoader{err: model.ErrFileTooLarge}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/gcs", bytes.NewBufferString(`{"bucket": "evidence", "name": "big.mp4"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalyzeGCSObjectWithoutStorage(t *testing.T) {
	router := newRouter(&api.Handlers{Analyzer: &stubAnalyzer{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/gcs", bytes.NewBufferString(`{"bucket": "evidence", "name": "a.png"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	router := newRouter(&api.Handlers{Analyzer: &stubAnalyzer{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, api.HealthResponse{Status: "ok", Model: cloud.DefaultModelName}, out)
}

func TestRequestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(api.RequestTimeout(50 * time.Millisecond))
	r.GET("/deadline", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/deadline", nil))
	assert.JSONEq(t, `{"deadline": true}`, rec.Body.String())
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, api.StatusCode(context.DeadlineExceeded))
	assert.Equal(t, http.StatusBadRequest, api.StatusCode(model.ErrInvalidFrameCount))
	assert.Equal(t, http.StatusUnprocessableEntity, api.StatusCode(model.ErrRead))
}

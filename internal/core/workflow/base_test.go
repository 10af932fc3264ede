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

package workflow_test

import (
	"context"
	"os"
	"testing"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"

	"github.com/prakashgnana97/AI-Image-generaot/internal/cloud"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/workflow"
	"github.com/prakashgnana97/AI-Image-generaot/internal/telemetry"
	test "github.com/prakashgnana97/AI-Image-generaot/internal/testutil"
)

const tName = "github.com/prakashgnana97/AI-Image-generaot/tests/workflow"

var (
	ctx    context.Context
	config *cloud.Config
	tracer = otel.Tracer(tName)
	logger = otelslog.NewLogger(tName)
)

func TestMain(m *testing.M) {
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	config = test.GetConfig()
	telemetry.SetupLogging(config.Application.LogLevel)

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		panic(err)
	}
	logger.Info("completed test setup")

	exitCode := m.Run()

	if err := shutdown(ctx); err != nil {
		logger.Error("failed to shutdown telemetry", "error", err)
	}
	os.Exit(exitCode)
}

// newWorkflow returns a workflow over a fake model and a fake nine second
// 64x36 video.
func newWorkflow(t *testing.T, response string) (*workflow.ForensicAnalysisWorkflow, *test.FakeGenerator, *test.FakeVideoDecoder) {
	t.Helper()
	generator := &test.FakeGenerator{Response: response}
	decoder := &test.FakeVideoDecoder{Info: model.VideoInfo{Duration: 9 * time.Second, Width: 64, Height: 36}}
	w, err := workflow.NewForensicAnalysisWorkflow(config, generator, decoder)
	if err != nil {
		t.Fatalf("failed to build workflow: %v", err)
	}
	return w, generator, decoder
}

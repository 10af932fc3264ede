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

// Package cor is a small chain of responsibility framework. A workflow is a
// Chain of Commands that share a Context; each command reads its input from
// the context, writes its output back and records failures as errors. The
// chain pipes the output of one command into the input of the next.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// CtxIn is the key holding the input of the command about to run.
	CtxIn = "__IN__"

	// CtxOut is the key a command writes its output to. The chain moves it to
	// CtxIn before the next command runs.
	CtxOut = "__OUT__"

	// CtxRunID holds the identifier that correlates the logs of one run.
	CtxRunID = "__RUN_ID__"
)

// Context carries data, errors and disposable resources between the commands
// of one workflow run. It is not safe for concurrent use; every run gets its
// own Context.
type Context interface {
	SetContext(context context.Context)
	GetContext() context.Context

	Add(key string, value any) Context
	Get(key string) any
	Remove(key string)

	AddError(key string, err error)
	GetErrors() map[string]error
	HasErrors() bool
	// Err joins the recorded errors in key order, or returns nil.
	Err() error

	// AddTempFile registers a path that Close removes.
	AddTempFile(file string)
	GetTempFiles() []string
	// AddCleanup registers a function that Close runs.
	AddCleanup(fn func())

	// Close releases everything registered on the context.
	Close()
}

// Executable is anything that can run against a Context.
type Executable interface {
	Execute(context Context)
}

// Command is a named, instrumented step of a workflow.
type Command interface {
	Executable

	GetName() string
	GetInputParam() string
	GetOutputParam() string

	// IsExecutable reports whether the context holds what Execute needs.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is a Command that runs other commands in order.
type Chain interface {
	Command

	ContinueOnFailure(bool) Chain
	AddCommand(command Command) Chain
}

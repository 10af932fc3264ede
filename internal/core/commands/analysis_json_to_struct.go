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
	"fmt"

	"github.com/prakashgnana97/AI-Image-generaot/internal/core/cor"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
)

// AnalysisJsonToStruct validates the raw model response and converts it into
// a *model.AnalysisResult, stored under the configured output parameter and
// passed on to the next command.
type AnalysisJsonToStruct struct {
	cor.BaseCommand
}

func NewAnalysisJsonToStruct(name string, outputParamName string) *AnalysisJsonToStruct {
	out := AnalysisJsonToStruct{BaseCommand: *cor.NewBaseCommand(name)}
	out.OutputParamName = outputParamName
	return &out
}

func (s *AnalysisJsonToStruct) Execute(context cor.Context) {
	in, ok := context.Get(s.GetInputParam()).(string)
	if !ok {
		s.Fail(context, fmt.Errorf("%w: expected a JSON string", model.ErrService))
		return
	}
	result, err := model.ParseAnalysisResult([]byte(in))
	if err != nil {
		s.Fail(context, err)
		return
	}
	warnIfInconsistent(context.GetContext(), result)

	s.Succeed(context, result)
	context.Add(cor.CtxOut, result)
}

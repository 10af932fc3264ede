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
	"context"
	"fmt"

	"github.com/prakashgnana97/AI-Image-generaot/internal/cloud"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/cor"
	"github.com/prakashgnana97/AI-Image-generaot/internal/core/model"
)

// MediaLoader fetches a stored object as a MediaFile.
// services.MediaService implements it.
type MediaLoader interface {
	Load(ctx context.Context, obj *cloud.GCSObject) (*model.MediaFile, error)
}

// GCSToMediaFile downloads the object named by the input *cloud.GCSObject and
// outputs a *model.MediaFile. The download is released when the run's
// context is closed.
type GCSToMediaFile struct {
	cor.BaseCommand
	loader MediaLoader
}

func NewGCSToMediaFile(name string, loader MediaLoader) *GCSToMediaFile {
	return &GCSToMediaFile{BaseCommand: *cor.NewBaseCommand(name), loader: loader}
}

func (c *GCSToMediaFile) Execute(context cor.Context) {
	obj, ok := context.Get(c.GetInputParam()).(*cloud.GCSObject)
	if !ok {
		c.Fail(context, fmt.Errorf("%w: expected a GCS object", model.ErrValidation))
		return
	}
	media, err := c.loader.Load(context.GetContext(), obj)
	if err != nil {
		c.Fail(context, err)
		return
	}
	context.AddCleanup(media.Release)
	c.Succeed(context, media)
}

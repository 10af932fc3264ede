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

package commands_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakashgnana97/AI-Image-generaot/internal/core/commands"
)

func TestParseProbeOutput(t *testing.T) {
	info, err := commands.ParseProbeOutput([]byte(`{
  "programs": [],
  "streams": [{"width": 1920, "height": 1080}],
  "format": {"duration": "12.480000"}
}`))
	require.NoError(t, err)
	assert.Equal(t, 12480*time.Millisecond, info.Duration)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 1080, info.Height)
}

func TestParseProbeOutputErrors(t *testing.T) {
	for name, in := range map[string]string{
		"not json":    `ffprobe: invalid data`,
		"no stream":   `{"streams": [], "format": {"duration": "3.0"}}`,
		"no duration": `{"streams": [{"width": 2, "height": 2}], "format": {"duration": "N/A"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := commands.ParseProbeOutput([]byte(in))
			assert.Error(t, err)
		})
	}
}

func TestSeekArgs(t *testing.T) {
	args := commands.SeekArgs("/tmp/in.mp4", 2250*time.Millisecond)
	assert.Equal(t, []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", "2.250",
		"-i", "/tmp/in.mp4",
		"-frames:v", "1",
		"-f", "image2pipe", "-vcodec", "png", "-",
	}, args)
}

func TestProbeArgs(t *testing.T) {
	args := commands.ProbeArgs("/tmp/in.mp4")
	assert.Equal(t, "/tmp/in.mp4", args[len(args)-1])
	assert.Contains(t, args, "json")
}

func TestNewFFMpegDecoderDefaults(t *testing.T) {
	decoder := commands.NewFFMpegDecoder("", " ")
	assert.Equal(t, commands.DefaultFFmpegCommand, decoder.FFmpegPath)
	assert.Equal(t, commands.DefaultFFprobeCommand, decoder.FFprobePath)
}

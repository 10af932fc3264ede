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
	"errors"
)

// Error kinds raised by the analysis pipeline. Concrete failures wrap one of
// these so callers can classify them with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrDecode     = errors.New("decode error")
	ErrTimeout    = errors.New("timeout error")
	ErrRead       = errors.New("read error")
	ErrService    = errors.New("service error")
)

// Intake failures. Each is an ErrValidation.
var (
	ErrUnsupportedFormat = &validationError{msg: "Unsupported file format. Please upload JPG, PNG, or MP4."}
	ErrFileTooLarge      = &validationError{msg: "File too large. Please upload files under 20MB."}
	ErrEmptyFile         = &validationError{msg: "The uploaded file is empty."}
	ErrInvalidFrameCount = &validationError{msg: "frame count must be greater than zero"}
)

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrValidation }

// UserMessage turns any pipeline error into the single sentence shown to the
// person who uploaded the file.
func UserMessage(err error) string {
	var ve *validationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.msg
	case errors.Is(err, ErrValidation):
		return "The uploaded file could not be accepted."
	case errors.Is(err, ErrTimeout):
		return "Timed out while extracting frames from the video."
	case errors.Is(err, ErrDecode):
		return "The video could not be decoded. Please upload a valid MP4."
	case errors.Is(err, ErrRead):
		return "The uploaded file could not be read."
	case errors.Is(err, ErrService):
		return "Forensic analysis failed due to an API error."
	default:
		return "Forensic analysis failed."
	}
}

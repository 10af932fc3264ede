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

package cloud

import (
	"fmt"
	"strings"
)

// GCSObjectParam is the context key under which the object that triggered a
// workflow is stored.
const GCSObjectParam = "__GCS__OBJ__"

// GCSPubSubNotification is the JSON payload Cloud Storage publishes for
// object change notifications.
type GCSPubSubNotification struct {
	Kind        string            `json:"kind"`
	ID          string            `json:"id"`
	SelfLink    string            `json:"selfLink"`
	Name        string            `json:"name"`
	Bucket      string            `json:"bucket"`
	Generation  string            `json:"generation"`
	ContentType string            `json:"contentType"`
	TimeCreated string            `json:"timeCreated"`
	Updated     string            `json:"updated"`
	Size        string            `json:"size"`
	MD5Hash     string            `json:"md5Hash"`
	MediaLink   string            `json:"mediaLink"`
	MetaData    map[string]string `json:"metadata"`
}

// GCSObject identifies one Cloud Storage object.
type GCSObject struct {
	Bucket   string `json:"bucket"`
	Name     string `json:"name"`
	MIMEType string `json:"mime_type,omitempty"`
}

// URI returns the gs:// form of the object location.
func (o *GCSObject) URI() string {
	return fmt.Sprintf("gs://%s/%s", o.Bucket, o.Name)
}

// ParseGCSURI accepts gs://bucket/object and the storage.googleapis.com and
// storage.mtls.cloud.google.com HTTPS forms.
func ParseGCSURI(uri string) (*GCSObject, error) {
	var path string
	for _, prefix := range []string{"gs://", "https://storage.googleapis.com/", "https://storage.mtls.cloud.google.com/"} {
		if strings.HasPrefix(uri, prefix) {
			path = strings.TrimPrefix(uri, prefix)
			break
		}
	}
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid GCS URI: %q", uri)
	}
	return &GCSObject{Bucket: parts[0], Name: parts[1]}, nil
}

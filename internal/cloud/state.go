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
	"context"
	"errors"
	"fmt"
	"log/slog"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
	"google.golang.org/genai"
)

// ServiceClients bundles the clients shared by every workflow. Storage,
// Pub/Sub and IAM are only created when a Google Cloud project is configured;
// the corresponding fields are nil otherwise.
type ServiceClients struct {
	StorageClient   *storage.Client
	PubsubClient    *pubsub.Client
	GenAIClient     *genai.Client
	IAMClient       *credentials.IamCredentialsClient
	PubSubListeners map[string]*PubSubListener
	AgentModels     map[string]*QuotaAwareGenerativeAIModel
	ResultsTopic    *pubsub.Topic
}

// Close releases every client that was created.
func (c *ServiceClients) Close() error {
	var err error
	if c.ResultsTopic != nil {
		c.ResultsTopic.Stop()
	}
	if c.StorageClient != nil {
		err = errors.Join(err, c.StorageClient.Close())
	}
	if c.PubsubClient != nil {
		err = errors.Join(err, c.PubsubClient.Close())
	}
	if c.IAMClient != nil {
		err = errors.Join(err, c.IAMClient.Close())
	}
	return err
}

// NewCloudServiceClients creates the genai client and rate limited agent
// models, and, when a project is configured, the Storage, Pub/Sub and IAM
// clients plus one listener per configured subscription.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	gc, err := NewGenAIClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("error creating genai client: %w", err)
	}

	cloud = &ServiceClients{
		GenAIClient:     gc,
		PubSubListeners: make(map[string]*PubSubListener),
		AgentModels:     make(map[string]*QuotaAwareGenerativeAIModel),
	}

	for amKey, values := range config.AgentModels {
		cloud.AgentModels[amKey] = NewQuotaAwareModel(NewGenerateContentConfig(values), values.Model, gc.Models, values.RateLimit)
		slog.Debug("configured agent model", "key", amKey, "model", values.Model)
	}

	if !config.HasProject() {
		slog.Info("no google project configured; storage and pub/sub are disabled")
		return cloud, nil
	}

	var opts []option.ClientOption
	if config.Storage.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.Storage.CredentialsFile))
	}

	if cloud.StorageClient, err = storage.NewClient(ctx, opts...); err != nil {
		return nil, fmt.Errorf("error creating storage client: %w", err)
	}
	if cloud.PubsubClient, err = pubsub.NewClient(ctx, config.Application.GoogleProjectId, opts...); err != nil {
		_ = cloud.Close()
		return nil, fmt.Errorf("error creating pubsub client: %w", err)
	}
	if cloud.IAMClient, err = credentials.NewIamCredentialsClient(ctx, opts...); err != nil {
		_ = cloud.Close()
		return nil, fmt.Errorf("error creating iam credentials client: %w", err)
	}

	for subKey, values := range config.TopicSubscriptions {
		listener, err := NewPubSubListener(cloud.PubsubClient, values.Name, nil)
		if err != nil {
			_ = cloud.Close()
			return nil, err
		}
		cloud.PubSubListeners[subKey] = listener
	}

	if config.Forensics.ResultsTopic != "" {
		cloud.ResultsTopic = cloud.PubsubClient.Topic(config.Forensics.ResultsTopic)
	}
	return cloud, nil
}

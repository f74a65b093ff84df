/*
 * Copyright 2025 The Scadaflow Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package twin implements types.DigitalTwinClient against an Eclipse
// Ditto compatible things API.
package twin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/utils/json"
)

// Config configures the things API connection.
type Config struct {
	// BaseUrl is the Ditto endpoint, e.g. http://ditto:8080
	BaseUrl string
	// Username for basic auth
	Username string
	// Password for basic auth
	Password string
	// Timeout per request, defaults to 10s
	Timeout time.Duration
}

// Client is a thin HTTP client for the Ditto things API. A 404 maps to
// types.ErrNotFound so enrichment nodes can pass missing twins through.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a things API client.
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	config.BaseUrl = strings.TrimSuffix(config.BaseUrl, "/")
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// GetThing returns the full twin document for an entity.
func (c *Client) GetThing(ctx context.Context, thingId string) (map[string]interface{}, error) {
	return c.getJson(ctx, c.thingPath(thingId))
}

// GetAttributes returns the attributes section of a twin.
func (c *Client) GetAttributes(ctx context.Context, thingId string) (map[string]interface{}, error) {
	return c.getJson(ctx, c.thingPath(thingId)+"/attributes")
}

// GetFeatureProperties returns the properties of one feature.
func (c *Client) GetFeatureProperties(ctx context.Context, thingId, feature string) (map[string]interface{}, error) {
	return c.getJson(ctx, c.featurePropertiesPath(thingId, feature))
}

// UpdateFeatureProperties replaces the properties of one feature.
func (c *Client) UpdateFeatureProperties(ctx context.Context, thingId, feature string, props map[string]interface{}) error {
	return c.writeJson(ctx, http.MethodPut, c.featurePropertiesPath(thingId, feature), props)
}

// PatchFeatureProperties merges props into the feature properties.
func (c *Client) PatchFeatureProperties(ctx context.Context, thingId, feature string, props map[string]interface{}) error {
	return c.writeJson(ctx, http.MethodPatch, c.featurePropertiesPath(thingId, feature), props)
}

func (c *Client) thingPath(thingId string) string {
	return c.config.BaseUrl + "/api/2/things/" + url.PathEscape(thingId)
}

func (c *Client) featurePropertiesPath(thingId, feature string) string {
	return c.thingPath(thingId) + "/features/" + url.PathEscape(feature) + "/properties"
}

func (c *Client) getJson(ctx context.Context, endpoint string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	response, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	if response.StatusCode == http.StatusNotFound {
		return nil, types.ErrNotFound
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("ditto request failed: %s - %s", response.Status, string(body))
	}
	var result map[string]interface{}
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) writeJson(ctx context.Context, method, endpoint string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	response, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode == http.StatusNotFound {
		return types.ErrNotFound
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(response.Body)
		return fmt.Errorf("ditto request failed: %s - %s", response.Status, string(errorBody))
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.config.Username != "" {
		req.SetBasicAuth(c.config.Username, c.config.Password)
	}
}

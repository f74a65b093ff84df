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

package external

//Node configuration example:
//{
//        "id": "s1",
//        "type": "restApiCall",
//        "name": "push to webhook",
//        "debugMode": false,
//        "configuration": {
//          "restEndpointUrlPattern": "http://192.168.1.100:9090/api/alarms/${assetId}",
//          "requestMethod": "POST",
//          "maxParallelRequestsCount": 200
//        }
//      }
import (
	"bytes"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/utils/json"
	"github.com/scadaflow/scadaflow/utils/maps"
	"github.com/scadaflow/scadaflow/utils/str"
)

func init() {
	Registry.Add(&RestApiCallNode{})
}

const (
	// StatusMetadataKey response status of the last call, e.g. "200 OK"
	StatusMetadataKey = "status"
	// StatusCodeMetadataKey response status code of the last call
	StatusCodeMetadataKey = "statusCode"
	// ErrorBodyMetadataKey response body of a failed call
	ErrorBodyMetadataKey = "errorBody"
	// ResponseBodyKey payload key holding a non-JSON response body
	ResponseBodyKey = "responseBody"

	contentTypeKey  = "Content-Type"
	jsonContentType = "application/json"
)

// RestApiCallNodeConfiguration node configuration
type RestApiCallNodeConfiguration struct {
	// RestEndpointUrlPattern is the endpoint URL. `${key}` placeholders
	// are replaced with metadata values
	RestEndpointUrlPattern string
	// RequestMethod GET/POST/PUT/DELETE/PATCH/HEAD
	RequestMethod string
	// Headers to send with the request, values support `${key}` metadata
	// placeholders
	Headers map[string]string
	// Body is the request body template. `{{path}}` placeholders are
	// resolved against the payload. Empty means the whole payload is
	// sent as JSON
	Body string
	// ReadTimeoutMs http client timeout in milliseconds, 0 means no timeout
	ReadTimeoutMs int
	// MaxParallelRequestsCount limits connections per host, 0 means no limit
	MaxParallelRequestsCount int
	// InsecureSkipVerify skips TLS certificate verification
	InsecureSkipVerify bool
}

// RestApiCallNode calls a REST endpoint and routes by the response.
// A 2xx response goes to the `Success` chain with the response body as the
// new payload, anything else to the `Failure` chain with the status and
// error body recorded in metadata.
type RestApiCallNode struct {
	//node configuration
	Config RestApiCallNodeConfiguration

	httpClient *http.Client
	urlHasVar  bool
	bodyHasVar bool
}

// Type component type
func (x *RestApiCallNode) Type() string {
	return "restApiCall"
}
func (x *RestApiCallNode) New() types.Node {
	headers := map[string]string{contentTypeKey: jsonContentType}
	return &RestApiCallNode{Config: RestApiCallNodeConfiguration{
		RequestMethod:            http.MethodPost,
		ReadTimeoutMs:            2000,
		MaxParallelRequestsCount: 200,
		Headers:                  headers,
	}}
}

// Init initializes the component
func (x *RestApiCallNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err != nil {
		return err
	}
	if x.Config.RestEndpointUrlPattern == "" {
		return errors.New("restEndpointUrlPattern can not be empty")
	}
	x.Config.RequestMethod = strings.ToUpper(x.Config.RequestMethod)
	x.urlHasVar = strings.Contains(x.Config.RestEndpointUrlPattern, "${")
	x.bodyHasVar = str.HasTemplate(x.Config.Body)
	x.httpClient = NewHttpClient(x.Config)
	return nil
}

// OnMsg processes the message
func (x *RestApiCallNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	metadata := msg.Metadata.Values()
	endpointUrl := x.Config.RestEndpointUrlPattern
	if x.urlHasVar {
		endpointUrl = str.SprintfDict(endpointUrl, metadata)
	}
	body, err := x.requestBody(msg)
	if err != nil {
		ctx.TellFailure(msg, err)
		return
	}
	req, err := http.NewRequestWithContext(ctx.GetContext(), x.Config.RequestMethod, endpointUrl, bytes.NewReader(body))
	if err != nil {
		ctx.TellFailure(msg, err)
		return
	}
	for key, value := range x.Config.Headers {
		req.Header.Set(str.SprintfDict(key, metadata), str.SprintfDict(value, metadata))
	}

	response, err := x.httpClient.Do(req)
	defer func() {
		if response != nil && response.Body != nil {
			_ = response.Body.Close()
		}
	}()
	if err != nil {
		ctx.TellFailure(msg, err)
		return
	}
	b, err := io.ReadAll(response.Body)
	if err != nil {
		ctx.TellFailure(msg, err)
		return
	}
	msg.Metadata.PutValue(StatusMetadataKey, response.Status)
	msg.Metadata.PutValue(StatusCodeMetadataKey, strconv.Itoa(response.StatusCode))
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		msg.Data = responsePayload(b)
		ctx.TellSuccess(msg)
	} else {
		msg.Metadata.PutValue(ErrorBodyMetadataKey, string(b))
		ctx.TellFailure(msg, errors.New(response.Status))
	}
}

// Destroy releases resources
func (x *RestApiCallNode) Destroy() {
	if x.httpClient != nil {
		x.httpClient.CloseIdleConnections()
	}
}

func (x *RestApiCallNode) requestBody(msg types.RuleMsg) ([]byte, error) {
	if x.Config.Body != "" {
		if x.bodyHasVar {
			return []byte(str.ResolveTemplate(x.Config.Body, msg.Data)), nil
		}
		return []byte(x.Config.Body), nil
	}
	return json.Marshal(msg.Data)
}

// responsePayload decodes a JSON object response into the new payload.
// Anything else is kept verbatim under the responseBody key.
func responsePayload(b []byte) map[string]interface{} {
	var data map[string]interface{}
	if len(b) > 0 && json.Unmarshal(b, &data) == nil && data != nil {
		return data
	}
	return map[string]interface{}{ResponseBodyKey: string(b)}
}

// NewHttpClient creates a http client from the node configuration
func NewHttpClient(config RestApiCallNodeConfiguration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: config.InsecureSkipVerify}
	transport.MaxConnsPerHost = config.MaxParallelRequestsCount
	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(config.ReadTimeoutMs) * time.Millisecond,
	}
}

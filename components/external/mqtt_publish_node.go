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
//        "id": "s3",
//        "type": "mqttPublish",
//        "name": "push to scada broker",
//        "debugMode": false,
//        "configuration": {
//          "server": "127.0.0.1:1883",
//          "topic": "scadaflow/${assetId}/alarms"
//        }
//      }
import (
	"errors"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/gofrs/uuid/v5"

	"github.com/scadaflow/scadaflow/api/types"
	"github.com/scadaflow/scadaflow/utils/json"
	"github.com/scadaflow/scadaflow/utils/maps"
	"github.com/scadaflow/scadaflow/utils/str"
)

// ErrMqttNotConnected the broker connection is down
var ErrMqttNotConnected = errors.New("mqtt client not connected")

const publishTimeout = 5 * time.Second

func init() {
	Registry.Add(&MqttPublishNode{})
}

// MqttPublishNodeConfiguration node configuration
type MqttPublishNodeConfiguration struct {
	//Topic to publish to, `${key}` placeholders read metadata values
	Topic string
	//Server broker address, host:port
	Server string
	//Username for authentication
	Username string
	//Password for authentication
	Password string
	//MaxReconnectInterval reconnect interval in seconds
	MaxReconnectInterval int
	//QOS quality of service for published messages
	QOS uint8
	//CleanSession starts without persisted broker state
	CleanSession bool
	//ClientID of the connection, a random id when empty
	ClientID string
}

// MqttPublishNode publishes the message payload to a MQTT broker topic.
// The payload is serialized as JSON. On success the message goes to the
// `Success` chain, otherwise to the `Failure` chain.
type MqttPublishNode struct {
	//node configuration
	Config MqttPublishNodeConfiguration
	client paho.Client
}

// Type component type
func (x *MqttPublishNode) Type() string {
	return "mqttPublish"
}

func (x *MqttPublishNode) New() types.Node {
	return &MqttPublishNode{Config: MqttPublishNodeConfiguration{
		Topic:                "scadaflow/msg",
		Server:               "127.0.0.1:1883",
		QOS:                  0,
		MaxReconnectInterval: 60,
	}}
}

// Init initializes the component
func (x *MqttPublishNode) Init(ruleConfig types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err != nil {
		return err
	}
	if x.Config.Server == "" {
		return errors.New("server can not be empty")
	}
	if x.Config.MaxReconnectInterval <= 0 {
		x.Config.MaxReconnectInterval = 60
	}
	clientID := x.Config.ClientID
	if clientID == "" {
		id, _ := uuid.NewV4()
		clientID = "scadaflow-" + id.String()
	}
	opts := paho.NewClientOptions().
		AddBroker(x.Config.Server).
		SetUsername(x.Config.Username).
		SetPassword(x.Config.Password).
		SetCleanSession(x.Config.CleanSession).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetMaxReconnectInterval(time.Duration(x.Config.MaxReconnectInterval) * time.Second)
	x.client = paho.NewClient(opts)
	// connects in the background, publishes fail until the broker is up
	x.client.Connect()
	return nil
}

// OnMsg processes the message
func (x *MqttPublishNode) OnMsg(ctx types.RuleContext, msg types.RuleMsg) {
	if x.client == nil || !x.client.IsConnectionOpen() {
		ctx.TellFailure(msg, ErrMqttNotConnected)
		return
	}
	payload, err := json.Marshal(msg.Data)
	if err != nil {
		ctx.TellFailure(msg, err)
		return
	}
	topic := str.SprintfDict(x.Config.Topic, msg.Metadata.Values())
	token := x.client.Publish(topic, x.Config.QOS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		ctx.TellFailure(msg, errors.New("mqtt publish timeout"))
		return
	}
	if err := token.Error(); err != nil {
		ctx.TellFailure(msg, err)
		return
	}
	ctx.TellSuccess(msg)
}

// Destroy releases resources
func (x *MqttPublishNode) Destroy() {
	if x.client != nil {
		x.client.Disconnect(250)
		x.client = nil
	}
}

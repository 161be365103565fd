// Copyright 2021 Google LLC
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

package hand

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/aamcrae/ringclock/motor"
)

const mqttTimeout = 5 * time.Second

// MQTTPublisher publishes the hand status as retained JSON messages,
// one topic per hand under a common prefix.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
}

// NewMQTTPublisher connects to the broker e.g "tcp://localhost:1883".
func NewMQTTPublisher(broker, clientID, topic string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttTimeout)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttTimeout) {
		return nil, fmt.Errorf("%s: connect timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%s: %w", broker, err)
	}
	log.Printf("Connected to MQTT broker %s, topic %s", broker, topic)
	return &MQTTPublisher{client: client, topic: topic}, nil
}

// Topic returns the topic used for the status of the named hand.
func (p *MQTTPublisher) Topic(name string) string {
	return p.topic + "/" + name
}

// Publish sends the status of one hand.
func (p *MQTTPublisher) Publish(s motor.Status) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.Topic(s.Name), 0, true, payload)
	if !token.WaitTimeout(mqttTimeout) {
		return fmt.Errorf("%s: publish timeout", p.Topic(s.Name))
	}
	return token.Error()
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

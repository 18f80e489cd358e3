/*
Framolux Core
Copyright (C) 2025 The Framolux Authors

This file is part of Framolux Core.

Framolux Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Framolux Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Framolux Core.  If not, see <http://www.gnu.org/licenses/>.
*/

package publishers

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/config"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectQuiesce = 250
)

// MQTTPublisher forwards bridge notifications to an MQTT broker. Each
// notification is published to <topic>/<method> with its params as the
// payload.
type MQTTPublisher struct {
	client   mqtt.Client
	stopCh   chan struct{}
	broker   string
	topic    string
	username string
	password string
	filter   []string
	wg       sync.WaitGroup
}

// NewMQTTPublisher creates a publisher for broker (host:port). An empty
// filter publishes every notification except preview frames, which only
// pass when named explicitly.
func NewMQTTPublisher(broker, topic string, filter []string) *MQTTPublisher {
	return &MQTTPublisher{
		broker: broker,
		topic:  strings.TrimSuffix(topic, "/"),
		filter: filter,
		stopCh: make(chan struct{}),
	}
}

// FromConfig builds a publisher for every enabled [[service.publishers.mqtt]]
// entry. Broker credentials come from auth.toml under tcp://<broker>.
func FromConfig(cfg *config.Instance) []*MQTTPublisher {
	var pubs []*MQTTPublisher
	for _, pc := range cfg.MQTTPublishers() {
		if !pc.IsEnabled() || pc.Broker == "" {
			continue
		}
		p := NewMQTTPublisher(pc.Broker, pc.Topic, pc.Filter)
		if creds := cfg.LookupAuth("tcp://" + pc.Broker); creds != nil {
			p.username = creds.Username
			p.password = creds.Password
		}
		pubs = append(pubs, p)
	}
	return pubs
}

func (p *MQTTPublisher) Broker() string {
	return p.broker
}

// Start connects to the broker and publishes notifications until Stop is
// called or the channel closes.
func (p *MQTTPublisher) Start(notifications <-chan models.Notification) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker("tcp://" + p.broker)
	opts.SetClientID("framolux-publisher-" + uuid.New().String()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(connectTimeout)
	if p.username != "" {
		opts.SetUsername(p.username)
		opts.SetPassword(p.password)
	}

	opts.OnConnect = func(_ mqtt.Client) {
		log.Info().Msgf("mqtt publisher: connected to %s", p.broker)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt publisher: connection lost")
	}

	p.client = mqtt.NewClient(opts)
	token := p.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Info().Msgf("mqtt publisher: publishing to %s (topic: %s)", p.broker, p.topic)
	p.wg.Add(1)
	go p.publishNotifications(notifications)
	return nil
}

// Stop ends the publish loop and disconnects. Calling it twice is a no-op.
func (p *MQTTPublisher) Stop() {
	select {
	case <-p.stopCh:
		return
	default:
		close(p.stopCh)
	}
	p.wg.Wait()

	if p.client != nil && p.client.IsConnected() {
		log.Debug().Msg("mqtt publisher: disconnecting")
		p.client.Disconnect(disconnectQuiesce)
	}
}

func (p *MQTTPublisher) publishNotifications(notifications <-chan models.Notification) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case notif, ok := <-notifications:
			if !ok {
				log.Debug().Msg("mqtt publisher: notification channel closed")
				return
			}
			if !p.matchesFilter(notif.Method) {
				continue
			}
			if err := p.publish(notif); err != nil {
				log.Error().Err(err).Msgf("mqtt publisher: failed to publish %s", notif.Method)
			}
		}
	}
}

func (p *MQTTPublisher) publish(notif models.Notification) error {
	payload := []byte(notif.Params)
	if len(payload) == 0 {
		payload = []byte("{}")
	} else if !json.Valid(payload) {
		return fmt.Errorf("invalid params for %s", notif.Method)
	}

	token := p.client.Publish(p.topicFor(notif.Method), 0, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish: %w", token.Error())
	}
	return nil
}

// topicFor maps devices.scan.finished to <topic>/devices/scan/finished.
func (p *MQTTPublisher) topicFor(method string) string {
	return p.topic + "/" + strings.ReplaceAll(method, ".", "/")
}

func (p *MQTTPublisher) matchesFilter(method string) bool {
	if len(p.filter) == 0 {
		return method != models.NotificationPreviewFrame
	}
	return slices.Contains(p.filter, method)
}

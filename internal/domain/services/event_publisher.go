package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"actrec-directory/internal/infrastructure/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Directory change event types
const (
	EventContactsCreated = "created"
	EventContactsUpdated = "updated"
	EventContactsDeleted = "deleted"
)

// DirectoryEvent announces that contacts changed
type DirectoryEvent struct {
	Type string    `json:"type"`
	IDs  []string  `json:"ids"`
	At   time.Time `json:"at"`
}

// InterfaceEventPublisher defines the change event sink
type InterfaceEventPublisher interface {
	Publish(ctx context.Context, event DirectoryEvent) error
	Close()
}

// MQTTEventPublisher publishes directory events to <prefix>/contacts/<type>
type MQTTEventPublisher struct {
	client   mqtt.Client
	prefix   string
	qos      byte
	retained bool
	timeout  time.Duration
	logger   *zap.Logger
}

// NewMQTTEventPublisher connects to the configured broker
func NewMQTTEventPublisher(cfg *config.Config, logger *zap.Logger) (*MQTTEventPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBrokerURL)
	// unique per instance so replicas do not kick each other off the broker
	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.MQTTClientID, uuid.NewString()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", zap.Error(err))
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("failed to connect to MQTT broker: timed out")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	qos := cfg.MQTTQoS
	if qos < 0 || qos > 2 {
		qos = 1
	}
	return &MQTTEventPublisher{
		client:   client,
		prefix:   strings.TrimSuffix(cfg.MQTTTopicPrefix, "/"),
		qos:      byte(qos),
		retained: cfg.MQTTRetained,
		timeout:  5 * time.Second,
		logger:   logger,
	}, nil
}

// Topic returns the topic an event of the given type is published on
func (p *MQTTEventPublisher) Topic(eventType string) string {
	return p.prefix + "/contacts/" + eventType
}

// 1 Publish sends event and waits for the broker acknowledgement, at most
// until ctx's deadline or the publisher timeout, whichever comes first
func (p *MQTTEventPublisher) Publish(ctx context.Context, event DirectoryEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	token := p.client.Publish(p.Topic(event.Type), p.qos, p.retained, payload)

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish to %s timed out", p.Topic(event.Type))
	}
	return token.Error()
}

// 2 Close disconnects from the broker
func (p *MQTTEventPublisher) Close() {
	p.client.Disconnect(250)
}

// NoopEventPublisher is used when no broker is configured
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(context.Context, DirectoryEvent) error { return nil }
func (NoopEventPublisher) Close()                                       {}

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/layer-3/w3o/ports"
)

const (
	// SessionTopic carries current-session changes
	SessionTopic = "w3o.session"
	// NetworkTopic carries current-network changes
	NetworkTopic = "w3o.network"
	// LogoutTopic carries session logouts
	LogoutTopic = "w3o.logout"
)

// SessionChangeEvent is published whenever the current session changes.
// An empty SessionID means no session is current.
type SessionChangeEvent struct {
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

// NetworkChangeEvent is published whenever the current network changes
type NetworkChangeEvent struct {
	Network string    `json:"network"`
	At      time.Time `json:"at"`
}

// LogoutEvent represents a logout event
type LogoutEvent struct {
	Address   string    `json:"address"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	prefix    string
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)

// NewWatermillPublisher creates a new Watermill publisher. A non-empty
// prefix is prepended to every topic, e.g. the application name.
func NewWatermillPublisher(publisher message.Publisher, prefix string) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		prefix:    prefix,
	}
}

// Topic returns the full topic name for topic
func (p *WatermillPublisher) Topic(topic string) string {
	if p.prefix == "" {
		return topic
	}
	return p.prefix + "." + topic
}

// PublishSessionChange publishes a session change event
func (p *WatermillPublisher) PublishSessionChange(ctx context.Context, sessionID string) error {
	return p.publish(ctx, SessionTopic, SessionChangeEvent{SessionID: sessionID, At: time.Now().UTC()})
}

// PublishNetworkChange publishes a network change event
func (p *WatermillPublisher) PublishNetworkChange(ctx context.Context, networkName string) error {
	return p.publish(ctx, NetworkTopic, NetworkChangeEvent{Network: networkName, At: time.Now().UTC()})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string, sessionID string) error {
	return p.publish(ctx, LogoutTopic, LogoutEvent{Address: address, SessionID: sessionID, At: time.Now().UTC()})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.Topic(topic), msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

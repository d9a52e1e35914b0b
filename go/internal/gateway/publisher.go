package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// RoomEvent is a room lifecycle event mirrored to the event feed
type RoomEvent struct {
	ID        string          `json:"eventId"`
	Type      EventType       `json:"eventType"`
	RoomCode  string          `json:"roomCode"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Publisher mirrors room events to an external feed. Publish must not block
// the hub.
type Publisher interface {
	Publish(event RoomEvent) error
	Close() error
}

// NoopPublisher drops every event, used when no feed is configured
type NoopPublisher struct{}

func (NoopPublisher) Publish(RoomEvent) error { return nil }
func (NoopPublisher) Close() error            { return nil }

// NATSConfig holds configuration for the NATS event feed
type NATSConfig struct {
	URL           string
	SubjectPrefix string // events go to <prefix>.<room code>.<event type>
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default NATS feed configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "kitchen.rooms",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// NATSPublisher publishes room events on core NATS subjects
type NATSPublisher struct {
	nc     *nats.Conn
	config NATSConfig
}

// NewNATSPublisher connects to NATS and returns a feed publisher
func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("pizzeria-gateway"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Info().
		Str("url", nc.ConnectedUrl()).
		Str("subject_prefix", cfg.SubjectPrefix).
		Msg("room event feed connected")

	return &NATSPublisher{nc: nc, config: cfg}, nil
}

// Subject returns the subject an event is published on
func (p *NATSPublisher) Subject(event RoomEvent) string {
	return fmt.Sprintf("%s.%s.%s", p.config.SubjectPrefix, event.RoomCode, event.Type)
}

// Publish buffers the event in the NATS client; delivery is at-most-once
func (p *NATSPublisher) Publish(event RoomEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal room event: %w", err)
	}

	msg := &nats.Msg{
		Subject: p.Subject(event),
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{string(event.Type)},
			"Room-Code":  []string{event.RoomCode},
			"Event-ID":   []string{event.ID},
		},
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to NATS: %w", err)
	}
	return nil
}

// Close flushes pending events and closes the connection
func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}

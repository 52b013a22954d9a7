/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus forwards in-process pipeline events to NATS so other
// services can react to published snapshots without polling the output
// directory.
package eventbus

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/friendsincode/bshorts_feed/internal/events"
)

// SubjectPrefix namespaces every forwarded event subject.
const SubjectPrefix = "bshorts"

// Forwarder bridges the in-process event bus onto NATS subjects like
// "bshorts.snapshot.published". A nil Forwarder is a no-op, so callers
// do not need to branch on whether NATS is configured.
type Forwarder struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// natsHeaderCarrier adapts nats.Msg headers for OTel TextMapCarrier.
type natsHeaderCarrier nats.Msg

func (c *natsHeaderCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *natsHeaderCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *natsHeaderCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// Connect establishes a NATS connection. URL "" returns a nil Forwarder.
func Connect(url string, logger zerolog.Logger) (*Forwarder, error) {
	if url == "" {
		return nil, nil
	}

	conn, err := nats.Connect(url,
		nats.Name("bshorts-feed"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}

	componentLogger := logger.With().Str("component", "eventbus").Logger()
	componentLogger.Info().Str("url", url).Msg("connected to NATS")
	return &Forwarder{conn: conn, logger: componentLogger}, nil
}

// Attach subscribes the forwarder to bus and republishes matching events
// onto NATS until the context is cancelled.
func (f *Forwarder) Attach(ctx context.Context, bus *events.Bus, types ...events.EventType) {
	if f == nil {
		return
	}
	for _, eventType := range types {
		sub := bus.Subscribe(eventType)
		go func(eventType events.EventType, sub events.Subscriber) {
			for {
				select {
				case <-ctx.Done():
					bus.Unsubscribe(eventType, sub)
					return
				case payload, ok := <-sub:
					if !ok {
						return
					}
					f.publish(ctx, eventType, payload)
				}
			}
		}(eventType, sub)
	}
}

// publish serializes payload as JSON with trace context injected into the
// message headers.
func (f *Forwarder) publish(ctx context.Context, eventType events.EventType, payload events.Payload) {
	data, err := json.Marshal(payload)
	if err != nil {
		f.logger.Error().Err(err).Str("event", string(eventType)).Msg("failed to marshal event payload")
		return
	}

	msg := &nats.Msg{
		Subject: SubjectPrefix + "." + string(eventType),
		Data:    data,
	}
	otel.GetTextMapPropagator().Inject(ctx, (*natsHeaderCarrier)(msg))

	if err := f.conn.PublishMsg(msg); err != nil {
		f.logger.Error().Err(err).Str("subject", msg.Subject).Msg("failed to publish event")
	}
}

// Close drains the connection.
func (f *Forwarder) Close() {
	if f == nil || f.conn == nil {
		return
	}
	if err := f.conn.Drain(); err != nil {
		f.conn.Close()
	}
}

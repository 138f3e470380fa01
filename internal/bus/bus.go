// Package bus binds the dispatcher to the message transport. Each
// connector is a pair of directions plus an event stream, carried as
// watermill topics: <connector>.inbound, <connector>.outbound and
// <connector>.event with JSON payloads.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/appswitch-io/appswitch/internal/logging"
	"github.com/appswitch-io/appswitch/internal/routing"
	"github.com/appswitch-io/appswitch/pkg/types"
)

// Handler receives the bus's three message streams. Satisfied by the
// dispatch engine.
type Handler interface {
	ProcessInbound(ctx context.Context, msg *types.Message, connectorName string) error
	ProcessOutbound(ctx context.Context, msg *types.Message, connectorName string) error
	ProcessEvent(ctx context.Context, ev *types.Event, connectorName string) error
}

// Topic names for a connector's three streams.
func InboundTopic(connector string) string  { return connector + ".inbound" }
func OutboundTopic(connector string) string { return connector + ".outbound" }
func EventTopic(connector string) string    { return connector + ".event" }

// Bus is the connector fabric built on watermill's gochannel pub/sub.
type Bus struct {
	pubsub *gochannel.GoChannel
	wg     sync.WaitGroup
}

// New creates a bus.
func New() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 100,
				Persistent:          false,
			},
			watermill.NopLogger{},
		),
	}
}

// PublishInbound delivers a message to an application connector. The
// routing endpoint is stamped onto the copy that goes out.
func (b *Bus) PublishInbound(ctx context.Context, msg *types.Message, target routing.Target) error {
	out := msg.Copy()
	out.RoutingEndpoint = target.Endpoint
	return b.publish(InboundTopic(target.Connector), out)
}

// PublishOutbound delivers a message to a transport connector.
func (b *Bus) PublishOutbound(ctx context.Context, msg *types.Message, target routing.Target) error {
	out := msg.Copy()
	out.RoutingEndpoint = target.Endpoint
	return b.publish(OutboundTopic(target.Connector), out)
}

// PublishEvent delivers a delivery event to an application connector.
func (b *Bus) PublishEvent(ctx context.Context, ev *types.Event, target routing.Target) error {
	out := *ev
	out.RoutingEndpoint = target.Endpoint
	return b.publish(EventTopic(target.Connector), &out)
}

func (b *Bus) publish(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message for %s: %w", topic, err)
	}
	return b.pubsub.Publish(topic, message.NewMessage(watermill.NewUUID(), payload))
}

// Attach subscribes the handler to every configured connector stream:
// inbound and event topics for the receive-inbound connectors, outbound
// topics for the receive-outbound connectors. Handler failures are
// logged; messages are acked regardless, the router never retries.
func (b *Bus) Attach(ctx context.Context, h Handler, inboundConnectors, outboundConnectors []string) error {
	for _, connector := range inboundConnectors {
		connector := connector
		if err := b.consume(ctx, InboundTopic(connector), func(ctx context.Context, payload []byte) error {
			var msg types.Message
			if err := json.Unmarshal(payload, &msg); err != nil {
				return err
			}
			return h.ProcessInbound(ctx, &msg, connector)
		}); err != nil {
			return err
		}
		if err := b.consume(ctx, EventTopic(connector), func(ctx context.Context, payload []byte) error {
			var ev types.Event
			if err := json.Unmarshal(payload, &ev); err != nil {
				return err
			}
			return h.ProcessEvent(ctx, &ev, connector)
		}); err != nil {
			return err
		}
	}
	for _, connector := range outboundConnectors {
		connector := connector
		if err := b.consume(ctx, OutboundTopic(connector), func(ctx context.Context, payload []byte) error {
			var msg types.Message
			if err := json.Unmarshal(payload, &msg); err != nil {
				return err
			}
			return h.ProcessOutbound(ctx, &msg, connector)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) consume(ctx context.Context, topic string, fn func(context.Context, []byte) error) error {
	ch, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for m := range ch {
			if err := fn(ctx, m.Payload); err != nil {
				logging.Error().Err(err).Str("topic", topic).
					Msg("message handling failed")
			}
			m.Ack()
		}
	}()
	return nil
}

// Close shuts the pub/sub down and waits for the consumer goroutines to
// drain.
func (b *Bus) Close() error {
	err := b.pubsub.Close()
	b.wg.Wait()
	return err
}

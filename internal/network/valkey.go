package network

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// ValkeyTransport is a Transport backed by valkey pub/sub channels. Topics
// map one to one onto channel names.
type ValkeyTransport struct {
	client valkey.Client
}

// NewValkeyTransport connects to the valkey server at addr.
func NewValkeyTransport(addr string) (*ValkeyTransport, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to valkey at %s: %w", addr, err)
	}
	return &ValkeyTransport{client: client}, nil
}

// NewValkeyTransportFromClient wraps an existing client. Close closes it.
func NewValkeyTransportFromClient(client valkey.Client) *ValkeyTransport {
	return &ValkeyTransport{client: client}
}

// Publish publishes data on the topic channel.
func (t *ValkeyTransport) Publish(ctx context.Context, topic string, data []byte) error {
	cmd := t.client.B().Publish().Channel(topic).Message(valkey.BinaryString(data)).Build()
	if err := t.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("publishing on %s: %w", topic, err)
	}
	return nil
}

// Subscribe subscribes to the topic channel until ctx is done.
func (t *ValkeyTransport) Subscribe(ctx context.Context, topic string, fn Handler) error {
	cmd := t.client.B().Subscribe().Channel(topic).Build()
	err := t.client.Receive(ctx, cmd, func(msg valkey.PubSubMessage) {
		fn([]byte(msg.Message))
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	return nil
}

// Close closes the underlying client.
func (t *ValkeyTransport) Close() error {
	t.client.Close()
	return nil
}

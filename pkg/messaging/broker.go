package messaging

import (
	"context"
)

// Broker publishes and receives JSON messages on named channels.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channels ...string) (<-chan Message, error)
	Close() error
}

// Message is a payload received from a channel.
type Message struct {
	Channel string
	Payload []byte
}

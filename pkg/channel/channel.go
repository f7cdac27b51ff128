package channel

import (
	"context"

	"vkcommands/pkg/bus"
)

// Client sends messages on behalf of command modules. It is shared read-only by all
// concurrent dispatches.
type Client interface {
	// Send delivers one message and returns the platform message id.
	Send(ctx context.Context, msg bus.OutboundMessage) (int64, error)
	// RandomID returns a fresh duplicate-suppression token for Send.
	RandomID() int64
}

// Handler receives one inbound event together with the client that can answer it.
type Handler func(context.Context, Client, bus.InboundEvent) error

// Adapter bridges one external transport (VK, Telegram) into the dispatcher.
type Adapter interface {
	Name() string
	// SelfID is the peer id the bot is mentioned as, or zero when unknown.
	SelfID() int64
	Run(context.Context, Handler) error
}

package command

import (
	"fmt"
	"reflect"

	"vkcommands/pkg/bus"
	"vkcommands/pkg/channel"
	"vkcommands/pkg/peer"
)

// Context is the read-only view a command handler gets of the message it answers.
//
// Custom context types embed *MessageContext and add their own fields; modules declare the
// type they expect through ModuleBase.
type Context interface {
	Client() channel.Client
	Channel() string
	PeerID() int64
	PeerKind() peer.Kind
	UserID() int64
	Message() *bus.Message
	ClientInfo() *bus.ClientInfo
}

// ContextFactory builds the context for one inbound event.
type ContextFactory func(channel.Client, bus.InboundEvent) (Context, error)

// MessageContext is the default Context built from a new-message event.
type MessageContext struct {
	client     channel.Client
	channel    string
	peerID     int64
	peerKind   peer.Kind
	userID     int64
	message    *bus.Message
	clientInfo *bus.ClientInfo
}

// NewContext resolves peer identity from event. A missing or zero peer id is rejected with
// peer.ErrOutOfRange rather than guessed. A kind supplied by the transport overrides the
// id-range classification.
func NewContext(client channel.Client, event bus.InboundEvent) (*MessageContext, error) {
	msg := event.Message
	if msg == nil {
		msg = &bus.Message{}
	}

	peerID := valueOrZero(msg.PeerID)
	kind, err := peer.Classify(peerID)
	if err != nil {
		return nil, fmt.Errorf("build command context: %w", err)
	}
	if event.PeerKind != peer.KindUnknown {
		kind = event.PeerKind
	}

	return &MessageContext{
		client:     client,
		channel:    event.Channel,
		peerID:     peerID,
		peerKind:   kind,
		userID:     valueOrZero(msg.FromID),
		message:    msg,
		clientInfo: event.ClientInfo,
	}, nil
}

// DefaultContextFactory adapts NewContext to ContextFactory.
func DefaultContextFactory(client channel.Client, event bus.InboundEvent) (Context, error) {
	ctx, err := NewContext(client, event)
	if err != nil {
		return nil, err
	}

	return ctx, nil
}

func (c *MessageContext) Client() channel.Client      { return c.client }
func (c *MessageContext) Channel() string             { return c.channel }
func (c *MessageContext) PeerID() int64               { return c.peerID }
func (c *MessageContext) PeerKind() peer.Kind         { return c.peerKind }
func (c *MessageContext) UserID() int64               { return c.userID }
func (c *MessageContext) Message() *bus.Message       { return c.message }
func (c *MessageContext) ClientInfo() *bus.ClientInfo { return c.clientInfo }

func valueOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}

	return *v
}

// isNilContext reports a nil interface or one holding a nil pointer, map, func or similar.
func isNilContext(c Context) bool {
	if c == nil {
		return true
	}

	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

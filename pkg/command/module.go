package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"vkcommands/pkg/bus"
)

// Module is a handler container. A fresh instance serves each dispatch:
// SetContext, BeforeExecute, the command handler, then AfterExecute.
type Module interface {
	SetContext(Context) error
	BeforeExecute(*CommandInfo)
	AfterExecute(*CommandInfo)
	// OnModuleBuilding runs once at registration and declares the module's commands.
	OnModuleBuilding(*Service, *ModuleBuilder)
}

// ModuleBase provides the Module plumbing for modules that expect contexts of type T.
// Embed it and override the hooks that matter.
type ModuleBase[T Context] struct {
	ctx   T
	bound bool
}

// SetContext binds c when it is a T. On mismatch nothing is bound and a
// *ContextTypeError names both types. A typed nil T is rejected with ErrNoContext.
func (m *ModuleBase[T]) SetContext(c Context) error {
	typed, ok := c.(T)
	if !ok {
		return &ContextTypeError{
			Expected: reflect.TypeFor[T]().String(),
			Actual:   fmt.Sprintf("%T", c),
		}
	}
	if isNilContext(typed) {
		return fmt.Errorf("%w: nil %T", ErrNoContext, c)
	}

	m.ctx = typed
	m.bound = true
	return nil
}

// Context returns the bound context, or the zero T before binding.
func (m *ModuleBase[T]) Context() T {
	return m.ctx
}

func (m *ModuleBase[T]) BeforeExecute(*CommandInfo) {}

func (m *ModuleBase[T]) AfterExecute(*CommandInfo) {}

func (m *ModuleBase[T]) OnModuleBuilding(*Service, *ModuleBuilder) {}

// ReplyParams holds the optional messages.send fields of a reply. At least one of Text or
// Attachments should be set; the transport enforces it.
type ReplyParams struct {
	Text            string
	Attachments     []string
	Keyboard        json.RawMessage
	Template        json.RawMessage
	ReplyTo         *int64
	ForwardMessages []int64
	DontParseLinks  bool
	DisableMentions bool
	Intent          string
	SubscribeID     *uint8
}

// Reply sends a message to the peer the command came from. Transport errors are returned
// unchanged.
func (m *ModuleBase[T]) Reply(ctx context.Context, params ReplyParams) (int64, error) {
	if !m.bound {
		return 0, ErrNoContext
	}

	client := m.ctx.Client()
	if client == nil {
		return 0, errors.New("command context has no client")
	}

	return client.Send(ctx, bus.OutboundMessage{
		PeerID:          m.ctx.PeerID(),
		Text:            params.Text,
		Attachments:     params.Attachments,
		Keyboard:        params.Keyboard,
		Template:        params.Template,
		ReplyTo:         params.ReplyTo,
		ForwardMessages: params.ForwardMessages,
		DontParseLinks:  params.DontParseLinks,
		DisableMentions: params.DisableMentions,
		Intent:          params.Intent,
		SubscribeID:     params.SubscribeID,
		RandomID:        client.RandomID(),
	})
}

// ReplyText is Reply with text only.
func (m *ModuleBase[T]) ReplyText(ctx context.Context, text string) (int64, error) {
	return m.Reply(ctx, ReplyParams{Text: text})
}

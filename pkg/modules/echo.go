package modules

import (
	"context"
	"strings"

	"vkcommands/pkg/command"
)

const echoUsage = "usage: echo <text>"

// EchoModule repeats its arguments back as a reply to the invoking message.
type EchoModule struct {
	command.ModuleBase[command.Context]
}

func (m *EchoModule) OnModuleBuilding(_ *command.Service, b *command.ModuleBuilder) {
	b.WithSummary("Repeats text").
		AddCommand("echo", "Repeats the given text", command.Handle((*EchoModule).echo), "say")
}

func (m *EchoModule) echo(ctx context.Context, args string) error {
	text := strings.TrimSpace(args)
	if text == "" {
		_, err := m.ReplyText(ctx, echoUsage)
		return err
	}

	params := command.ReplyParams{Text: text, DisableMentions: true, DontParseLinks: true}
	if msg := m.Context().Message(); msg != nil && msg.ID != 0 {
		replyTo := msg.ID
		params.ReplyTo = &replyTo
	}

	_, err := m.Reply(ctx, params)
	return err
}

package modules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vkcommands/pkg/command"
)

// CoreModule answers liveness and identity commands and logs how long each took.
type CoreModule struct {
	command.ModuleBase[*command.MessageContext]
	log     *slog.Logger
	started time.Time
}

func (m *CoreModule) OnModuleBuilding(_ *command.Service, b *command.ModuleBuilder) {
	b.WithSummary("Liveness and identity").
		AddCommand("ping", "Replies with pong", command.Handle((*CoreModule).ping)).
		AddCommand("whoami", "Shows the resolved peer and sender", command.Handle((*CoreModule).whoami), "peer")
}

func (m *CoreModule) BeforeExecute(*command.CommandInfo) {
	m.started = time.Now()
}

func (m *CoreModule) AfterExecute(cmd *command.CommandInfo) {
	ctx := m.Context()
	m.log.Debug("Command finished", "command", cmd.Name(), "peer_id", ctx.PeerID(), "duration", time.Since(m.started))
}

func (m *CoreModule) ping(ctx context.Context, _ string) error {
	_, err := m.ReplyText(ctx, "pong")
	return err
}

func (m *CoreModule) whoami(ctx context.Context, _ string) error {
	c := m.Context()
	_, err := m.ReplyText(ctx, fmt.Sprintf("peer %d (%s), user %d", c.PeerID(), c.PeerKind(), c.UserID()))
	return err
}

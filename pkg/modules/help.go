package modules

import (
	"context"
	"fmt"
	"strings"

	"vkcommands/pkg/command"
)

// HelpModule lists registered commands.
type HelpModule struct {
	command.ModuleBase[command.Context]
	service *command.Service
}

func (m *HelpModule) OnModuleBuilding(_ *command.Service, b *command.ModuleBuilder) {
	b.WithSummary("Command reference").
		AddCommand("help", "Lists commands or describes one", command.Handle((*HelpModule).help), "commands")
}

func (m *HelpModule) help(ctx context.Context, args string) error {
	if name := strings.TrimSpace(args); name != "" {
		cmd, ok := m.service.Lookup(name)
		if !ok {
			_, err := m.ReplyText(ctx, fmt.Sprintf("unknown command %q", name))
			return err
		}
		_, err := m.ReplyText(ctx, DescribeCommand(cmd))
		return err
	}

	_, err := m.ReplyText(ctx, Overview(m.service))
	return err
}

// DescribeCommand renders one command as "name (aliases): summary".
func DescribeCommand(cmd *command.CommandInfo) string {
	var b strings.Builder
	b.WriteString(cmd.Name())
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(aliases, ", "))
		b.WriteString(")")
	}
	if summary := cmd.Summary(); summary != "" {
		b.WriteString(": ")
		b.WriteString(summary)
	}

	return b.String()
}

// Overview renders every module and its commands, one command per line.
func Overview(svc *command.Service) string {
	var lines []string
	for _, module := range svc.Modules() {
		lines = append(lines, module.Name()+":")
		for _, cmd := range module.Commands() {
			lines = append(lines, "  "+DescribeCommand(cmd))
		}
	}

	return strings.Join(lines, "\n")
}

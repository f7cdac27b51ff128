// Package modules holds the command modules that ship with the bot.
package modules

import (
	"fmt"
	"log/slog"

	"vkcommands/pkg/command"
)

// Register adds every built-in module to svc.
func Register(svc *command.Service, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	registrations := []struct {
		name    string
		factory func() command.Module
	}{
		{name: "core", factory: func() command.Module { return &CoreModule{log: log.With("component", "modules.core")} }},
		{name: "echo", factory: func() command.Module { return &EchoModule{} }},
		{name: "help", factory: func() command.Module { return &HelpModule{service: svc} }},
	}

	for _, r := range registrations {
		if err := svc.AddModule(r.name, r.factory); err != nil {
			return fmt.Errorf("register %s module: %w", r.name, err)
		}
	}

	return nil
}

package command

import (
	"context"
	"fmt"
	"strings"
)

// HandlerFunc runs one command on a bound module. args is the raw text after the
// command name.
type HandlerFunc func(ctx context.Context, module Module, args string) error

// Handle adapts a method expression such as (*PingModule).Ping to a HandlerFunc.
func Handle[M Module](fn func(M, context.Context, string) error) HandlerFunc {
	return func(ctx context.Context, module Module, args string) error {
		typed, ok := module.(M)
		if !ok {
			var want M
			return fmt.Errorf("handler expects module %T, got %T", want, module)
		}

		return fn(typed, ctx, args)
	}
}

// CommandInfo describes one registered command. Its fields are set at registration and
// never change.
type CommandInfo struct {
	name    string
	aliases []string
	summary string
	module  *ModuleInfo
	handler HandlerFunc
}

func (c *CommandInfo) Name() string { return c.name }

func (c *CommandInfo) Aliases() []string { return append([]string(nil), c.aliases...) }

func (c *CommandInfo) Summary() string { return c.summary }

// Module returns the name of the module that owns the command.
func (c *CommandInfo) Module() string {
	if c.module == nil {
		return ""
	}

	return c.module.name
}

// ModuleInfo describes one registered module.
type ModuleInfo struct {
	name     string
	summary  string
	factory  func() Module
	commands []*CommandInfo
}

func (m *ModuleInfo) Name() string { return m.name }

func (m *ModuleInfo) Summary() string { return m.summary }

func (m *ModuleInfo) Commands() []*CommandInfo { return append([]*CommandInfo(nil), m.commands...) }

// ModuleBuilder collects a module's commands during OnModuleBuilding.
type ModuleBuilder struct {
	info *ModuleInfo
	errs []error
}

func newModuleBuilder(name string, factory func() Module) *ModuleBuilder {
	return &ModuleBuilder{info: &ModuleInfo{name: name, factory: factory}}
}

// Name returns the module name given to Service.AddModule.
func (b *ModuleBuilder) Name() string {
	return b.info.name
}

func (b *ModuleBuilder) WithSummary(summary string) *ModuleBuilder {
	b.info.summary = strings.TrimSpace(summary)
	return b
}

// AddCommand registers a command by name and optional aliases. Names are matched
// case-insensitively.
func (b *ModuleBuilder) AddCommand(name string, summary string, handler HandlerFunc, aliases ...string) *ModuleBuilder {
	name = normalizeName(name)
	if name == "" {
		b.errs = append(b.errs, fmt.Errorf("module %s: command name is required", b.info.name))
		return b
	}
	if handler == nil {
		b.errs = append(b.errs, fmt.Errorf("module %s: command %s has no handler", b.info.name, name))
		return b
	}

	normalized := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		if alias = normalizeName(alias); alias != "" && alias != name {
			normalized = append(normalized, alias)
		}
	}

	b.info.commands = append(b.info.commands, &CommandInfo{
		name:    name,
		aliases: normalized,
		summary: strings.TrimSpace(summary),
		module:  b.info,
		handler: handler,
	})
	return b
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

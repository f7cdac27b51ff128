package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"vkcommands/pkg/bus"
	"vkcommands/pkg/channel"
	"vkcommands/pkg/prefix"
)

// Service registers modules and dispatches resolved contexts to their commands.
type Service struct {
	log        *slog.Logger
	newContext ContextFactory

	mu       sync.RWMutex
	modules  []*ModuleInfo
	commands map[string]*CommandInfo
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for hook failures.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithContextFactory replaces the default MessageContext factory.
func WithContextFactory(factory ContextFactory) Option {
	return func(s *Service) {
		if factory != nil {
			s.newContext = factory
		}
	}
}

func NewService(opts ...Option) *Service {
	s := &Service{
		log:        slog.Default(),
		newContext: DefaultContextFactory,
		commands:   make(map[string]*CommandInfo),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "command.service")

	return s
}

// AddModule registers a module. factory is called once here for OnModuleBuilding and once
// per dispatch afterwards, so instances never carry state between messages.
func (s *Service) AddModule(name string, factory func() Module) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("module name is required")
	}
	if factory == nil {
		return fmt.Errorf("module %s: factory is required", name)
	}

	builder := newModuleBuilder(name, factory)
	factory().OnModuleBuilding(s, builder)
	if err := errors.Join(builder.errs...); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.modules {
		if existing.name == name {
			return fmt.Errorf("module %s is already registered", name)
		}
	}

	pending := make(map[string]*CommandInfo)
	for _, cmd := range builder.info.commands {
		for _, key := range append([]string{cmd.name}, cmd.aliases...) {
			if other, ok := s.commands[key]; ok {
				return fmt.Errorf("%w: %s (module %s, already in %s)", ErrDuplicateCommand, key, name, other.Module())
			}
			if _, ok := pending[key]; ok {
				return fmt.Errorf("%w: %s (module %s)", ErrDuplicateCommand, key, name)
			}
			pending[key] = cmd
		}
	}

	for key, cmd := range pending {
		s.commands[key] = cmd
	}
	s.modules = append(s.modules, builder.info)

	return nil
}

// Modules returns the registered modules in registration order.
func (s *Service) Modules() []*ModuleInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*ModuleInfo(nil), s.modules...)
}

// Lookup resolves a command by name or alias.
func (s *Service) Lookup(name string) (*CommandInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cmd, ok := s.commands[normalizeName(name)]
	return cmd, ok
}

// NewContext builds a context for event with the configured factory.
func (s *Service) NewContext(client channel.Client, event bus.InboundEvent) (Context, error) {
	cmdCtx, err := s.newContext(client, event)
	if err != nil {
		return nil, err
	}
	if isNilContext(cmdCtx) {
		return nil, fmt.Errorf("context factory: %w", ErrNoContext)
	}

	return cmdCtx, nil
}

// Execute dispatches cmdCtx. argStart is the offset a prefix matcher reported into the
// message content; the first field after it names the command.
//
// The after-hook runs whenever binding succeeded, including when the handler fails or
// panics. Its own panics are logged and never replace the handler's error.
func (s *Service) Execute(ctx context.Context, cmdCtx Context, argStart int) (*CommandInfo, error) {
	if isNilContext(cmdCtx) {
		return nil, ErrNoContext
	}

	content := prefix.Content(cmdCtx.Message())
	if argStart < 0 || argStart > len(content) {
		return nil, fmt.Errorf("argument offset %d outside content of length %d", argStart, len(content))
	}

	name, args := splitCommand(content[argStart:])
	if name == "" {
		return nil, ErrUnknownCommand
	}

	cmd, ok := s.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	module := cmd.module.factory()
	if err := module.SetContext(cmdCtx); err != nil {
		return cmd, fmt.Errorf("bind module %s: %w", cmd.Module(), err)
	}

	defer s.afterExecute(module, cmd)

	return cmd, s.invoke(ctx, module, cmd, args)
}

func (s *Service) invoke(ctx context.Context, module Module, cmd *CommandInfo, args string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command %s panicked: %v", cmd.name, r)
		}
	}()

	module.BeforeExecute(cmd)
	return cmd.handler(ctx, module, args)
}

func (s *Service) afterExecute(module Module, cmd *CommandInfo) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("After-execute hook failed", "module", cmd.Module(), "command", cmd.name, "panic", fmt.Sprint(r))
		}
	}()

	module.AfterExecute(cmd)
}

// splitCommand returns the first field of text and the remaining text with leading
// whitespace removed.
func splitCommand(text string) (string, string) {
	text = strings.TrimLeftFunc(text, unicode.IsSpace)
	end := strings.IndexFunc(text, unicode.IsSpace)
	if end == -1 {
		return text, ""
	}

	return text[:end], strings.TrimLeftFunc(text[end:], unicode.IsSpace)
}

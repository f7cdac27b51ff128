package cmd

import (
	"context"
	"testing"

	channelpkg "vkcommands/pkg/channel"
	"vkcommands/pkg/config"
)

type testAdapter struct{ name string }

func (a testAdapter) Name() string { return a.name }

func (a testAdapter) SelfID() int64 { return 0 }

func (a testAdapter) Run(_ context.Context, _ channelpkg.Handler) error { return nil }

func TestEnabledAdaptersRequiresAtLeastOneChannel(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	if _, err := enabledAdapters(cfg, nil); err == nil {
		t.Fatal("expected error when no channels are enabled")
	}
}

func TestEnabledAdaptersRejectsIncompleteVK(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Channels.VK.Enabled = true
	cfg.Channels.VK.Token = "token"
	if _, err := enabledAdapters(cfg, nil); err == nil {
		t.Fatal("expected error when vk group id is missing")
	}
}

func TestEnabledChannelNames(t *testing.T) {
	t.Parallel()

	adapters := []channelpkg.Adapter{testAdapter{name: "vk"}, testAdapter{name: "telegram"}}
	if got := enabledChannelNames(adapters); got != "vk,telegram" {
		t.Fatalf("enabledChannelNames = %q, want %q", got, "vk,telegram")
	}
}

func TestNewCommandServiceRegistersBuiltins(t *testing.T) {
	t.Parallel()

	commands, err := newCommandService(nil)
	if err != nil {
		t.Fatalf("newCommandService error: %v", err)
	}
	for _, name := range []string{"ping", "echo", "help", "whoami"} {
		if _, ok := commands.Lookup(name); !ok {
			t.Fatalf("command %q not registered", name)
		}
	}
}

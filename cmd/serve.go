package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"vkcommands/pkg/channel"
	"vkcommands/pkg/channel/telegram"
	"vkcommands/pkg/channel/vk"
	"vkcommands/pkg/command"
	"vkcommands/pkg/config"
	"vkcommands/pkg/gateway"
	"vkcommands/pkg/logger"
	"vkcommands/pkg/modules"

	"github.com/spf13/cobra"
)

const (
	vkChannelName       = "vk"
	telegramChannelName = "telegram"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"gateway"},
	Short:   "Run the command gateway",
	Long:    "Connects the enabled chat channels and dispatches prefixed commands to the built-in modules, with health and readiness endpoints.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.serve")

		adapters, err := enabledAdapters(cfg, log)
		if err != nil {
			log.Error("Gateway configuration invalid", "error", err)
			return
		}

		commands, err := newCommandService(log)
		if err != nil {
			log.Error("Failed to register modules", "error", err)
			return
		}

		svc, err := gateway.NewService(cfg, commands, adapters, log)
		if err != nil {
			log.Error("Failed to initialize gateway service", "error", err)
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("Gateway started", "channels", enabledChannelNames(adapters), "prefix", cfg.Dispatch.Prefix, "mention", cfg.Dispatch.Mention)
		if err := svc.Run(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Gateway runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newCommandService(log *slog.Logger) (*command.Service, error) {
	commands := command.NewService(command.WithLogger(log))
	if err := modules.Register(commands, log); err != nil {
		return nil, err
	}

	return commands, nil
}

func enabledAdapters(cfg *config.Config, log *slog.Logger) ([]channel.Adapter, error) {
	adapters := make([]channel.Adapter, 0, 2)

	if cfg.Channels.VK.Enabled {
		adapter, err := vk.NewAdapter(cfg.Channels.VK, log)
		if err != nil {
			return nil, fmt.Errorf("configure %s channel: %w", vkChannelName, err)
		}
		adapters = append(adapters, adapter)
	}

	if cfg.Channels.Telegram.Enabled {
		adapter, err := telegram.NewAdapter(cfg.Channels.Telegram, log)
		if err != nil {
			return nil, fmt.Errorf("configure %s channel: %w", telegramChannelName, err)
		}
		adapters = append(adapters, adapter)
	}

	if len(adapters) == 0 {
		return nil, errors.New("no channels are enabled")
	}

	return adapters, nil
}

func enabledChannelNames(adapters []channel.Adapter) string {
	names := make([]string, 0, len(adapters))
	for _, adapter := range adapters {
		names = append(names, adapter.Name())
	}

	return strings.Join(names, ",")
}

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"vkcommands/pkg/bus"
	"vkcommands/pkg/command"
	"vkcommands/pkg/config"
	"vkcommands/pkg/gateway"
	"vkcommands/pkg/prefix"
	"vkcommands/pkg/ui/console"

	"github.com/spf13/cobra"
)

const consoleChannelName = "console"

var (
	consolePeerID int64
	consoleUserID int64
	consolePlain  bool
)

// consoleCmd dispatches stdin lines as messages from a single peer.
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Dispatch commands typed on stdin",
	Long:  "Reads lines from stdin, dispatches them through the built-in modules as messages from one peer, and prints replies.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Printf("using default dispatch settings: %v\n", err)
			cfg = &config.Config{}
		}

		commands, err := newCommandService(slog.Default())
		if err != nil {
			fmt.Printf("failed to register modules: %v\n", err)
			return
		}

		session := &consoleSession{
			commands: commands,
			matcher:  gateway.NewMatcher(cfg.Dispatch),
			client:   &consoleClient{},
			peerID:   consolePeerID,
			userID:   consoleUserID,
		}

		ctx := context.Background()
		if consolePlain {
			session.run(ctx, os.Stdin, os.Stdout)
			return
		}

		info := console.Info{
			PeerID:   consolePeerID,
			UserID:   consoleUserID,
			Prefix:   displayPrefix(cfg.Dispatch.Prefix),
			Commands: commandCount(commands),
		}
		if err := console.Run(ctx, session.dispatch, info); err != nil {
			fmt.Printf("console failed: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().Int64Var(&consolePeerID, "peer", 1, "peer id the messages come from")
	consoleCmd.Flags().Int64Var(&consoleUserID, "user", 1, "sender id of the messages")
	consoleCmd.Flags().BoolVar(&consolePlain, "plain", false, "read lines from stdin without the full-screen UI")
}

// consoleClient collects replies instead of sending them.
type consoleClient struct {
	mu      sync.Mutex
	pending []string
	sent    int64
}

func (c *consoleClient) Send(ctx context.Context, msg bus.OutboundMessage) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, msg.Text)
	c.sent++
	return c.sent, nil
}

// drain returns and clears the replies collected since the last call.
func (c *consoleClient) drain() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	replies := c.pending
	c.pending = nil
	return replies
}

func (c *consoleClient) RandomID() int64 {
	return time.Now().UnixMicro()
}

type consoleSession struct {
	commands *command.Service
	matcher  gateway.Matcher
	client   *consoleClient
	peerID   int64
	userID   int64
	nextID   int64
}

func (s *consoleSession) run(ctx context.Context, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "👤 ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				fmt.Fprintf(out, "input error: %v\n", err)
			}
			return
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if console.IsExitCommand(text) {
			return
		}

		replies, err := s.dispatch(ctx, text)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		for _, reply := range replies {
			for _, line := range replyLines(reply) {
				fmt.Fprintf(out, "🤖 %s\n", line)
			}
		}
	}
}

// dispatch runs one line and returns its replies; text without a command prefix is ignored.
func (s *consoleSession) dispatch(ctx context.Context, text string) ([]string, error) {
	s.nextID++
	event := bus.InboundEvent{
		Channel: consoleChannelName,
		Message: &bus.Message{
			ID:     s.nextID,
			PeerID: bus.Int64(s.peerID),
			FromID: bus.Int64(s.userID),
			Text:   text,
			Date:   time.Now().UTC(),
		},
		ReceivedAt: time.Now().UTC(),
	}

	cmdCtx, err := s.commands.NewContext(s.client, event)
	if err != nil {
		return nil, err
	}

	argStart, ok := s.matcher.Match(prefix.Content(cmdCtx.Message()), 0)
	if !ok {
		return nil, nil
	}

	_, err = s.commands.Execute(ctx, cmdCtx, argStart)
	replies := s.client.drain()
	if errors.Is(err, command.ErrUnknownCommand) {
		return replies, fmt.Errorf("%w (try help)", err)
	}

	return replies, err
}

func displayPrefix(literal string) string {
	if literal == "" {
		return "!"
	}

	return literal
}

func commandCount(commands *command.Service) int {
	count := 0
	for _, module := range commands.Modules() {
		count += len(module.Commands())
	}

	return count
}

func replyLines(message string) []string {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return nil
	}

	return strings.Split(trimmed, "\n")
}

package modules

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"vkcommands/pkg/bus"
	"vkcommands/pkg/command"
)

type fakeClient struct {
	mu   sync.Mutex
	sent []bus.OutboundMessage
	seq  int64
}

func (f *fakeClient) Send(_ context.Context, msg bus.OutboundMessage) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return int64(len(f.sent)), nil
}

func (f *fakeClient) RandomID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return f.seq
}

func run(t *testing.T, text string, peerID int64) *fakeClient {
	t.Helper()

	svc := command.NewService()
	require.NoError(t, Register(svc, nil))

	client := &fakeClient{}
	event := bus.InboundEvent{
		Channel: "vk",
		Message: &bus.Message{ID: 55, PeerID: bus.Int64(peerID), FromID: bus.Int64(9), Text: text},
	}
	cmdCtx, err := svc.NewContext(client, event)
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), cmdCtx, 1)
	require.NoError(t, err)
	return client
}

func TestPing(t *testing.T) {
	t.Parallel()

	client := run(t, "!ping", 10)
	require.Len(t, client.sent, 1)
	require.Equal(t, "pong", client.sent[0].Text)
	require.Equal(t, int64(10), client.sent[0].PeerID)
}

func TestWhoAmI(t *testing.T) {
	t.Parallel()

	client := run(t, "!peer", -77)
	require.Len(t, client.sent, 1)
	require.Equal(t, "peer -77 (group), user 9", client.sent[0].Text)
}

func TestEcho(t *testing.T) {
	t.Parallel()

	client := run(t, "!say  hello there ", 2_000_000_001)
	require.Len(t, client.sent, 1)
	sent := client.sent[0]
	require.Equal(t, "hello there", sent.Text)
	require.True(t, sent.DisableMentions)
	require.NotNil(t, sent.ReplyTo)
	require.Equal(t, int64(55), *sent.ReplyTo)
}

func TestEchoUsage(t *testing.T) {
	t.Parallel()

	client := run(t, "!echo", 10)
	require.Len(t, client.sent, 1)
	require.Equal(t, echoUsage, client.sent[0].Text)
}

func TestHelpOverview(t *testing.T) {
	t.Parallel()

	client := run(t, "!help", 10)
	require.Len(t, client.sent, 1)
	text := client.sent[0].Text
	require.True(t, strings.HasPrefix(text, "core:\n  ping: Replies with pong"), text)
	require.Contains(t, text, "whoami (peer): Shows the resolved peer and sender")
	require.Contains(t, text, "echo (say): Repeats the given text")
	require.Contains(t, text, "help (commands)")
}

func TestHelpForCommand(t *testing.T) {
	t.Parallel()

	client := run(t, "!help SAY", 10)
	require.Equal(t, "echo (say): Repeats the given text", client.sent[0].Text)

	client = run(t, "!help nope", 10)
	require.Equal(t, `unknown command "nope"`, client.sent[0].Text)
}

func TestRegisterTwiceFails(t *testing.T) {
	t.Parallel()

	svc := command.NewService()
	require.NoError(t, Register(svc, nil))
	require.Error(t, Register(svc, nil))
}

package command

import (
	"context"
	"sync"

	"vkcommands/pkg/bus"
)

type fakeClient struct {
	mu     sync.Mutex
	sent   []bus.OutboundMessage
	nextID int64
	err    error
}

func (f *fakeClient) Send(ctx context.Context, msg bus.OutboundMessage) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.sent = append(f.sent, msg)
	return int64(len(f.sent)), nil
}

func (f *fakeClient) RandomID() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return f.nextID
}

func newEvent(peerID int64, fromID int64, text string) bus.InboundEvent {
	return bus.InboundEvent{
		Channel: "vk",
		Message: &bus.Message{
			ID:     7,
			PeerID: bus.Int64(peerID),
			FromID: bus.Int64(fromID),
			Text:   text,
		},
		ClientInfo: &bus.ClientInfo{Keyboard: true, LangID: 3},
	}
}

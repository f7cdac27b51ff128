package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vkcommands/pkg/bus"
	"vkcommands/pkg/channel"
	"vkcommands/pkg/command"
	"vkcommands/pkg/config"
	"vkcommands/pkg/prefix"
)

const (
	defaultHealthHost = "0.0.0.0"
	defaultHealthPort = 18790
	defaultWorkers    = 4
	defaultQueueSize  = 100
)

// Service receives events from channel adapters and dispatches commands concurrently.
type Service struct {
	cfg      *config.Config
	log      *slog.Logger
	commands *command.Service
	bus      *bus.MessageBus
	matcher  Matcher
	peers    *peerQueues
	workers  int

	adapters map[string]channel.Adapter
	order    []channel.Adapter

	mu            sync.RWMutex
	startedAt     time.Time
	clients       map[string]channel.Client
	channelStates map[string]channelState
	dispatched    uint64
	failed        uint64
}

type channelState struct {
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Status        string                  `json:"status"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	Dispatched    uint64                  `json:"dispatched"`
	Failed        uint64                  `json:"failed"`
	Channels      map[string]channelState `json:"channels"`
}

func NewService(cfg *config.Config, commands *command.Service, adapters []channel.Adapter, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if commands == nil {
		return nil, errors.New("command service is required")
	}
	if len(adapters) == 0 {
		return nil, errors.New("at least one channel adapter is required")
	}
	if log == nil {
		log = slog.Default()
	}

	byName := make(map[string]channel.Adapter, len(adapters))
	channelStates := make(map[string]channelState, len(adapters))
	for _, adapter := range adapters {
		if _, ok := byName[adapter.Name()]; ok {
			return nil, fmt.Errorf("channel %s is configured twice", adapter.Name())
		}
		byName[adapter.Name()] = adapter
		channelStates[adapter.Name()] = channelState{}
	}

	workers := cfg.Dispatch.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	var peers *peerQueues
	if cfg.Dispatch.SerializePerPeer {
		peers = newPeerQueues(queueLimit(cfg.Dispatch.QueueSize))
	}

	return &Service{
		cfg:           cfg,
		log:           log.With("component", "gateway.service"),
		commands:      commands,
		bus:           bus.NewMessageBus(cfg.Dispatch.QueueSize),
		matcher:       NewMatcher(cfg.Dispatch),
		peers:         peers,
		workers:       workers,
		adapters:      byName,
		order:         adapters,
		clients:       make(map[string]channel.Client, len(adapters)),
		channelStates: channelStates,
	}, nil
}

// Events subscribes to dispatch lifecycle events until ctx ends or the returned func is called.
func (s *Service) Events(ctx context.Context, buffer int) (<-chan bus.Event, func()) {
	return s.bus.SubscribeEvents(ctx, buffer)
}

// Run starts every adapter, the dispatch workers and the status server, and blocks until
// ctx is canceled or one of them fails.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	g, runCtx := errgroup.WithContext(ctx)
	defer s.bus.Close()

	g.Go(func() error {
		return s.runHealthServer(runCtx)
	})

	for range s.workers {
		g.Go(func() error {
			s.work(runCtx)
			return nil
		})
	}

	for _, adapter := range s.order {
		s.setChannelState(adapter.Name(), channelState{Running: true})

		g.Go(func() error {
			err := adapter.Run(runCtx, s.accept)
			s.setChannelState(adapter.Name(), channelState{Running: false, Error: errorString(err)})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("run %s channel: %w", adapter.Name(), err)
			}
			return nil
		})
	}

	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}

	return err
}

// accept queues one inbound event for the workers. With serialize_per_peer, an event for a
// peer that is already being served waits in that peer's backlog instead.
func (s *Service) accept(ctx context.Context, client channel.Client, event bus.InboundEvent) error {
	s.mu.Lock()
	if _, ok := s.clients[event.Channel]; !ok {
		s.clients[event.Channel] = client
	}
	s.mu.Unlock()

	if s.peers != nil {
		admitted, err := s.peers.admit(event)
		if err != nil {
			return err
		}
		if !admitted {
			return nil
		}
	}

	if !s.bus.PublishInbound(ctx, event) {
		if s.peers != nil {
			s.peers.release(event)
		}
		return errors.New("dispatch queue is closed")
	}

	return nil
}

func (s *Service) work(ctx context.Context) {
	for {
		event, ok := s.bus.ConsumeInbound(ctx)
		if !ok {
			return
		}

		for {
			s.dispatch(ctx, s.client(event.Channel), event)
			if s.peers == nil {
				break
			}

			next, held := s.peers.release(event)
			if !held || ctx.Err() != nil {
				break
			}
			event = next
		}
	}
}

func (s *Service) client(channelName string) channel.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients[channelName]
}

// dispatch resolves one event into a context and, when it carries a command prefix,
// executes the command.
func (s *Service) dispatch(ctx context.Context, client channel.Client, event bus.InboundEvent) {
	cmdCtx, err := s.commands.NewContext(client, event)
	if err != nil {
		s.log.Warn("Dropping inbound event", "channel", event.Channel, "error", err)
		return
	}

	var selfID int64
	if adapter, ok := s.adapters[event.Channel]; ok {
		selfID = adapter.SelfID()
	}

	argStart, ok := s.matcher.Match(prefix.Content(cmdCtx.Message()), selfID)
	if !ok {
		return
	}

	requestID := uuid.NewString()
	log := s.log.With("request_id", requestID, "channel", event.Channel, "peer_id", cmdCtx.PeerID())
	s.bus.PublishEvent(ctx, bus.Event{
		Type:      bus.EventCommandReceived,
		Channel:   event.Channel,
		PeerID:    cmdCtx.PeerID(),
		UserID:    cmdCtx.UserID(),
		RequestID: requestID,
	})

	started := time.Now()
	cmd, err := s.commands.Execute(ctx, cmdCtx, argStart)

	done := bus.Event{
		Type:      bus.EventCommandCompleted,
		Channel:   event.Channel,
		PeerID:    cmdCtx.PeerID(),
		UserID:    cmdCtx.UserID(),
		RequestID: requestID,
		Payload:   map[string]string{"duration_ms": strconv.FormatInt(time.Since(started).Milliseconds(), 10)},
	}
	if cmd != nil {
		done.Command = cmd.Name()
	}

	s.mu.Lock()
	if err != nil {
		s.failed++
	} else {
		s.dispatched++
	}
	s.mu.Unlock()

	switch {
	case errors.Is(err, command.ErrUnknownCommand):
		log.Debug("Ignoring unknown command", "error", err)
		done.Type = bus.EventCommandFailed
		done.Error = err.Error()
	case err != nil:
		log.Error("Command failed", "command", done.Command, "error", err)
		done.Type = bus.EventCommandFailed
		done.Error = err.Error()
	default:
		log.Info("Command completed", "command", done.Command, "user_id", cmdCtx.UserID())
	}

	s.bus.PublishEvent(ctx, done)
}

func (s *Service) runHealthServer(ctx context.Context) error {
	host := strings.TrimSpace(s.cfg.Gateway.Host)
	if host == "" {
		host = defaultHealthHost
	}

	port := s.cfg.Gateway.Port
	if port < 0 {
		return nil
	}
	if port == 0 {
		port = defaultHealthPort
	}

	addr := host + ":" + strconv.Itoa(port)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Gateway status server started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start status server: %w", err)
	}

	return nil
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondStatus(w, http.StatusOK, "ok")
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondStatus(w, statusCode, status)
}

func (s *Service) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	payload := s.currentStatus(status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	channels := make(map[string]channelState, len(s.channelStates))
	for name, state := range s.channelStates {
		channels[name] = state
	}

	return statusResponse{
		Status:        status,
		UptimeSeconds: uptime,
		Dispatched:    s.dispatched,
		Failed:        s.failed,
		Channels:      channels,
	}
}

// isReady reports whether at least one channel is receiving.
func (s *Service) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, state := range s.channelStates {
		if state.Running {
			return true
		}
	}

	return false
}

func (s *Service) setChannelState(name string, state channelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelStates[name] = state
}

func queueLimit(size int) int {
	if size <= 0 {
		return defaultQueueSize
	}

	return size
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}

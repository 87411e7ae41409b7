package link

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/signalmesh/trafficctl/internal/observability"
	"github.com/signalmesh/trafficctl/internal/state"
	"github.com/signalmesh/trafficctl/internal/wire"
)

// State is the link machine position. One dedicated task drives
// Disconnected -> Connecting -> Connected and back on failure.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ErrLinkClosed rejects outbound commands while no connection is up.
var ErrLinkClosed = errors.New("link: not connected")

// Config tunes the reconnect policy. Defaults match the field
// deployment: five attempts five seconds apart, then at most one
// retry burst per thirty seconds while down.
type Config struct {
	Node              string
	ConnectAttempts   int
	ConnectDelay      time.Duration
	ReconnectThrottle time.Duration
	ReadChunk         int
}

func DefaultConfig() Config {
	return Config{
		Node:              "trafficd",
		ConnectAttempts:   5,
		ConnectDelay:      5 * time.Second,
		ReconnectThrottle: 30 * time.Second,
		ReadChunk:         512,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Node == "" {
		c.Node = def.Node
	}
	if c.ConnectAttempts <= 0 {
		c.ConnectAttempts = def.ConnectAttempts
	}
	if c.ConnectDelay <= 0 {
		c.ConnectDelay = def.ConnectDelay
	}
	if c.ReconnectThrottle <= 0 {
		c.ReconnectThrottle = def.ReconnectThrottle
	}
	if c.ReadChunk <= 0 {
		c.ReadChunk = def.ReadChunk
	}
	return c
}

// Manager owns the half-duplex field-controller connection: it is the
// only reader, feeds decoded events to the store, and serializes
// best-effort outbound commands.
type Manager struct {
	cfg    Config
	opener Opener
	store  *state.Store
	rng    *rand.Rand

	st atomic.Int32

	mu   sync.Mutex
	port io.ReadWriteCloser

	dec wire.Decoder
}

func NewManager(cfg Config, opener Opener, store *state.Store) *Manager {
	return &Manager{
		cfg:    cfg.withDefaults(),
		opener: opener,
		store:  store,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// State reports the current link machine position.
func (m *Manager) State() State {
	return State(m.st.Load())
}

// Describe reports the configured transport, for status echoes.
func (m *Manager) Describe() string {
	return m.opener.Describe()
}

func (m *Manager) setState(s State) {
	m.st.Store(int32(s))
}

// Run drives the link until ctx is cancelled. Transport failures are
// never fatal: the loop reconnects with bounded attempts and throttles
// retry bursts while the controller stays unreachable.
func (m *Manager) Run(ctx context.Context) error {
	log.Info().Str("link", m.opener.Describe()).Msg("link_manager_start")
	for {
		if err := ctx.Err(); err != nil {
			m.setState(Disconnected)
			return nil
		}
		port, ok := m.connect(ctx)
		if !ok {
			if err := sleepCtx(ctx, m.cfg.ReconnectThrottle); err != nil {
				return nil
			}
			continue
		}
		m.readLoop(ctx, port)
		m.dropPort(port)
	}
}

// connect runs one bounded attempt burst through the opener.
func (m *Manager) connect(ctx context.Context) (io.ReadWriteCloser, bool) {
	m.setState(Connecting)
	for attempt := 1; attempt <= m.cfg.ConnectAttempts; attempt++ {
		port, err := m.opener.Open(ctx)
		if err == nil {
			observability.RecordLinkReconnect(m.cfg.Node, true)
			m.adoptPort(port)
			log.Info().
				Str("link", m.opener.Describe()).
				Int("attempt", attempt).
				Msg("link_connected")
			return port, true
		}
		observability.RecordLinkReconnect(m.cfg.Node, false)
		log.Warn().
			Str("link", m.opener.Describe()).
			Int("attempt", attempt).
			Err(err).
			Msg("link_connect_failed")
		if ctx.Err() != nil {
			break
		}
		delay := NextBackoffDelay(FixedBackoff(m.cfg.ConnectDelay), attempt, m.rng)
		if err := sleepCtx(ctx, delay); err != nil {
			break
		}
	}
	m.setState(Disconnected)
	return nil, false
}

func (m *Manager) adoptPort(port io.ReadWriteCloser) {
	m.mu.Lock()
	m.port = port
	m.mu.Unlock()
	m.setState(Connected)
}

func (m *Manager) dropPort(port io.ReadWriteCloser) {
	m.mu.Lock()
	if m.port == port {
		m.port = nil
	}
	m.mu.Unlock()
	_ = port.Close()
	m.dec.Reset()
	m.setState(Disconnected)
}

// readLoop consumes available bytes until an I/O failure or shutdown.
// The store lock is taken per line inside the store, never across a
// port read.
func (m *Manager) readLoop(ctx context.Context, port io.ReadWriteCloser) {
	stop := context.AfterFunc(ctx, func() { _ = port.Close() })
	defer stop()

	buf := make([]byte, m.cfg.ReadChunk)
	for {
		n, err := port.Read(buf)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				log.Warn().Err(err).Msg("link_read_failed")
			}
			return
		}
		if n == 0 {
			// Serial read timeout; check for shutdown and keep going.
			if ctx.Err() != nil {
				return
			}
			continue
		}
		for _, line := range m.dec.Feed(buf[:n]) {
			m.store.Touch()
			m.applyLine(line)
		}
	}
}

func (m *Manager) applyLine(line string) {
	ev, ok := wire.DecodeLine(line)
	if !ok {
		observability.RecordLinkLine(m.cfg.Node, observability.LineDropped)
		log.Debug().Str("line", line).Msg("link_line_dropped")
		return
	}
	observability.RecordLinkLine(m.cfg.Node, observability.LineDecoded)
	if pr, isPriority := ev.(wire.PriorityRequest); isPriority {
		observability.RecordBeaconActivation(m.cfg.Node, pr.Lane, "field")
	}
	if err := m.store.Apply(ev); err != nil {
		log.Warn().Str("line", line).Err(err).Msg("link_event_rejected")
	}
}

// Send writes one outbound command. Failures are the caller's to log;
// they never tear the link down by themselves.
func (m *Manager) Send(cmd wire.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.port == nil {
		return ErrLinkClosed
	}
	if _, err := m.port.Write(cmd); err != nil {
		return err
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

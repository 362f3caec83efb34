// Package statusmsg keeps one Discord message in sync with the game server status.
package statusmsg

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/masahide/dayz-monitor/pkg/dayz"
)

// Fetcher returns the current server status; *dayz.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context) (dayz.ServerStatus, error)
}

// Metrics receives one observation per tick. outcome is one of the Outcome* values.
type Metrics interface {
	ObserveTick(ctx context.Context, outcome string, queryTook time.Duration)
}

const (
	OutcomeOnline     = "online"
	OutcomeOffline    = "offline"
	OutcomeSendFailed = "send_failed"
	OutcomeEditFailed = "edit_failed"
)

type Config struct {
	ChannelID string
	// MessageID of an existing message to edit. Empty means one is sent on the first tick.
	MessageID  string
	ServerName string
	Interval   time.Duration
	Debug      bool
}

type State int

const (
	StateUninitialized State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "uninitialized"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	State      State              `json:"state"`
	ServerName string             `json:"serverName"`
	ChannelID  string             `json:"channelId"`
	MessageID  string             `json:"messageId,omitempty"`
	LastTickAt *time.Time         `json:"lastTickAt,omitempty"`
	Online     bool               `json:"online"`
	Status     *dayz.ServerStatus `json:"status,omitempty"`
	LastError  *ErrorInfo         `json:"lastError,omitempty"`
}

type Option func(*Controller)

func WithMetrics(m Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

type Controller struct {
	cfg       Config
	render    renderer
	messenger Messenger
	fetcher   Fetcher
	metrics   Metrics
	now       func() time.Time

	// createMu makes read-check-create of the message ID one critical section.
	createMu sync.Mutex

	mu         sync.RWMutex
	messageID  string
	lastTickAt time.Time
	lastStatus *dayz.ServerStatus
	lastErr    error
}

func New(cfg Config, m Messenger, f Fetcher, opts ...Option) (*Controller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("statusmsg: interval must be > 0")
	}
	if cfg.ChannelID == "" {
		return nil, errors.New("statusmsg: channel id is required")
	}
	if m == nil || f == nil {
		return nil, errors.New("statusmsg: messenger and fetcher are required")
	}
	c := &Controller{
		cfg:       cfg,
		render:    renderer{serverName: cfg.ServerName, interval: cfg.Interval},
		messenger: m,
		fetcher:   f,
		now:       time.Now,
		messageID: cfg.MessageID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Controller) MessageID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.messageID
}

func (c *Controller) State() State {
	if c.MessageID() == "" {
		return StateUninitialized
	}
	return StateActive
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Snapshot{
		State:      StateUninitialized,
		ServerName: c.cfg.ServerName,
		ChannelID:  c.cfg.ChannelID,
		MessageID:  c.messageID,
	}
	if c.messageID != "" {
		s.State = StateActive
	}
	if !c.lastTickAt.IsZero() {
		t := c.lastTickAt
		s.LastTickAt = &t
	}
	if c.lastStatus != nil {
		st := *c.lastStatus
		if st.PlayersInQueue != nil {
			q := *st.PlayersInQueue
			st.PlayersInQueue = &q
		}
		if st.ServerTime != nil {
			tm := *st.ServerTime
			st.ServerTime = &tm
		}
		s.Status = &st
		s.Online = true
	}
	if c.lastErr != nil {
		s.LastError = &ErrorInfo{Kind: dayz.KindOf(c.lastErr).String(), Message: c.lastErr.Error()}
	}
	return s
}

// ensureMessage returns the known message ID or sends the placeholder and records its ID.
func (c *Controller) ensureMessage(ctx context.Context) (string, error) {
	c.createMu.Lock()
	defer c.createMu.Unlock()

	if id := c.MessageID(); id != "" {
		return id, nil
	}
	id, err := c.messenger.Send(ctx, c.cfg.ChannelID, c.render.placeholder())
	if err != nil {
		return "", &dayz.Error{Kind: dayz.KindMessageSend, Err: err}
	}
	c.mu.Lock()
	c.messageID = id
	c.mu.Unlock()
	log.Printf("Created status message %s in channel %s", id, c.cfg.ChannelID)
	return id, nil
}

// Tick runs one update. Query failures are rendered as offline and are not returned;
// the returned error is a send or edit failure of the chat API.
func (c *Controller) Tick(ctx context.Context) error {
	id, err := c.ensureMessage(ctx)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		c.observe(ctx, OutcomeSendFailed, 0)
		return err
	}

	start := c.now()
	st, fetchErr := c.fetcher.Fetch(ctx)
	now := c.now()
	took := now.Sub(start)

	embed := c.render.offline(now)
	outcome := OutcomeOffline
	if fetchErr != nil {
		log.Printf("Error getting server status: %s", fetchErr)
	} else {
		embed = c.render.online(st, now)
		outcome = OutcomeOnline
		if c.cfg.Debug {
			log.Printf("Server status: players=%d/%d queue=%v time=%v", st.Players, st.MaxPlayers, deref(st.PlayersInQueue), deref(st.ServerTime))
		}
	}

	c.mu.Lock()
	c.lastTickAt = now
	c.lastErr = fetchErr
	c.lastStatus = nil
	if fetchErr == nil {
		c.lastStatus = &st
	}
	c.mu.Unlock()

	if err := c.messenger.Edit(ctx, c.cfg.ChannelID, id, embed); err != nil {
		err = &dayz.Error{Kind: dayz.KindMessageEdit, Err: err}
		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()
		c.observe(ctx, OutcomeEditFailed, took)
		return err
	}
	c.observe(ctx, outcome, took)
	return nil
}

// Run ticks, then sleeps the full interval, until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := c.Tick(ctx); err != nil {
			log.Printf("Status update skipped: %s", err)
		}
		select {
		case <-ctx.Done():
		case <-time.After(c.cfg.Interval):
		}
	}
}

func (c *Controller) observe(ctx context.Context, outcome string, took time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveTick(ctx, outcome, took)
	}
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

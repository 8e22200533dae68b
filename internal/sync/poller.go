package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/health-alerts/internal/logging"
)

// RefreshState represents the current state of a surface refresh.
type RefreshState int

const (
	RefreshIdle RefreshState = iota
	RefreshRunning
	RefreshError
)

func (s RefreshState) String() string {
	switch s {
	case RefreshRunning:
		return "running"
	case RefreshError:
		return "error"
	default:
		return "idle"
	}
}

// Surface is a UI element that keeps its data fresh on its own timer.
// Several surfaces may refresh the same store; each keeps its own timer.
type Surface struct {
	Name     string
	Interval time.Duration
	Refresh  func(ctx context.Context) error
}

// SurfaceStatus holds the refresh state for a single mounted surface.
type SurfaceStatus struct {
	Name        string
	State       RefreshState
	LastRefresh time.Time
	Error       error
}

// RefreshResultMsg is a tea.Msg sent when a surface refresh completes.
type RefreshResultMsg struct {
	Surface string
	Error   error
	At      time.Time
}

const (
	// defaultFetchTimeout is the maximum time allowed for a single refresh.
	defaultFetchTimeout = 30 * time.Second
	defaultInterval     = 60 * time.Second
)

// mounted is a surface with its own ticker goroutine.
type mounted struct {
	id      int
	surface Surface
	status  *SurfaceStatus
	trigger chan struct{}
	stop    chan struct{}
	once    gosync.Once
}

// Option configures a Poller.
type Option func(*Poller)

// WithFetchTimeout bounds every refresh.
func WithFetchTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.fetchTimeout = d
		}
	}
}

// WithLogger sets the logger used for refresh failures.
func WithLogger(l *logging.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.log = l
		}
	}
}

// Poller drives the periodic refresh of mounted surfaces.
type Poller struct {
	log          *logging.Logger
	fetchTimeout time.Duration
	resultCh     chan RefreshResultMsg

	mu      gosync.Mutex
	next    int
	mounted map[int]*mounted
}

// New creates an empty Poller.
func New(opts ...Option) *Poller {
	p := &Poller{
		log:          logging.Nop(),
		fetchTimeout: defaultFetchTimeout,
		resultCh:     make(chan RefreshResultMsg, 16),
		mounted:      make(map[int]*mounted),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With("subsystem", "poller")
	return p
}

// Mount refreshes s immediately and then on every tick of its interval
// until the returned unmount func is called. Unmounting stops the timer
// but lets an in-flight refresh finish.
func (p *Poller) Mount(s Surface) (unmount func()) {
	if s.Interval <= 0 {
		s.Interval = defaultInterval
	}

	p.mu.Lock()
	m := &mounted{
		id:      p.next,
		surface: s,
		status:  &SurfaceStatus{Name: s.Name, State: RefreshIdle},
		trigger: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
	p.next++
	p.mounted[m.id] = m
	p.mu.Unlock()

	go p.pollSurface(m)

	return func() { p.unmount(m) }
}

func (p *Poller) unmount(m *mounted) {
	m.once.Do(func() {
		p.mu.Lock()
		delete(p.mounted, m.id)
		p.mu.Unlock()
		close(m.stop)
	})
}

// Stop unmounts every surface.
func (p *Poller) Stop() {
	for _, m := range p.snapshot() {
		p.unmount(m)
	}
}

// RefreshAll triggers an immediate refresh of every mounted surface.
// It never blocks; a surface with a refresh already pending is skipped.
func (p *Poller) RefreshAll() {
	for _, m := range p.snapshot() {
		select {
		case m.trigger <- struct{}{}:
		default:
			// A refresh is already pending
		}
	}
}

// Statuses returns the refresh status of every mounted surface in mount
// order.
func (p *Poller) Statuses() []SurfaceStatus {
	ms := p.snapshot()

	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]SurfaceStatus, 0, len(ms))
	for _, m := range ms {
		out = append(out, *m.status)
	}
	return out
}

// snapshot returns the mounted surfaces ordered by mount id.
func (p *Poller) snapshot() []*mounted {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*mounted, 0, len(p.mounted))
	for id := 0; id < p.next; id++ {
		if m, ok := p.mounted[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

// pollSurface runs the refresh loop for a single surface.
func (p *Poller) pollSurface(m *mounted) {
	// Do an initial fetch immediately
	p.refresh(m)

	ticker := time.NewTicker(m.surface.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			p.refresh(m)
		case <-m.trigger:
			p.refresh(m)
		}
	}
}

// refresh runs one refresh and reports the result on the result channel.
// The context is not tied to the mount, so unmounting never cancels it.
func (p *Poller) refresh(m *mounted) {
	p.setStatus(m, RefreshRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), p.fetchTimeout)
	defer cancel()
	ctx = p.log.WithField(ctx, "surface", m.surface.Name)

	err := m.surface.Refresh(ctx)
	if err != nil {
		p.log.Warn(ctx, "surface refresh failed", err)
		p.setStatus(m, RefreshError, err)
	} else {
		p.setStatus(m, RefreshIdle, nil)
	}

	p.sendResult(RefreshResultMsg{Surface: m.surface.Name, Error: err, At: time.Now()})
}

func (p *Poller) setStatus(m *mounted, state RefreshState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m.status.State = state
	m.status.Error = err
	if state == RefreshIdle && err == nil {
		m.status.LastRefresh = time.Now()
	}
}

// sendResult sends a RefreshResultMsg without blocking.
func (p *Poller) sendResult(msg RefreshResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next refresh
// result. Call it again after handling each RefreshResultMsg.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return func() tea.Msg {
		return <-p.resultCh
	}
}

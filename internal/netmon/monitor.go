// Package netmon observes connectivity transitions and exposes a boolean
// online/offline signal plus an edge-triggered "became online" event.
package netmon

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Prober is the platform connectivity signal: a boolean "is online"
// readable at any time. It is an injected collaborator; a nil prober
// means no reliable signal is available and the monitor stays optimistic.
type Prober interface {
	Online(ctx context.Context) bool
}

// HTTPProber probes a URL; any response (regardless of status) counts as
// online, since reaching the server is the signal.
type HTTPProber struct {
	URL    string
	Client *http.Client
}

// Online performs a HEAD request against the probe URL.
func (p *HTTPProber) Online(ctx context.Context) bool {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Monitor is a two-state machine (ONLINE/OFFLINE). The OFFLINE -> ONLINE
// transition is edge-triggered: registered callbacks fire exactly once per
// transition, not on every polling tick.
type Monitor struct {
	prober   Prober
	interval time.Duration
	log      *logrus.Logger

	mu        sync.Mutex
	online    bool
	callbacks []func()
}

// New constructs a Monitor. The initial state is read from the prober at
// construction time; with a nil prober the monitor defaults to online.
func New(prober Prober, interval time.Duration, log *logrus.Logger) *Monitor {
	if log == nil {
		log = logrus.StandardLogger()
	}

	m := &Monitor{
		prober:   prober,
		interval: interval,
		log:      log,
		online:   true,
	}
	if prober != nil {
		m.online = prober.Online(context.Background())
	}
	return m
}

// Online reports the current state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnOnline registers a callback fired on each OFFLINE -> ONLINE transition.
func (m *Monitor) OnOnline(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// SetOnline feeds an external connectivity event (the platform event
// source) into the state machine.
func (m *Monitor) SetOnline(online bool) {
	m.transition(online)
}

// Start polls the prober until ctx is cancelled. Without a prober there is
// nothing to poll and Start returns immediately.
func (m *Monitor) Start(ctx context.Context) {
	if m.prober == nil {
		return
	}

	interval := m.interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.transition(m.prober.Online(ctx))
			}
		}
	}()
}

// transition applies a state observation; callbacks fire only on the
// offline-to-online edge, outside the lock.
func (m *Monitor) transition(online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	var fire []func()
	if online && !wasOnline {
		fire = append(fire, m.callbacks...)
	}
	m.mu.Unlock()

	if len(fire) > 0 {
		m.log.WithField("component", "netmon").Debug("connectivity restored")
		for _, fn := range fire {
			fn()
		}
	}
}

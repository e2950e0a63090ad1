// Package ops is the caller-facing surface of the offline core. Each
// operation takes an Input struct and returns an Output struct; no
// operation ever surfaces a raw driver or transport error to the caller.
package ops

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/roamlabs/roam/internal/cache"
	"github.com/roamlabs/roam/internal/config"
	"github.com/roamlabs/roam/internal/netmon"
	"github.com/roamlabs/roam/internal/queue"
	"github.com/roamlabs/roam/internal/remote"
	"github.com/roamlabs/roam/internal/search"
	"github.com/roamlabs/roam/internal/store"
	"github.com/roamlabs/roam/internal/syncer"
)

// Options configures a Service. Remote, Prober, and Scheduler are
// injected collaborators; any of them may be nil.
type Options struct {
	// BaseDir is where the durable store and config live (e.g. ~/.roam).
	BaseDir string

	// Config overrides loading config.json from BaseDir when non-nil.
	Config *config.Config

	// Remote overrides the HTTP client built from Config.RemoteBaseURL.
	Remote syncer.Remote

	// Prober overrides the HTTP prober built from Config. A nil prober
	// with no RemoteBaseURL leaves the monitor optimistic.
	Prober netmon.Prober

	// Scheduler is the optional platform background-task hook.
	Scheduler queue.Scheduler

	Logger *logrus.Logger
}

// Service wires the durable store, queue, sync engine, cache, ranker,
// and network monitor behind one API.
type Service struct {
	cfg      *config.Config
	log      *logrus.Logger
	store    store.Store
	queue    *queue.Queue
	cache    *cache.Cache
	engine   *syncer.Engine
	ranker   *search.Ranker
	monitor  *netmon.Monitor
	degraded bool
}

// NewService builds the full offline core. If the durable store cannot
// be opened the service degrades to an in-memory store: everything keeps
// working for the session, nothing survives a restart, and the failure
// is logged exactly once, never returned.
func NewService(opts Options) (*Service, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load(opts.BaseDir)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	var st store.Store
	degraded := false
	sq, err := store.Open(opts.BaseDir, cfg)
	if err != nil {
		log.WithError(err).Warn("durable store unavailable, running in-memory only")
		st = store.NewMemory()
		degraded = true
	} else {
		st = sq
	}

	rem := opts.Remote
	if rem == nil {
		rem = remote.NewClient(cfg.RemoteBaseURL)
	}

	prober := opts.Prober
	if prober == nil && cfg.RemoteBaseURL != "" {
		prober = &netmon.HTTPProber{URL: cfg.RemoteBaseURL + cfg.ProbePath}
	}
	monitor := netmon.New(prober, time.Duration(cfg.ProbeIntervalSecs)*time.Second, log)

	q := queue.New(st, opts.Scheduler, log)
	if err := q.Reload(context.Background()); err != nil {
		log.WithError(err).Warn("could not rebuild pending mirror")
	}

	engine := syncer.New(st, q, rem, log)
	engine.Attach(monitor)

	c := cache.New(st, cfg.CacheMaxFacts)

	return &Service{
		cfg:      cfg,
		log:      log,
		store:    st,
		queue:    q,
		cache:    c,
		engine:   engine,
		ranker:   search.New(c),
		monitor:  monitor,
		degraded: degraded,
	}, nil
}

// Start begins connectivity polling. Sync triggers (reconnect edge and
// manual SyncNow) work without it.
func (s *Service) Start(ctx context.Context) {
	s.monitor.Start(ctx)
}

// Monitor exposes the network monitor, mainly so callers can feed
// platform connectivity events via SetOnline.
func (s *Service) Monitor() *netmon.Monitor {
	return s.monitor
}

// Close releases the durable store.
func (s *Service) Close() error {
	return s.store.Close()
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"issuegrid/internal/config"
	"issuegrid/internal/logging"
	"issuegrid/internal/notifications"
	"issuegrid/internal/snapshot"
	"issuegrid/internal/store"
)

// Options carries optional daemon wiring.
type Options struct {
	// ConfigPath is reloaded on change when refresh.watch_config is set.
	ConfigPath string
	// Authenticated reports whether GitHub requests carry a token.
	Authenticated bool
	// Notifier receives refresh health changes. Nil disables notifications.
	Notifier notifications.Service
}

type refreshHealth int

const (
	healthUnknown refreshHealth = iota
	healthOK
	healthDegraded
	healthFailed
)

// Daemon coordinates background refreshes and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	refresher *snapshot.Refresher
	opts      Options

	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	trigger   chan struct{}
	apiServer *apiServer
	watcher   *configWatcher

	mu          sync.Mutex
	startedAt   time.Time
	lastRefresh time.Time
	nextRefresh time.Time
	lastError   string
	health      refreshHealth
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	LastRefresh  time.Time
	NextRefresh  time.Time
	LastError    string
	LockFilePath string
	Cache        store.Health
	CacheError   string
	Snapshot     *snapshot.Snapshot
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, refresher *snapshot.Refresher, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil || st == nil || refresher == nil {
		return nil, errors.New("daemon requires config, store, and refresher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if opts.Notifier == nil {
		opts.Notifier = notifications.NewService(nil)
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     st,
		refresher: refresher,
		opts:      opts,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
		trigger:   make(chan struct{}, 1),
	}, nil
}

// Start acquires the daemon lock, starts the refresh loop and the API
// server, and begins watching the config file if configured.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another issuegrid daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	srv, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		d.abortStart()
		return err
	}
	if err := srv.start(d.ctx); err != nil {
		d.abortStart()
		return err
	}
	d.apiServer = srv

	if d.cfg.Refresh.WatchConfig && d.opts.ConfigPath != "" {
		watcher, err := newConfigWatcher(d.opts.ConfigPath, d.watchedFiles(), d.reloadFromWatch, d.logger)
		if err != nil {
			logging.WarnWithContext(d.logger, "config watch unavailable", "config_watch_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "config changes need a daemon restart"),
			)
		} else {
			d.watcher = watcher
			d.wg.Go(func() { watcher.run(d.ctx) })
		}
	}

	d.mu.Lock()
	d.startedAt = time.Now()
	d.mu.Unlock()

	d.wg.Go(func() { d.refreshLoop(d.ctx) })
	d.running.Store(true)
	d.logger.Info("issuegrid daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("profiles", len(d.cfg.Profiles)),
		logging.Int("interval_seconds", d.cfg.Refresh.IntervalSeconds),
	)
	return nil
}

func (d *Daemon) abortStart() {
	_ = d.lock.Unlock()
	d.cancel()
	d.ctx = nil
	d.cancel = nil
}

// Stop stops background work and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.apiServer.stop()
	d.wg.Wait()
	if d.watcher != nil {
		_ = d.watcher.close()
		d.watcher = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("issuegrid daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddress returns the address the HTTP API listens on, if started.
func (d *Daemon) APIAddress() string {
	if d.apiServer == nil || d.apiServer.listener == nil {
		return ""
	}
	return d.apiServer.listener.Addr().String()
}

func (d *Daemon) refreshLoop(ctx context.Context) {
	interval := time.Duration(d.cfg.Refresh.IntervalSeconds) * time.Second
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-d.trigger:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
		_, _ = d.Refresh(ctx)
		d.mu.Lock()
		d.nextRefresh = time.Now().Add(interval)
		d.mu.Unlock()
		timer.Reset(interval)
	}
}

// TriggerRefresh asks the refresh loop to run as soon as possible.
func (d *Daemon) TriggerRefresh() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

// Refresh runs a refresh synchronously and records its outcome.
func (d *Daemon) Refresh(ctx context.Context) (*snapshot.Snapshot, error) {
	snap, err := d.refresher.Refresh(ctx)
	d.mu.Lock()
	if err != nil {
		d.lastError = err.Error()
	} else {
		d.lastError = ""
		d.lastRefresh = snap.CompletedAt
	}
	d.mu.Unlock()
	d.notifyHealth(ctx, snap, err)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// notifyHealth publishes a notification when the refresh outcome moves
// between healthy, degraded (some profiles served from cache) and failed.
// The first healthy refresh after startup is not announced.
func (d *Daemon) notifyHealth(ctx context.Context, snap *snapshot.Snapshot, refreshErr error) {
	health := healthOK
	var event notifications.Event
	payload := notifications.Payload{}
	switch {
	case refreshErr != nil:
		health = healthFailed
		event = notifications.EventRefreshFailed
		payload["error"] = refreshErr
	default:
		var stale []string
		for _, view := range snap.Views() {
			if view.Stale() {
				stale = append(stale, view.Name)
				if _, ok := payload["error"]; !ok && view.Error != "" {
					payload["error"] = view.Error
				}
			}
		}
		if len(stale) > 0 {
			health = healthDegraded
			event = notifications.EventRefreshDegraded
			payload["profiles"] = stale
		} else {
			event = notifications.EventRefreshRecovered
			payload["refreshID"] = snap.RefreshID
		}
	}

	d.mu.Lock()
	previous := d.health
	d.health = health
	d.mu.Unlock()
	if health == previous || (health == healthOK && previous == healthUnknown) {
		return
	}
	if err := d.opts.Notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(d.logger, "refresh notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "refresh health change was not announced"),
		)
	}
}

// Snapshot returns the published snapshot or nil before the first refresh.
func (d *Daemon) Snapshot() *snapshot.Snapshot {
	return d.refresher.Holder().Load()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    d.startedAt,
		LastRefresh:  d.lastRefresh,
		NextRefresh:  d.nextRefresh,
		LastError:    d.lastError,
		LockFilePath: d.lockPath,
	}
	d.mu.Unlock()

	health, err := d.store.Health(ctx)
	if err != nil {
		status.CacheError = err.Error()
	}
	status.Cache = health
	status.Snapshot = d.Snapshot()
	return status
}

// Authenticated reports whether GitHub requests carry a token.
func (d *Daemon) Authenticated() bool {
	return d.opts.Authenticated
}

// ReloadConfig re-reads the config file and re-organizes the published
// issues with the new scopes. Only profiles and organize scopes take effect;
// GitHub, path and refresh settings need a restart.
func (d *Daemon) ReloadConfig(ctx context.Context) error {
	if d.opts.ConfigPath == "" {
		return errors.New("daemon was started without a config file")
	}
	cfg, _, _, err := config.Load(d.opts.ConfigPath)
	if err != nil {
		return err
	}
	scopes, err := cfg.Scopes()
	if err != nil {
		return err
	}
	snap := d.refresher.Reorganize(ctx, scopes)
	d.logger.Info("config reloaded",
		logging.String("path", d.opts.ConfigPath),
		logging.RefreshID(snap.RefreshID),
		logging.Int("profiles", len(scopes)),
	)
	return nil
}

func (d *Daemon) reloadFromWatch(ctx context.Context) {
	if err := d.ReloadConfig(ctx); err != nil {
		logging.WarnWithContext(d.logger, "config reload failed", "config_reload_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the config file; the previous profiles stay active"),
			logging.String(logging.FieldImpact, "bins keep the last valid organization"),
		)
		return
	}
	if d.watcher != nil {
		if cfg, _, _, err := config.Load(d.opts.ConfigPath); err == nil {
			d.watcher.setFiles(organizeFiles(cfg))
		}
	}
}

func (d *Daemon) watchedFiles() []string {
	return organizeFiles(d.cfg)
}

func organizeFiles(cfg *config.Config) []string {
	var files []string
	for _, p := range cfg.Profiles {
		if p.OrganizeFile != "" {
			files = append(files, p.OrganizeFile)
		}
	}
	return files
}

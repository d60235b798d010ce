// Package pipeline turns filesystem change notifications into archived
// copies: it filters events, waits for writers to settle, archives the file
// and records the outcome in the event log.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"backupwatch/internal/archive"
	"backupwatch/internal/config"
	"backupwatch/internal/eventlog"
	"backupwatch/internal/filter"
	"backupwatch/internal/util/logger/sl"
	"backupwatch/internal/watcher"

	"github.com/google/uuid"
)

// Pipeline is single-use: once stopped it cannot be started again.
type Pipeline struct {
	source    watcher.Source
	logger    *slog.Logger
	now       func() time.Time
	recorder  Recorder
	sessionID func() string
	metrics   *Metrics

	mu    sync.Mutex
	state State
	err   error

	cfg        config.Watch
	root       string
	filter     *filter.Filter
	archiver   *archive.Archiver
	log        *eventlog.Log
	sub        watcher.Subscription
	session    eventlog.Session
	debouncer  *watcher.Debouncer
	inFlight   sync.WaitGroup
	stopChan   chan struct{}
	done       chan struct{}
	archiveDir string
}

func New(opts Options) *Pipeline {
	if opts.Source == nil {
		opts.Source = watcher.NewFSNotify(watcher.Config{Logger: opts.Logger})
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.SessionID == nil {
		opts.SessionID = func() string { return uuid.New().String() }
	}

	return &Pipeline{
		source:    opts.Source,
		logger:    opts.Logger.With(slog.String("component", "pipeline")),
		now:       opts.Clock,
		recorder:  opts.Recorder,
		sessionID: opts.SessionID,
		metrics:   NewMetrics(),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start validates cfg, prepares the archive directory, subscribes to root and
// begins dispatching events. On error the pipeline stays Idle. Cancelling
// ctx stops the pipeline.
func (p *Pipeline) Start(ctx context.Context, root string, cfg config.Watch) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Idle {
		return ErrAlreadyStarted
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("%w: %w: %v", ErrConfig, ErrInvalidRoot, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %w: %v", ErrConfig, ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %w: %s", ErrConfig, ErrInvalidRoot, root)
	}

	f, err := filter.New(filter.Options{
		Patterns:          cfg.Patterns,
		IgnorePatterns:    cfg.IgnorePatterns,
		CaseSensitive:     cfg.CaseSensitive,
		IgnoreDirectories: cfg.IgnoreDirectories,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	archiver, err := archive.NewArchiver(archive.Config{Dir: cfg.BackupDir, Clock: p.now})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	log := eventlog.New(eventlog.Config{
		Dir:      archiver.Dir(),
		FileName: cfg.LogFile,
		Logger:   p.logger,
		Clock:    p.now,
	})

	p.cfg = cfg
	p.root = root
	p.filter = f
	p.archiver = archiver
	p.archiveDir = archiver.Dir()
	p.log = log

	opts := watcher.SubscribeOptions{Recursive: cfg.Recursive}
	if p.insideArchive(root) {
		return fmt.Errorf("%w: %w: %s lies inside the archive directory", ErrConfig, ErrInvalidRoot, root)
	}
	if within(root, p.archiveDir) {
		opts.Exclude = []string{p.archiveDir}
	}

	sub, err := p.source.Subscribe(root, opts)
	if err != nil {
		p.logger.Error("failed to subscribe", slog.String("root", root), sl.Err(err))
		return fmt.Errorf("%w: %w", ErrSubscription, err)
	}

	p.session = eventlog.Session{
		ID:         p.sessionID(),
		Root:       root,
		ArchiveDir: p.archiveDir,
		Started:    p.now(),
	}
	if err := log.SessionStart(p.session); err != nil {
		sub.Close()
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if cfg.Coalesce {
		p.debouncer = watcher.NewDebouncer(cfg.SettleDelay)
	}

	p.sub = sub
	p.state = Running

	go p.run(ctx)

	return nil
}

func (p *Pipeline) run(ctx context.Context) {
	events := p.sub.Events()
	errs := p.sub.Errors()

	var failure error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-p.stopChan:
			break loop
		case err := <-errs:
			failure = err
			break loop
		case ev, ok := <-events:
			if !ok {
				select {
				case err := <-errs:
					failure = err
				default:
					failure = errStreamClosed
				}
				break loop
			}
			p.dispatch(ev)
		}
	}

	p.mu.Lock()
	p.state = Stopping
	if failure != nil {
		p.err = fmt.Errorf("%w: %w", ErrSubscription, failure)
	}
	p.mu.Unlock()

	if failure != nil {
		p.metrics.RecordError()
		p.log.Errorf("Watching stopped: %v", failure)
	}

	p.finish()
}

func (p *Pipeline) dispatch(ev watcher.ChangeEvent) {
	p.metrics.RecordEvent(p.now())

	if p.insideArchive(ev.Path) {
		p.metrics.RecordFiltered()
		return
	}

	switch ev.Op {
	case watcher.Created, watcher.Modified:
		if !p.filter.Matches(ev.Path, ev.IsDir) {
			p.metrics.RecordFiltered()
			return
		}
		p.schedule(ev.Path, ev.Op.String(), p.debouncer != nil)

	case watcher.Deleted:
		if !p.filter.Matches(ev.Path, ev.IsDir) {
			p.metrics.RecordFiltered()
			return
		}
		p.metrics.RecordWarning()
		p.log.Warningf("'%s' deleted", p.rel(ev.Path))

	case watcher.Moved:
		if p.insideArchive(ev.Dest) || !p.filter.Matches(ev.Dest, ev.IsDir) {
			p.metrics.RecordFiltered()
			return
		}
		p.log.Infof("moved: '%s' -> '%s'", p.rel(ev.Path), p.rel(ev.Dest))
		p.schedule(ev.Dest, ev.Op.String(), false)

	default:
		p.metrics.RecordFiltered()
	}
}

// schedule archives path once the settle delay has passed. Coalesced calls
// for the same path replace each other; the others each get their own copy.
func (p *Pipeline) schedule(path, reason string, coalesce bool) {
	if coalesce {
		p.debouncer.Debounce(path, func() {
			p.backup(path, reason)
		})
		return
	}

	p.inFlight.Add(1)
	go func() {
		defer p.inFlight.Done()

		if p.cfg.SettleDelay > 0 {
			time.Sleep(p.cfg.SettleDelay)
		}
		p.backup(path, reason)
	}()
}

func (p *Pipeline) backup(path, reason string) {
	entry, err := p.archiver.Backup(path, reason)
	switch {
	case err == nil:
		p.metrics.RecordBackup(entry.Size)
		p.log.Infof("'%s' %s. Archived as %s (%s)",
			p.rel(path), reason, entry.Name, eventlog.FormatSize(entry.Size))

		if p.recorder != nil {
			if err := p.recorder.Record(p.session.ID, entry); err != nil {
				p.logger.Error("failed to record archive entry",
					slog.String("archive", entry.Name), sl.Err(err))
			}
		}

	case errors.Is(err, archive.ErrSourceMissing):
		p.metrics.RecordWarning()
		p.log.Warningf("'%s' not found (possibly deleted)", p.rel(path))

	default:
		p.metrics.RecordError()
		p.log.Errorf("Failed to archive '%s': %v", p.rel(path), err)
	}
}

// finish runs once, after the dispatch loop has exited.
func (p *Pipeline) finish() {
	if err := p.sub.Close(); err != nil {
		p.logger.Debug("failed to close subscription", sl.Err(err))
	}

	if p.debouncer != nil {
		p.debouncer.Wait()
	}
	p.inFlight.Wait()

	p.mu.Lock()
	p.session.Ended = p.now()
	session := p.session
	p.mu.Unlock()

	stats := p.metrics.Snapshot()
	err := p.log.SessionEnd(session, eventlog.Summary{
		Events:   stats.Events,
		Backups:  stats.Backups,
		Bytes:    stats.Bytes,
		Warnings: stats.Warnings,
		Errors:   stats.Errors,
	})
	if err != nil {
		p.logger.Error("failed to write session end", sl.Err(err))
	}

	p.mu.Lock()
	p.state = Stopped
	p.mu.Unlock()

	close(p.done)
}

// Stop closes the subscription, waits for pending backups and writes the
// session end. It returns once the pipeline is Stopped and is a no-op when
// the pipeline never started.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	switch p.state {
	case Idle:
		p.mu.Unlock()
		return
	case Running:
		p.state = Stopping
		close(p.stopChan)
	}
	p.mu.Unlock()

	<-p.done
}

// Done is closed once the pipeline reaches Stopped.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Err reports why the pipeline stopped on its own, wrapped in
// ErrSubscription. It is nil after a requested stop.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) Stats() Stats {
	return p.metrics.Snapshot()
}

// Session returns the banner data of the current session.
func (p *Pipeline) Session() eventlog.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// LogPath is the event log file, empty before Start.
func (p *Pipeline) LogPath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.log == nil {
		return ""
	}
	return p.log.Path()
}

// Run starts the pipeline and blocks until ctx is cancelled or the
// subscription fails.
func (p *Pipeline) Run(ctx context.Context, root string, cfg config.Watch) error {
	if err := p.Start(ctx, root, cfg); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-p.Done():
	}
	p.Stop()

	return p.Err()
}

func (p *Pipeline) insideArchive(path string) bool {
	return within(p.archiveDir, path)
}

func (p *Pipeline) rel(path string) string {
	if r, err := filepath.Rel(p.root, path); err == nil && !strings.HasPrefix(r, "..") {
		return r
	}
	return path
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

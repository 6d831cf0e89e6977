// Package preview implements the watch-and-serve command: an initial build,
// a filesystem watcher with debounced rebuilds, and a local HTTP server with
// livereload.
package preview

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/provbook/bookbuilder/internal/config"
	"github.com/provbook/bookbuilder/internal/logfields"
	"github.com/provbook/bookbuilder/internal/server"
	"github.com/provbook/bookbuilder/internal/site"
)

// Options wires the preview loop to its collaborators.
type Options struct {
	// Build runs one build and returns its report.
	Build func(ctx context.Context) (*site.BuildReport, error)
	// OnReport is called after every build attempt (report may be non-nil
	// even for failed builds). Used for history persistence and notification.
	OnReport func(report *site.BuildReport, err error)
	// Metrics is mounted on the preview server when non-nil.
	Metrics http.Handler
}

// Run builds once, then serves and rebuilds on changes until ctx is canceled.
func Run(ctx context.Context, cfg *config.Config, projectRoot string, opts Options) error {
	contentDir := cfg.Content.Dir
	if !filepath.IsAbs(contentDir) {
		contentDir = filepath.Join(projectRoot, contentDir)
	}
	if st, err := os.Stat(contentDir); err != nil || !st.IsDir() {
		return fmt.Errorf("content dir not found or not a directory: %s", contentDir)
	}

	status := &server.BuildStatus{}
	runBuild := func(buildCtx context.Context) {
		report, err := opts.Build(buildCtx)
		if err != nil {
			status.SetError(err)
		} else {
			status.SetSuccess()
		}
		if opts.OnReport != nil {
			opts.OnReport(report, err)
		}
	}

	// Initial build. Failures are displayed by the server, not fatal: the
	// watch loop exists precisely so the user can fix and save.
	runBuild(ctx)

	outputDir := cfg.Output.Dir
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(projectRoot, outputDir)
	}
	srv := server.New(server.Options{
		Port:      cfg.Serve.Port,
		OutputDir: outputDir,
		Metrics:   opts.Metrics,
	}, status)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	watcher, err := newRecursiveWatcher(contentDir)
	if err != nil {
		_ = srv.Stop(context.Background())
		return err
	}
	defer func() { _ = watcher.Close() }()

	rebuildReq, trigger := newDebouncer(cfg.Serve.DebounceDuration())
	startRebuildWorker(ctx, rebuildReq, func(workerCtx context.Context) {
		slog.Info("change detected; rebuilding site")
		runBuild(workerCtx)
		srv.LiveReload().Broadcast(strconv.FormatInt(time.Now().UnixNano(), 10))
	})

	scheduler, err := startSafetyRebuilds(cfg.Serve, rebuildReq)
	if err != nil {
		slog.Warn("periodic rebuild scheduler unavailable", logfields.Error(err))
	}
	if scheduler != nil {
		defer func() { _ = scheduler.Shutdown() }()
	}

	return watchLoop(ctx, watcher, contentDir, trigger, srv)
}

// newRecursiveWatcher watches dir and all its subdirectories.
func newRecursiveWatcher(dir string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := addDirsRecursive(watcher, dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

func addDirsRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}

// newDebouncer returns a request channel and a trigger that coalesces bursts
// of file events into one rebuild request.
func newDebouncer(delay time.Duration) (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}

	return rebuildReq, trigger
}

// startRebuildWorker processes rebuild requests one at a time. A request
// arriving mid-build marks a pending rebuild that runs immediately after.
func startRebuildWorker(ctx context.Context, rebuildReq chan struct{}, rebuild func(context.Context)) {
	var mu sync.Mutex
	running := false
	pending := false

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-rebuildReq:
				if !ok {
					return
				}
				mu.Lock()
				if running {
					pending = true
					mu.Unlock()
					continue
				}
				running = true
				mu.Unlock()

				rebuild(ctx)

				mu.Lock()
				running = false
				if pending {
					pending = false
					mu.Unlock()
					select {
					case rebuildReq <- struct{}{}:
					default:
					}
				} else {
					mu.Unlock()
				}
			}
		}
	}()
}

// startSafetyRebuilds schedules a periodic full rebuild when configured.
// Editors that save via atomic rename can slip past fsnotify on some
// platforms; the interval rebuild catches anything missed.
func startSafetyRebuilds(cfg config.ServeConfig, rebuildReq chan struct{}) (gocron.Scheduler, error) {
	interval, enabled := cfg.RebuildInterval()
	if !enabled {
		return nil, nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	scheduler.Start()
	slog.Info("periodic safety rebuild enabled", slog.Duration("interval", interval))
	return scheduler, nil
}

// watchLoop dispatches filesystem events until shutdown.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, contentDir string, trigger func(), srv *server.Server) error {
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down preview server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Stop(shutdownCtx)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleFileEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

// handleFileEvent triggers a rebuild for relevant events and keeps the
// recursive watch in sync with newly created directories.
func handleFileEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") {
		return
	}

	if ev.Op.Has(fsnotify.Create) {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			if err := addDirsRecursive(watcher, ev.Name); err != nil {
				slog.Warn("failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
			}
		}
	}

	if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) ||
		ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
		trigger()
	}
}

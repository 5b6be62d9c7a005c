package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/remedy/internal/debug"
	"github.com/standardbeagle/remedy/internal/ledger"
)

// defaultDebounce batches the burst of events an editor or compiler
// emits while rewriting the report file.
const defaultDebounce = 250 * time.Millisecond

// Watcher re-runs the fix pass whenever the diagnostics report file
// changes. The report directory is watched rather than the file itself
// because most writers replace the file by rename.
type Watcher struct {
	pipeline   *Pipeline
	reportPath string
	debounce   time.Duration
	onReport   func(*ledger.Report)

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for the given report path. onReport is
// called after every completed pass.
func NewWatcher(p *Pipeline, reportPath string, onReport func(*ledger.Report)) *Watcher {
	return &Watcher{
		pipeline:   p,
		reportPath: reportPath,
		debounce:   defaultDebounce,
		onReport:   onReport,
	}
}

// SetDebounce overrides the debounce interval. Tests use this to keep
// the wait short.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Run watches until ctx is cancelled. It runs one pass immediately,
// then one per debounced change of the report file. Parse failures of
// a half-written report surface as parse skips in that pass's report,
// never as a watch failure.
func (w *Watcher) Run(ctx context.Context, runPass func(context.Context) (*ledger.Report, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(w.reportPath)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	fire := make(chan struct{}, 1)
	schedule := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timer = time.AfterFunc(w.debounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	}()

	runOnce := func() {
		report, err := runPass(ctx)
		if err != nil {
			debug.LogPipeline("watch pass failed: %v", err)
			return
		}
		if w.onReport != nil {
			w.onReport(report)
		}
	}

	runOnce()

	target := filepath.Clean(w.reportPath)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debug.LogPipeline("report changed (%s), scheduling pass", event.Op)
			schedule()

		case <-fire:
			runOnce()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			debug.LogPipeline("watch error: %v", err)
		}
	}
}

package main

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/dennwc/webidl2js/errors"
	"github.com/dennwc/webidl2js/generate"
	"github.com/dennwc/webidl2js/logger"
)

const defaultDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [files or directories...]",
	Short: "Regenerate bindings whenever an IDL file changes",
	Long: `Generate once, then watch the inputs and regenerate after every change.
A failed run is logged and the previous output is left in place.`,
	RunE: runWatch,
}

func init() {
	addGenerateFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", defaultDebounce, "quiet period before regenerating")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	period, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	defer w.Close()
	for _, in := range cfg.Input {
		if err := watchInput(w, in); err != nil {
			return err
		}
	}

	run := func() {
		if err := regenerate(ctx, cfg); err != nil {
			logger.Logger.Errorw("Regeneration failed", "error", err.Error())
			return
		}
		logger.Logger.Infow("Bindings up to date", "output", cfg.OutputDir)
	}
	run()

	d := newDebouncer(period)
	defer d.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.C:
			run()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
					if err := watchInput(w, ev.Name); err != nil {
						logger.Logger.Warnw("Cannot watch directory", "dir", ev.Name, "error", err.Error())
					}
					continue
				}
			}
			if !relevant(ev) {
				continue
			}
			logger.Logger.Debugw("Watcher detected change", "file", ev.Name, "op", ev.Op.String())
			d.trigger()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Logger.Warnw("Watcher error", "error", err.Error())
		}
	}
}

// watchInput watches a directory tree, or the directory of a single file.
func watchInput(w *fsnotify.Watcher, in string) error {
	st, err := os.Stat(in)
	if err != nil {
		return errors.Wrapf(err, "input %s", in)
	}
	if !st.IsDir() {
		return errors.Wrapf(w.Add(filepath.Dir(in)), "watching %s", in)
	}
	return filepath.WalkDir(in, func(p string, e os.DirEntry, err error) error {
		if err != nil || !e.IsDir() {
			return err
		}
		if err := w.Add(p); err != nil {
			return errors.Wrapf(err, "watching %s", p)
		}
		return nil
	})
}

func relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(ev.Name))
	for _, e := range generate.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// debouncer coalesces bursts of triggers into one signal on C, sent once no
// trigger arrived for the whole period.
type debouncer struct {
	C chan struct{}

	period time.Duration
	mu     sync.Mutex
	timer  *time.Timer
}

func newDebouncer(period time.Duration) *debouncer {
	return &debouncer{C: make(chan struct{}, 1), period: period}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.period, func() {
		select {
		case d.C <- struct{}{}:
		default:
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kamusis/adr-cli/internal/corpus"
)

// Watch calls rebuild after corpus directories change, coalescing bursts of
// events within debounce. Every rebuild is a full one. A failed rebuild is
// logged and watching continues; Watch returns when ctx is done.
func Watch(ctx context.Context, dirs []string, debounce time.Duration, rebuild func(context.Context) error, log *slog.Logger) error {
	if len(dirs) == 0 {
		return fmt.Errorf("no corpus directories to watch")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot start watcher: %w", err)
	}
	defer w.Close()

	addTree := func(dir string) error {
		subdirs, err := corpus.WalkDirs(dir)
		if err != nil {
			return err
		}
		for _, d := range subdirs {
			if err := w.Add(d); err != nil {
				return fmt.Errorf("cannot watch %s: %w", d, err)
			}
		}
		return nil
	}
	for _, d := range dirs {
		if err := addTree(d); err != nil {
			return err
		}
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(ev.Name); err != nil {
						log.Warn("cannot watch new directory", "dir", ev.Name, "err", err)
					}
				}
			}
			log.Debug("corpus changed", "event", ev.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "err", err)
		case <-fire:
			fire = nil
			if err := rebuild(ctx); err != nil {
				log.Error("rebuild failed", "err", err)
			}
		}
	}
}

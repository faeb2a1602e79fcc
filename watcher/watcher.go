// Package watcher runs a shell command whenever files under the watched
// paths change.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Paths    []string
	Ignore   []string
	Command  string
	Debounce time.Duration
	Stdout   io.Writer
	Stderr   io.Writer
}

type Watcher struct {
	opts    Options
	watcher *fsnotify.Watcher
}

// run is a started command.
type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func New(opts Options) (*Watcher, error) {
	if opts.Command == "" {
		return nil, errors.New("no command to run")
	}
	if len(opts.Paths) == 0 {
		opts.Paths = []string{"."}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 200 * time.Millisecond
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{opts: opts, watcher: fsw}
	for _, path := range opts.Paths {
		if err := w.add(path); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Ignored reports whether path matches one of the ignore patterns, either
// by its base name or as a whole.
func (w *Watcher) Ignored(path string) bool {
	base := filepath.Base(path)
	clean := filepath.Clean(path)
	for _, pattern := range w.opts.Ignore {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, clean); ok {
			return true
		}
	}
	return false
}

// add watches root and every directory below it that is not ignored.
func (w *Watcher) add(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.Ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		logrus.WithField("path", path).Debug("watching")
		return nil
	})
}

// Run handles file events until ctx is done. Every burst of events ends in
// one run of the command; a run still going when the next one starts is
// cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()
	defer timer.Stop()

	var current *run
	stop := func() {
		if current != nil {
			current.cancel()
			<-current.done
			current = nil
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.Ignored(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.add(event.Name); err != nil {
						logrus.WithError(err).Warn("failed to watch new directory")
					}
				}
			}
			logrus.WithFields(logrus.Fields{"path": event.Name, "op": event.Op.String()}).Debug("file event")
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logrus.WithError(err).Warn("watch error")

		case <-timer.C:
			stop()
			current = w.start(ctx)
		}
	}
}

func (w *Watcher) start(ctx context.Context) *run {
	runCtx, cancel := context.WithCancel(ctx)
	r := &run{cancel: cancel, done: make(chan struct{})}

	cmd := exec.CommandContext(runCtx, "sh", "-c", w.opts.Command)
	cmd.Stdout = w.opts.Stdout
	cmd.Stderr = w.opts.Stderr
	cmd.WaitDelay = time.Second

	logrus.WithField("command", w.opts.Command).Info("running")
	go func() {
		defer close(r.done)
		start := time.Now()
		err := cmd.Run()
		log := logrus.WithField("duration", time.Since(start).Round(time.Millisecond))
		switch {
		case runCtx.Err() != nil:
			log.Info("command cancelled")
		case err != nil:
			log.WithError(err).Warn("command failed")
		default:
			log.Info("command finished")
		}
	}()
	return r
}

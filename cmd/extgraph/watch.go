package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"github.com/viant/extgraph/analyzer"
	"github.com/viant/extgraph/inspector"
	"github.com/viant/extgraph/inspector/repository"
)

const (
	defaultDebounce       = 300 * time.Millisecond
	defaultWatchCacheSize = 4096
)

var watchPattern = glob.MustCompile("{*.js,**/*.js,"+repository.ManifestFile+",**/"+repository.ManifestFile+"}", '/')

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-index a package directory whenever sources or manifests change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			logger := commandLogger(cmd, s)
			location, err := packageDir(cmd.Context(), args, logger)
			if err != nil {
				return err
			}
			dir, err := repository.ExpandPath(location)
			if err != nil {
				return err
			}
			// inspection results survive between runs, unchanged files are not parsed again
			factory, err := inspector.NewFactory(inspector.WithCacheSize(max(s.CacheSize, defaultWatchCacheSize)))
			if err != nil {
				return err
			}
			reindex := func(ctx context.Context) {
				if err := runIndex(ctx, dir, s, logger, cmd.OutOrStdout(), analyzer.WithInspector(factory)); err != nil {
					logger.Error("indexing failed", "err", err)
				}
			}
			reindex(cmd.Context())

			w, err := newWatcher(dir, s.Debounce, logger)
			if err != nil {
				return err
			}
			logger.Info("watching for changes", "path", dir)
			return w.Run(cmd.Context(), func(ctx context.Context, changed []string) {
				logger.Debug("changes detected", "files", changed)
				reindex(ctx)
			})
		},
	}
	addIndexFlags(cmd)
	cmd.Flags().Duration("debounce", defaultDebounce, "quiet period after the last change before re-indexing")
	return cmd
}

// watcher coalesces file system events under baseDir into debounced callbacks
type watcher struct {
	fsw      *fsnotify.Watcher
	baseDir  string
	debounce time.Duration
	logger   *log.Logger
}

func newWatcher(baseDir string, debounce time.Duration, logger *log.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	ret := &watcher{fsw: fsw, baseDir: baseDir, debounce: debounce, logger: logger}
	if err = ret.addDirectories(); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return ret, nil
}

func (w *watcher) addDirectories() error {
	err := filepath.WalkDir(w.baseDir, func(location string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping inaccessible path", "path", location, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if location != w.baseDir && isIgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(location)
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.baseDir, err)
	}
	return nil
}

func (w *watcher) maybeAddDir(location string) {
	info, err := os.Stat(location)
	if err != nil || !info.IsDir() || isIgnoredDir(info.Name()) {
		return
	}
	if err = w.fsw.Add(location); err != nil {
		w.logger.Warn("failed to watch new directory", "path", location, "err", err)
	}
}

func isIgnoredDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

func (w *watcher) matches(rel string) bool {
	for _, segment := range strings.Split(rel, "/") {
		if strings.HasPrefix(segment, ".") || segment == "node_modules" {
			return false
		}
	}
	return watchPattern.Match(rel)
}

// Run blocks until ctx is done. Callbacks run on the event loop, events arriving meanwhile are coalesced into the next one.
func (w *watcher) Run(ctx context.Context, onChange func(ctx context.Context, changed []string)) error {
	defer w.fsw.Close()
	pending := map[string]struct{}{}
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if evt.Op == fsnotify.Chmod {
				continue
			}
			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if !w.matches(rel) {
				continue
			}
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for rel := range pending {
				changed = append(changed, rel)
			}
			clear(pending)
			sort.Strings(changed)
			onChange(ctx, changed)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

package cli

import (
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce coalesces the event bursts editors produce on save.
const watchDebounce = 200 * time.Millisecond

// runWatch regenerates the output whenever one of the input files
// changes. Diagnostics from a generation run are reported and watching
// continues; any other generation error (such as a failed read or
// write) ends the loop, as do watcher failures.
func runWatch(cmd *cobra.Command, args []string, logger *slog.Logger, generate func() error) error {
	if cfg.Output == "" {
		return errors.New("--watch requires --output, stdout cannot be rewritten")
	}
	for _, fname := range args {
		if fname == "-" {
			return errors.New("--watch cannot be combined with stdin input")
		}
	}

	if err := generate(); err != nil && !errors.Is(err, errReported) {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, fname := range args {
		abs, err := filepath.Abs(fname)
		if err != nil {
			return err
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// Watch the directories, not the files: editors replace files on
	// save, which drops a direct file watch.
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}
	logger.Info("watching for changes", "inputs", len(watched))

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			logger.Debug("input changed, regenerating")
			if err := generate(); err != nil && !errors.Is(err, errReported) {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

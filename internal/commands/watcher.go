// internal/commands/watcher.go
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/hpcloud/tail"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

// FileWatcher follows a directives file and dispatches every line appended
// to it. Lines already in the file when watching starts are ignored, so a
// restart never replays old directives.
type FileWatcher struct {
	logger     *zap.Logger
	path       string
	dispatcher Dispatcher
}

// NewFileWatcher creates a watcher for path, which may start with "~".
func NewFileWatcher(logger *zap.Logger, path string, dispatcher Dispatcher) (*FileWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("directives file path is empty")
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand directives path %q: %w", path, err)
	}
	return &FileWatcher{
		logger:     logger.Named("directives"),
		path:       expanded,
		dispatcher: dispatcher,
	}, nil
}

// Path returns the expanded file path.
func (w *FileWatcher) Path() string { return w.path }

// Run follows the file until ctx is cancelled. The file need not exist yet.
func (w *FileWatcher) Run(ctx context.Context) error {
	t, err := tail.TailFile(w.path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Location:  &tail.SeekInfo{Offset: 0, Whence: 2},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to tail directives file: %w", err)
	}
	defer t.Cleanup()

	w.logger.Info("Following directives file", zap.String("path", w.path))
	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				w.logger.Warn("Error reading directives file", zap.Error(line.Err))
				continue
			}
			w.apply(line.Text)
		}
	}
}

func (w *FileWatcher) apply(text string) {
	cmd, err := Parse(text)
	switch {
	case errors.Is(err, ErrEmptyCommand):
		return
	case err != nil:
		w.logger.Warn("Ignoring directive", zap.String("line", text), zap.Error(err))
		return
	}
	if cmd.Kind == KindStatus {
		w.logger.Info("Agent status", zap.String("status", w.dispatcher.Status()))
		return
	}
	if !w.dispatcher.Dispatch(cmd) {
		w.logger.Warn("Directive dropped, command queue full", zap.Stringer("command", cmd))
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/mrd/internal/shared"
	"github.com/desertthunder/mrd/internal/tasks"
	"github.com/desertthunder/mrd/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("%w: the TUI needs an interactive terminal", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Logging.TUIFile)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	h := r.tryHistory()
	if h != nil {
		defer h.Close()
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	return ui.Run(ctx, ui.Opts{
		Controller: r.newController(h, progress),
		Downloader: r.newDownloader(h, cmd.String("dir")),
		Progress:   progress,
	})
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mrd/internal/repositories"
	"github.com/desertthunder/mrd/internal/services"
	"github.com/desertthunder/mrd/internal/shared"
	"github.com/desertthunder/mrd/internal/tasks"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	client     services.Backend
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	tty        bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Client     services.Backend
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		client:     opts.Client,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		tty:        isTerminal(opts.Output),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		recommendCommand, downloadCommand, genresCommand, historyCommand, setupCommand, tuiCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "mrd",
		Usage:    "Music recommendations and MP3 downloads from the recommendation backend",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   r.Before,
		Commands: r.register(),
	}
}

// Before loads configuration and builds the backend client ahead of every command.
//
// A config passed through [RunnerOpts] is kept unless --config is given explicitly.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.IsSet("config") || r.config == nil {
		path := cmd.String("config")
		config, err := loadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config, r.configPath = config, path
	}

	r.config.ApplyEnv()
	if u := cmd.String("base-url"); u != "" {
		r.config.Backend.BaseURL = u
	}
	if err := r.config.Validate(); err != nil {
		return ctx, err
	}

	level := shared.ParseLogLevel(r.config.Logging.Level)
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)

	if r.client == nil {
		timeout, _ := r.config.BackendTimeout()
		if r.httpClient == nil {
			r.httpClient = &http.Client{Timeout: timeout}
		}
		api := services.NewAPIService(r.config.BaseURL(), r.httpClient)
		r.client = services.NewRecommenderService(api)
		r.logger.Debug("backend configured", "base_url", api.BaseURL(), "timeout", timeout)
	}

	return ctx, nil
}

// loadConfig reads path when it exists and falls back to the embedded defaults otherwise.
func loadConfig(path string) (*shared.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return shared.DefaultConfig(), nil
	}
	return shared.LoadConfig(path)
}

// history is an open history database and its repositories.
type history struct {
	db        *sql.DB
	queries   *repositories.QueryRepository
	downloads *repositories.DownloadRepository
}

func (h *history) Close() error {
	return h.db.Close()
}

// openHistory opens the history database and runs pending migrations.
func (r *Runner) openHistory() (*history, error) {
	db, err := shared.OpenHistoryDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return &history{
		db:        db,
		queries:   repositories.NewQueryRepository(db),
		downloads: repositories.NewDownloadRepository(db),
	}, nil
}

// tryHistory is [Runner.openHistory] for commands that work without history; failures are logged.
func (r *Runner) tryHistory() *history {
	h, err := r.openHistory()
	if err != nil {
		r.logger.Warn("history disabled", "err", err)
		return nil
	}
	return h
}

func (r *Runner) newController(h *history, progress chan<- tasks.ProgressUpdate) *tasks.Controller {
	opts := tasks.ControllerOpts{
		Client:   r.client,
		Policy:   r.config.Query.Supersede,
		Logger:   r.logger,
		Progress: progress,
	}
	if h != nil {
		opts.Recorder = h.queries
	}
	return tasks.NewController(opts)
}

func (r *Runner) newDownloader(h *history, dir string) *tasks.Downloader {
	if dir == "" {
		dir = r.config.Downloads.Dir
	}
	opts := tasks.DownloaderOpts{
		Client:        r.client,
		Saver:         tasks.FileSaver{Dir: dir},
		MaxConcurrent: r.config.Downloads.MaxConcurrent,
		RateLimit:     r.config.Downloads.RateLimit,
		Logger:        r.logger,
	}
	if h != nil {
		opts.Recorder = h.downloads
	}
	return tasks.NewDownloader(opts)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

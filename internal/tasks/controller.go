package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mrd/internal/models"
	"github.com/desertthunder/mrd/internal/services"
	"github.com/desertthunder/mrd/internal/shared"
)

// QueryRecorder persists finished query chains.
type QueryRecorder interface {
	RecordQuery(rec models.QueryRecord) error
}

// State is a snapshot of the query form.
type State struct {
	Mode      models.QueryMode
	Loading   bool
	Submitted bool
	Results   []models.TrackResult
	Err       error
}

// ControllerOpts configures a [Controller].
type ControllerOpts struct {
	Client   services.Recommender
	Policy   string                // shared.SupersedeCancel (default) or shared.SupersedeLastWriterWins
	Recorder QueryRecorder         // Optional
	Logger   *log.Logger           // Optional, defaults to stderr
	Progress chan<- ProgressUpdate // Optional, receives non-blocking updates
}

// Controller owns the query form state and runs the request chains.
//
// Each submission gets a generation number. Under the cancel policy only the newest
// generation may write results; older chains have their context cancelled and
// return [shared.ErrQuerySuperseded]. Under last-writer-wins every chain writes
// when it resolves.
type Controller struct {
	client   services.Recommender
	policy   string
	recorder QueryRecorder
	logger   *log.Logger
	progress chan<- ProgressUpdate

	mu         sync.Mutex
	mode       models.QueryMode
	submitted  bool
	inflight   int
	results    []models.TrackResult
	err        error
	generation uint64
	cancel     context.CancelFunc
}

// NewController creates a Controller in [models.ModeNone] with an empty result list.
func NewController(opts ControllerOpts) *Controller {
	if opts.Policy == "" {
		opts.Policy = shared.SupersedeCancel
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Controller{
		client:   opts.Client,
		policy:   opts.Policy,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		progress: opts.Progress,
		results:  []models.TrackResult{},
	}
}

// SelectMode switches the visible form. Results from earlier queries stay visible.
func (c *Controller) SelectMode(mode models.QueryMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = mode
}

// State returns a copy of the current form state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := make([]models.TrackResult, len(c.results))
	copy(results, c.results)

	return State{
		Mode:      c.mode,
		Loading:   c.inflight > 0,
		Submitted: c.submitted,
		Results:   results,
		Err:       c.err,
	}
}

// SubmitSong runs /recommend then /search for name.
//
// Names shorter than [models.MinSongNameLength] fail with [shared.ErrInvalidInput] before any request.
func (c *Controller) SubmitSong(ctx context.Context, name string) ([]models.TrackResult, error) {
	if c.client == nil {
		return nil, fmt.Errorf("%w: recommender not initialized", shared.ErrServiceUnavailable)
	}
	if err := models.SongQuery(name).Validate(); err != nil {
		return nil, err
	}

	return c.run(ctx, models.ModeSong, name, func(ctx context.Context) ([]models.TrackResult, error) {
		sendProgress(c.progress, recommendUpdate(models.ModeSong))
		payload, err := c.client.Recommend(ctx, name)
		if err != nil {
			return nil, err
		}
		sendProgress(c.progress, searchUpdate())
		return c.client.Search(ctx, payload)
	})
}

// SubmitValues runs /recommend_by_values then /search.
func (c *Controller) SubmitValues(ctx context.Context, values models.ValueQuery) ([]models.TrackResult, error) {
	if c.client == nil {
		return nil, fmt.Errorf("%w: recommender not initialized", shared.ErrServiceUnavailable)
	}
	if err := values.Validate(); err != nil {
		return nil, err
	}

	input, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode values: %w", err)
	}
	return c.run(ctx, models.ModeValues, string(input), func(ctx context.Context) ([]models.TrackResult, error) {
		sendProgress(c.progress, recommendUpdate(models.ModeValues))
		payload, err := c.client.RecommendByValues(ctx, values)
		if err != nil {
			return nil, err
		}
		sendProgress(c.progress, searchUpdate())
		return c.client.Search(ctx, payload)
	})
}

// SubmitGenre runs the single /genre request.
func (c *Controller) SubmitGenre(ctx context.Context, genre string) ([]models.TrackResult, error) {
	if c.client == nil {
		return nil, fmt.Errorf("%w: recommender not initialized", shared.ErrServiceUnavailable)
	}
	if err := models.ValidateGenre(genre); err != nil {
		return nil, err
	}

	return c.run(ctx, models.ModeGenre, genre, func(ctx context.Context) ([]models.TrackResult, error) {
		sendProgress(c.progress, genreUpdate(genre))
		return c.client.Genre(ctx, genre)
	})
}

type chain func(ctx context.Context) ([]models.TrackResult, error)

func (c *Controller) run(ctx context.Context, mode models.QueryMode, input string, fn chain) ([]models.TrackResult, error) {
	ctx, gen := c.begin(ctx)
	logger := shared.WithLogger(c.logger, "mode", mode, "generation", gen)
	logger.Debug("query submitted", "input", input)

	tracks, err := fn(ctx)
	if !c.finish(gen, tracks, err) {
		logger.Debug("query superseded")
		return nil, shared.ErrQuerySuperseded
	}

	c.record(mode, input, tracks, err)
	if err != nil {
		logger.Error("query failed", "err", err)
		return nil, err
	}

	logger.Info("query finished", "results", len(tracks))
	sendProgress(c.progress, doneUpdate(tracks))
	return tracks, nil
}

// begin marks a chain as in flight and, under the cancel policy, cancels the previous one.
func (c *Controller) begin(ctx context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.submitted = true

	if c.policy == shared.SupersedeCancel {
		if c.cancel != nil {
			c.cancel()
		}
		ctx, c.cancel = context.WithCancel(ctx)
		c.inflight = 1
	} else {
		c.inflight++
	}

	return ctx, c.generation
}

// finish applies a chain's outcome. It reports false when the chain was superseded and nothing changed.
func (c *Controller) finish(gen uint64, tracks []models.TrackResult, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.policy == shared.SupersedeCancel {
		if gen != c.generation {
			return false
		}
		c.inflight = 0
		if c.cancel != nil {
			c.cancel()
			c.cancel = nil
		}
	} else if c.inflight > 0 {
		c.inflight--
	}

	if err != nil {
		c.err = err
		return true
	}

	if tracks == nil {
		tracks = []models.TrackResult{}
	}
	c.results = tracks
	c.err = nil
	return true
}

func (c *Controller) record(mode models.QueryMode, input string, tracks []models.TrackResult, err error) {
	if c.recorder == nil {
		return
	}

	rec := models.QueryRecord{
		ID:          shared.GenerateID(),
		Mode:        mode,
		Input:       input,
		ResultCount: len(tracks),
		CreatedAt:   time.Now().UTC(),
	}
	if err != nil {
		rec.Error = err.Error()
	}

	if rerr := c.recorder.RecordQuery(rec); rerr != nil {
		c.logger.Warn("failed to record query", "err", rerr)
	}
}

package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/mrd/internal/formatter"
	"github.com/desertthunder/mrd/internal/models"
	"github.com/desertthunder/mrd/internal/shared"
	"github.com/desertthunder/mrd/internal/tasks"
	"github.com/urfave/cli/v3"
)

// RecommendSong runs /recommend then /search for a song name.
func (r *Runner) RecommendSong(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	return r.recommend(ctx, cmd, func(c *tasks.Controller) ([]models.TrackResult, error) {
		return c.SubmitSong(ctx, name)
	})
}

// RecommendValues runs /recommend_by_values then /search for the eight feature flags.
func (r *Runner) RecommendValues(ctx context.Context, cmd *cli.Command) error {
	raw := make(map[string]string, len(models.FeatureFields))
	for _, f := range models.FeatureFields {
		raw[f.Name] = cmd.String(f.Name)
	}

	values, err := models.ParseValueQuery(raw)
	if err != nil {
		return err
	}

	return r.recommend(ctx, cmd, func(c *tasks.Controller) ([]models.TrackResult, error) {
		return c.SubmitValues(ctx, values)
	})
}

// RecommendGenre runs the single /genre request.
func (r *Runner) RecommendGenre(ctx context.Context, cmd *cli.Command) error {
	genre := strings.ToLower(strings.TrimSpace(cmd.StringArg("genre")))
	return r.recommend(ctx, cmd, func(c *tasks.Controller) ([]models.TrackResult, error) {
		return c.SubmitGenre(ctx, genre)
	})
}

// recommend runs one query, prints the result list, and performs any requested downloads.
func (r *Runner) recommend(ctx context.Context, cmd *cli.Command, submit func(*tasks.Controller) ([]models.TrackResult, error)) error {
	format, err := r.resolveFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	h := r.tryHistory()
	if h != nil {
		defer h.Close()
	}

	progress := make(chan tasks.ProgressUpdate, 8)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range progress {
			r.logger.Debug(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()

	tracks, err := submit(r.newController(h, progress))
	close(progress)
	wg.Wait()

	if err != nil {
		if shared.IsRequestFailure(err) {
			return fmt.Errorf("request failed: %w", err)
		}
		return err
	}

	if path := cmd.String("output"); path != "" {
		saved, err := formatter.WriteTracksFile(tracks, format, path)
		if err != nil {
			return err
		}
		r.writePlain("Saved %d results to %s\n", len(tracks), saved)
	} else if err := formatter.WriteTracks(r.output, tracks, format); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	switch {
	case cmd.Bool("download-all"):
		return r.downloadAll(ctx, h, cmd.String("dir"), tracks)
	case cmd.IsSet("download"):
		n := int(cmd.Int("download"))
		if n < 1 || n > len(tracks) {
			return fmt.Errorf("%w: --download must be between 1 and %d", shared.ErrInvalidFlag, len(tracks))
		}
		rec, err := r.newDownloader(h, cmd.String("dir")).Download(ctx, tracks[n-1])
		if err != nil {
			return err
		}
		r.writePlain("%s\n", formatter.DownloadSummary(rec))
	}
	return nil
}

func (r *Runner) downloadAll(ctx context.Context, h *history, dir string, tracks []models.TrackResult) error {
	if len(tracks) == 0 {
		return nil
	}

	workers := r.config.Downloads.MaxConcurrent
	if workers <= 0 {
		workers = len(tracks)
	}

	progress := make(chan tasks.ProgressUpdate, len(tracks)*2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range progress {
			r.logger.Debug(u.Message)
		}
	}()

	batch := r.newDownloader(h, dir).DownloadAll(ctx, progress, tracks, workers)
	close(progress)
	wg.Wait()

	var bytes int64
	for _, rec := range batch.Records {
		if rec.Succeeded() {
			bytes += rec.Bytes
			r.writePlain("✓ %s\n", formatter.DownloadSummary(rec))
		} else {
			r.writePlain("✗ %s: %s\n", rec.Title, rec.Error)
		}
	}
	r.writePlainln("%s", formatter.DownloadTotals(batch.Succeeded, batch.Failed, bytes))

	if batch.Failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", batch.Failed, len(tracks))
	}
	return nil
}

// Download saves the MP3 for a single video ID.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	videoID := strings.TrimSpace(cmd.StringArg("video-id"))
	if videoID == "" {
		return fmt.Errorf("%w: video ID", shared.ErrMissingArgument)
	}

	title := cmd.String("title")
	if title == "" {
		title = videoID
	}

	h := r.tryHistory()
	if h != nil {
		defer h.Close()
	}

	rec, err := r.newDownloader(h, cmd.String("dir")).Download(ctx, models.TrackResult{VideoID: videoID, Title: title})
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", formatter.DownloadSummary(rec))
}

// Genres prints the genre catalog, one per line.
func (r *Runner) Genres(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("json") {
		return r.writeJSON(models.Genres, r.tty)
	}
	return r.writePlain("%s\n", strings.Join(models.Genres, "\n"))
}

// resolveFormat picks table output on a terminal and JSON when piped, unless one is named.
func (r *Runner) resolveFormat(raw string) (formatter.Format, error) {
	if strings.TrimSpace(raw) == "" {
		if r.tty {
			return formatter.FormatTable, nil
		}
		return formatter.FormatJSON, nil
	}
	return formatter.ParseFormat(raw)
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/mrd/internal/formatter"
	"github.com/desertthunder/mrd/internal/repositories"
	"github.com/urfave/cli/v3"
)

// HistoryQueries lists recent query chains, newest first.
func (r *Runner) HistoryQueries(ctx context.Context, cmd *cli.Command) error {
	h, err := r.openHistory()
	if err != nil {
		return err
	}
	defer h.Close()

	records, err := h.queries.List(repositories.ListOpts{
		Limit:  int(cmd.Int("limit")),
		Filter: cmd.String("mode"),
		Failed: cmd.Bool("failed"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, r.tty)
	}
	if len(records) == 0 {
		return r.writePlain("no queries recorded\n")
	}

	r.writePlainHeader(fmt.Sprintf("Queries (%d)", len(records)))
	return r.writePlain("%s\n", formatter.QueriesTable(records, time.Now()))
}

// HistoryDownloads lists recent downloads with totals across the whole history.
func (r *Runner) HistoryDownloads(ctx context.Context, cmd *cli.Command) error {
	h, err := r.openHistory()
	if err != nil {
		return err
	}
	defer h.Close()

	records, err := h.downloads.List(repositories.ListOpts{
		Limit:  int(cmd.Int("limit")),
		Filter: cmd.String("video-id"),
		Failed: cmd.Bool("failed"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, r.tty)
	}
	if len(records) == 0 {
		return r.writePlain("no downloads recorded\n")
	}

	stats, err := h.downloads.Stats()
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Downloads (%d)", len(records)))
	r.writePlain("%s\n", formatter.DownloadsTable(records, time.Now()))
	return r.writePlainln("%s", formatter.DownloadTotals(stats.Succeeded, stats.Failed, stats.Bytes))
}

// HistoryClear deletes every recorded query and download.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	h, err := r.openHistory()
	if err != nil {
		return err
	}
	defer h.Close()

	queries, err := h.queries.Clear()
	if err != nil {
		return err
	}
	downloads, err := h.downloads.Clear()
	if err != nil {
		return err
	}

	r.logger.Info("history cleared", "queries", queries, "downloads", downloads)
	return r.writePlain("Removed %d queries and %d downloads\n", queries, downloads)
}

package formatter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/mrd/internal/models"
	"github.com/dustin/go-humanize"
)

// QueriesTable renders query history with relative timestamps.
func QueriesTable(records []*models.QueryRecord, now time.Time) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		status := "ok"
		if rec.Error != "" {
			status = truncate(rec.Error, 40)
		}
		rows = append(rows, []string{
			humanize.RelTime(rec.CreatedAt, now, "ago", "from now"),
			rec.Mode.String(),
			truncate(rec.Input, 50),
			strconv.Itoa(rec.ResultCount),
			status,
		})
	}

	return renderTable(
		[]string{"When", "Mode", "Input", "Results", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

// DownloadsTable renders download history with human-readable sizes.
func DownloadsTable(records []*models.DownloadRecord, now time.Time) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		size, status := "-", "ok"
		if rec.Succeeded() {
			size = humanize.Bytes(uint64(rec.Bytes))
		} else {
			status = truncate(rec.Error, 40)
		}
		rows = append(rows, []string{
			humanize.RelTime(rec.CreatedAt, now, "ago", "from now"),
			truncate(rec.Title, 50),
			rec.VideoID,
			size,
			status,
		})
	}

	return renderTable(
		[]string{"When", "Title", "Video ID", "Size", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

// DownloadSummary is the one-line report printed after a download.
func DownloadSummary(rec models.DownloadRecord) string {
	return fmt.Sprintf("Saved %s (%s)", rec.Path, humanize.Bytes(uint64(rec.Bytes)))
}

// DownloadTotals is the footer under the downloads table.
func DownloadTotals(succeeded, failed int, bytes int64) string {
	return fmt.Sprintf("%s succeeded, %s failed, %s total",
		humanize.Comma(int64(succeeded)), humanize.Comma(int64(failed)), humanize.Bytes(uint64(bytes)))
}

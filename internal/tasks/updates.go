package tasks

import (
	"fmt"

	"github.com/desertthunder/mrd/internal/models"
)

// ProgressUpdate represents a progress event during a query chain or download batch.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Recommend Phase = iota
	Search
	Genre
	Download
	Done
)

func (p Phase) String() string {
	switch p {
	case Recommend:
		return "recommend"
	case Search:
		return "search"
	case Genre:
		return "genre"
	case Download:
		return "download"
	case Done:
		return "done"
	default:
		return ""
	}
}

// sendProgress sends an update without blocking; a full or nil channel drops it.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func recommendUpdate(mode models.QueryMode) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Recommend,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Requesting recommendations (%s)...", mode),
	}
}

func searchUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Search,
		Step:    2,
		Total:   2,
		Message: "Searching for tracks...",
	}
}

func genreUpdate(genre string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Genre,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching tracks for genre %s...", genre),
	}
}

func doneUpdate(tracks []models.TrackResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d tracks", len(tracks)),
		Data:    tracks,
	}
}

func downloadStartedUpdate(step, total int, tr models.TrackResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Downloading: %s...", step, total, tr.Title),
	}
}

func downloadCompletedUpdate(step, total int, rec models.DownloadRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, rec.Path),
		Data:    rec,
	}
}

func downloadFailedUpdate(step, total int, tr models.TrackResult, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, tr.Title, err),
	}
}

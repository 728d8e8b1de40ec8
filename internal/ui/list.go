package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/mrd/internal/models"
)

var (
	_ list.Item         = modeItem{}
	_ list.Item         = genreItem("")
	_ list.Item         = trackItem{}
	_ list.ItemDelegate = trackDelegate{}
)

// modeItem wraps [models.QueryMode] to implement [list.Item].
type modeItem struct {
	mode models.QueryMode
}

func (i modeItem) FilterValue() string { return i.mode.String() }
func (i modeItem) Title() string       { return i.mode.Label() }
func (i modeItem) Description() string {
	switch i.mode {
	case models.ModeSong:
		return "Find tracks similar to a song you name"
	case models.ModeValues:
		return "Describe the sound with eight audio features"
	case models.ModeGenre:
		return "Pick one of the catalog genres"
	}
	return ""
}

// genreItem wraps a catalog genre identifier to implement [list.Item].
type genreItem string

func (i genreItem) FilterValue() string { return string(i) }
func (i genreItem) Title() string       { return string(i) }
func (i genreItem) Description() string { return "" }

// trackItem wraps [models.TrackResult] to implement [list.Item].
type trackItem struct {
	track models.TrackResult
}

func (i trackItem) FilterValue() string { return i.track.Title }

// trackDelegate renders a result row: title, metadata badges, and download state.
type trackDelegate struct {
	status func(videoID string) string
}

func (d trackDelegate) Height() int                         { return 2 }
func (d trackDelegate) Spacing() int                        { return 1 }
func (d trackDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d trackDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(trackItem)
	if !ok {
		return
	}

	titleStyle := styles.normal
	if index == m.Index() {
		titleStyle = styles.selected
	}

	title := ti.track.Title
	if d.status != nil {
		if s := d.status(ti.track.VideoID); s != "" {
			title = fmt.Sprintf("%s  %s", title, s)
		}
	}

	width := m.Width() - 4
	if width > 0 && lipgloss.Width(title) > width {
		title = truncate(title, width)
	}

	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(title), styles.subtle.Render(ti.track.Subtitle()))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 4 {
		return s
	}
	return string(r[:n-3]) + "..."
}

func modeItems() []list.Item {
	items := make([]list.Item, len(models.Modes))
	for i, mode := range models.Modes {
		items[i] = modeItem{mode: mode}
	}
	return items
}

func genreItems() []list.Item {
	items := make([]list.Item, len(models.Genres))
	for i, g := range models.Genres {
		items[i] = genreItem(g)
	}
	return items
}

func trackItems(tracks []models.TrackResult) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}

package ui

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mrd/internal/models"
	"github.com/desertthunder/mrd/internal/services"
	"github.com/desertthunder/mrd/internal/shared"
	"github.com/desertthunder/mrd/internal/tasks"
	tu "github.com/desertthunder/mrd/internal/testing"
)

func newTestModel(t *testing.T) (*Model, *tu.FakeBackend, string) {
	t.Helper()

	backend := tu.NewFakeBackend(t)
	backend.RespondJSON(services.GenrePath, http.StatusOK, []models.TrackResult{
		{Title: "Blue in Green", VideoID: "PoPL7BExSQU", Duration: "05:37"},
	})
	backend.Respond(services.DownloadPath, tu.Reply{Body: []byte("ID3")})

	logger := shared.NewLogger(io.Discard)
	svc := services.NewRecommenderService(services.NewAPIService(backend.URL, nil))
	dir := t.TempDir()

	m := NewModel(context.Background(), Opts{
		Controller: tasks.NewController(tasks.ControllerOpts{Client: svc, Logger: logger}),
		Downloader: tasks.NewDownloader(tasks.DownloaderOpts{Client: svc, Saver: tasks.FileSaver{Dir: dir}, Logger: logger}),
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, backend, dir
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd and feeds every resulting message that belongs to this package back into m.
func drain(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drain(m, c)
		}
	case Msg:
		_, next := m.Update(msg)
		drain(m, next)
	}
}

func TestModeSelection(t *testing.T) {
	m, _, _ := newTestModel(t)

	if m.view != ModeView {
		t.Fatalf("expected ModeView, got %v", m.view)
	}

	m.Update(press("enter"))
	if m.view != SongFormView || m.controller.State().Mode != models.ModeSong {
		t.Errorf("expected song form, got view %v mode %v", m.view, m.controller.State().Mode)
	}

	m.Update(press("esc"))
	m.Update(press("down"))
	m.Update(press("enter"))
	if m.view != ValuesFormView {
		t.Errorf("expected values form, got %v", m.view)
	}
}

func TestSongFormValidation(t *testing.T) {
	m, backend, _ := newTestModel(t)
	m.Update(press("enter"))

	m.Update(press("ab"))
	_, cmd := m.Update(press("enter"))

	if cmd != nil || m.formErr == nil {
		t.Fatal("expected a form error and no command for a short name")
	}
	if m.view != SongFormView {
		t.Errorf("expected to stay on the form, got %v", m.view)
	}
	if len(backend.Calls()) != 0 {
		t.Errorf("expected no backend calls, got %v", backend.Calls())
	}
	if !strings.Contains(m.View(), "at least 3 characters") {
		t.Errorf("expected validation message in view:\n%s", m.View())
	}

	m.Update(press("ctrl+r"))
	if m.songInput.Value() != "" || m.formErr != nil {
		t.Error("reset should clear the input and error")
	}
}

func TestValuesFormMasking(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Update(press("down"))
	m.Update(press("enter"))

	m.Update(press("-0a.5.1"))
	if got := m.valueInputs[0].Value(); got != "0.51" {
		t.Errorf("danceability masked to %q, want 0.51", got)
	}

	m.Update(press("tab"))
	m.Update(press("tab"))
	m.Update(press("-6.x2"))
	if got := m.valueInputs[2].Value(); got != "-6.2" {
		t.Errorf("loudness masked to %q, want -6.2", got)
	}

	for m.focus < len(m.valueInputs)-1 {
		m.Update(press("enter"))
	}
	_, cmd := m.Update(press("enter"))
	if cmd != nil || m.formErr == nil {
		t.Error("expected missing fields to block submission")
	}
}

func TestGenreQueryAndDownload(t *testing.T) {
	m, backend, dir := newTestModel(t)
	m.Update(press("down"))
	m.Update(press("down"))
	m.Update(press("enter"))
	if m.view != GenreView {
		t.Fatalf("expected GenreView, got %v", m.view)
	}

	_, cmd := m.Update(press("enter"))
	if m.view != ResultsView {
		t.Fatalf("expected ResultsView after submit, got %v", m.view)
	}
	drain(m, cmd)

	if n := len(backend.CallsTo(services.GenrePath)); n != 1 {
		t.Errorf("expected one genre call, got %d", n)
	}
	if n := len(backend.CallsTo(services.SearchPath)); n != 0 {
		t.Errorf("expected no search calls, got %d", n)
	}
	if !strings.Contains(m.View(), "Blue in Green") {
		t.Errorf("expected result row in view:\n%s", m.View())
	}

	_, cmd = m.Update(press("d"))
	drain(m, cmd)

	tu.AssertFileExists(t, filepath.Join(dir, "Blue in Green.mp3"))
	if m.downloader.Loading("PoPL7BExSQU") {
		t.Error("row should not be loading after the download finished")
	}
	if !strings.Contains(m.rowStatus["PoPL7BExSQU"], "saved") {
		t.Errorf("expected saved status, got %q", m.rowStatus["PoPL7BExSQU"])
	}
}

func TestResultsViewStates(t *testing.T) {
	m, backend, _ := newTestModel(t)
	backend.RespondJSON(services.GenrePath, http.StatusInternalServerError, map[string]string{"detail": "boom"})

	m.view = ResultsView
	if !strings.Contains(m.View(), "Submit a query") {
		t.Errorf("expected idle message before any submission:\n%s", m.View())
	}

	m.view = GenreView
	_, cmd := m.Update(press("enter"))
	drain(m, cmd)

	if !strings.Contains(m.View(), "request failed") {
		t.Errorf("expected failure message:\n%s", m.View())
	}

	backend.RespondJSON(services.GenrePath, http.StatusOK, []models.TrackResult{})
	m.view = GenreView
	_, cmd = m.Update(press("enter"))
	drain(m, cmd)

	if !strings.Contains(m.View(), "no results") {
		t.Errorf("expected no results message:\n%s", m.View())
	}
}

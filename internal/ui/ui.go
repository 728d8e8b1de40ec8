package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mrd/internal/models"
	"github.com/desertthunder/mrd/internal/shared"
	"github.com/desertthunder/mrd/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ModeView ViewState = iota
	SongFormView
	ValuesFormView
	GenreView
	ResultsView
)

// Opts holds the dependencies of a [Model].
type Opts struct {
	Controller *tasks.Controller
	Downloader *tasks.Downloader
	Progress   <-chan tasks.ProgressUpdate // Optional, usually the controller's progress channel
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	controller  *tasks.Controller
	downloader  *tasks.Downloader
	progress    <-chan tasks.ProgressUpdate
	width       int
	height      int
	modeList    list.Model
	genreList   list.Model
	results     list.Model
	songInput   textinput.Model
	valueInputs []textinput.Model
	focus       int
	spinner     spinner.Model
	spinning    bool
	pending     int
	status      string
	formErr     error
	rowStatus   map[string]string
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Opts) *Model {
	m := &Model{
		ctx:        ctx,
		view:       ModeView,
		controller: opts.Controller,
		downloader: opts.Downloader,
		progress:   opts.Progress,
		rowStatus:  make(map[string]string),
		help:       help.New(),
		keys:       newKeyMap(),
	}

	m.modeList = list.New(modeItems(), list.NewDefaultDelegate(), 0, 0)
	m.modeList.Title = "Choose Recommendation Type"
	m.modeList.SetShowStatusBar(false)
	m.modeList.SetFilteringEnabled(false)
	m.modeList.SetShowHelp(false)

	genreDelegate := list.NewDefaultDelegate()
	genreDelegate.ShowDescription = false
	genreDelegate.SetSpacing(0)
	m.genreList = list.New(genreItems(), genreDelegate, 0, 0)
	m.genreList.Title = "Select Genre"
	m.genreList.SetShowHelp(false)

	m.results = list.New(nil, trackDelegate{status: m.trackStatus}, 0, 0)
	m.results.Title = "Recommended Songs"
	m.results.SetShowStatusBar(false)
	m.results.SetFilteringEnabled(false)
	m.results.SetShowHelp(false)

	m.songInput = textinput.New()
	m.songInput.Placeholder = "Enter song name"
	m.songInput.CharLimit = 200
	m.songInput.Width = 40

	m.valueInputs = make([]textinput.Model, len(models.FeatureFields))
	for i, f := range models.FeatureFields {
		ti := textinput.New()
		ti.Placeholder = f.Placeholder()
		ti.CharLimit = 8
		ti.Width = 24
		ti.Prompt = ""
		m.valueInputs[i] = ti
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.spinner
	m.spinner = s

	return m
}

// Run starts the TUI on the alternate screen and blocks until it exits.
func Run(ctx context.Context, opts Opts) error {
	p := tea.NewProgram(NewModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// Init starts listening for controller progress.
func (m *Model) Init() tea.Cmd {
	return m.waitForProgress()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.modeList.SetSize(msg.Width-4, msg.Height-6)
		m.genreList.SetSize(msg.Width-4, msg.Height-6)
		m.results.SetSize(msg.Width-4, msg.Height-8)
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.pending == 0 {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}

		switch m.view {
		case ModeView:
			return m.handleModeKeys(msg)
		case SongFormView:
			return m.handleSongKeys(msg)
		case ValuesFormView:
			return m.handleValuesKeys(msg)
		case GenreView:
			return m.handleGenreKeys(msg)
		case ResultsView:
			return m.handleResultKeys(msg)
		}
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		if update.Phase != tasks.Done {
			m.status = update.Message
		}
		return m, m.waitForProgress()

	case MsgQueryDone:
		m.pending--
		done := msg.data.(queryDone)
		if errors.Is(done.err, shared.ErrQuerySuperseded) {
			return m, nil
		}
		m.status = ""
		state := m.controller.State()
		return m, m.results.SetItems(trackItems(state.Results))

	case MsgDownloadDone:
		m.pending--
		done := msg.data.(downloadDone)
		switch {
		case errors.Is(done.err, shared.ErrDownloadInProgress):
		case done.err != nil:
			m.rowStatus[done.track.VideoID] = styles.err.Render("✗ failed")
			m.status = fmt.Sprintf("download failed: %v", done.err)
		default:
			m.rowStatus[done.track.VideoID] = styles.ok.Render("✓ saved")
			m.status = fmt.Sprintf("Saved %s", done.rec.Path)
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleModeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		if m.controller.State().Submitted {
			m.view = ResultsView
		}
		return m, nil
	case "enter":
		if item, ok := m.modeList.SelectedItem().(modeItem); ok {
			return m, m.selectMode(item.mode)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.modeList, cmd = m.modeList.Update(msg)
	return m, cmd
}

// selectMode switches the visible form. Previous results stay in the controller.
func (m *Model) selectMode(mode models.QueryMode) tea.Cmd {
	m.controller.SelectMode(mode)
	m.formErr = nil

	switch mode {
	case models.ModeSong:
		m.view = SongFormView
		return m.songInput.Focus()
	case models.ModeValues:
		m.view = ValuesFormView
		return m.focusValue(0)
	case models.ModeGenre:
		m.view = GenreView
	default:
		m.view = ModeView
	}
	return nil
}

func (m *Model) handleSongKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.songInput.Blur()
		m.view = ModeView
		return m, nil
	case key.Matches(msg, m.keys.reset):
		m.songInput.Reset()
		m.formErr = nil
		return m, nil
	case key.Matches(msg, m.keys.submit):
		name := m.songInput.Value()
		if err := models.SongQuery(name).Validate(); err != nil {
			m.formErr = err
			return m, nil
		}
		return m, m.submit(func(ctx context.Context) ([]models.TrackResult, error) {
			return m.controller.SubmitSong(ctx, name)
		})
	}

	var cmd tea.Cmd
	m.songInput, cmd = m.songInput.Update(msg)
	return m, cmd
}

func (m *Model) handleValuesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	last := len(m.valueInputs) - 1

	switch {
	case key.Matches(msg, m.keys.back):
		m.valueInputs[m.focus].Blur()
		m.view = ModeView
		return m, nil
	case key.Matches(msg, m.keys.reset):
		for i := range m.valueInputs {
			m.valueInputs[i].Reset()
		}
		m.formErr = nil
		return m, m.focusValue(0)
	case msg.String() == "enter" && m.focus < last:
		return m, m.focusValue(m.focus + 1)
	case key.Matches(msg, m.keys.submit):
		values, err := models.ParseValueQuery(m.rawValues())
		if err != nil {
			m.formErr = err
			return m, nil
		}
		return m, m.submit(func(ctx context.Context) ([]models.TrackResult, error) {
			return m.controller.SubmitValues(ctx, values)
		})
	case key.Matches(msg, m.keys.next):
		return m, m.focusValue((m.focus + 1) % len(m.valueInputs))
	case key.Matches(msg, m.keys.prev):
		return m, m.focusValue((m.focus + last) % len(m.valueInputs))
	}

	field := models.FeatureFields[m.focus]
	var cmd tea.Cmd
	m.valueInputs[m.focus], cmd = m.valueInputs[m.focus].Update(msg)

	in := &m.valueInputs[m.focus]
	if masked := models.MaskNumeric(in.Value(), field.AllowNegative); masked != in.Value() {
		in.SetValue(masked)
	}
	return m, cmd
}

func (m *Model) focusValue(i int) tea.Cmd {
	for j := range m.valueInputs {
		m.valueInputs[j].Blur()
	}
	m.focus = i
	return m.valueInputs[i].Focus()
}

func (m *Model) rawValues() map[string]string {
	raw := make(map[string]string, len(m.valueInputs))
	for i, f := range models.FeatureFields {
		raw[f.Name] = m.valueInputs[i].Value()
	}
	return raw
}

func (m *Model) handleGenreKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.genreList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.back):
			if m.genreList.FilterState() == list.FilterApplied {
				m.genreList.ResetFilter()
				return m, nil
			}
			m.view = ModeView
			return m, nil
		case msg.String() == "enter":
			item, ok := m.genreList.SelectedItem().(genreItem)
			if !ok {
				return m, nil
			}
			genre := string(item)
			return m, m.submit(func(ctx context.Context) ([]models.TrackResult, error) {
				return m.controller.SubmitGenre(ctx, genre)
			})
		}
	}

	var cmd tea.Cmd
	m.genreList, cmd = m.genreList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "q":
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		return m, m.selectMode(m.controller.State().Mode)
	case key.Matches(msg, m.keys.download):
		item, ok := m.results.SelectedItem().(trackItem)
		if !ok || m.controller.State().Loading {
			return m, nil
		}
		return m, m.download(item.track)
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

// submit switches to the results view and runs fn in the background.
func (m *Model) submit(fn func(ctx context.Context) ([]models.TrackResult, error)) tea.Cmd {
	m.formErr = nil
	m.status = ""
	m.view = ResultsView
	m.pending++

	ctx := m.ctx
	run := func() tea.Msg {
		tracks, err := fn(ctx)
		return queryDoneMsg(tracks, err)
	}
	return tea.Batch(run, m.startSpinner())
}

func (m *Model) download(track models.TrackResult) tea.Cmd {
	if m.downloader == nil {
		m.status = "downloads are not configured"
		return nil
	}
	if m.downloader.Loading(track.VideoID) {
		return nil
	}

	delete(m.rowStatus, track.VideoID)
	m.pending++

	ctx, d := m.ctx, m.downloader
	run := func() tea.Msg {
		rec, err := d.Download(ctx, track)
		return downloadDoneMsg(track, rec, err)
	}
	return tea.Batch(run, m.startSpinner())
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m *Model) waitForProgress() tea.Cmd {
	if m.progress == nil {
		return nil
	}
	ch := m.progress
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

// trackStatus is the per-row suffix shown by [trackDelegate].
func (m *Model) trackStatus(videoID string) string {
	if m.downloader != nil && m.downloader.Loading(videoID) {
		return m.spinner.View() + " downloading"
	}
	return m.rowStatus[videoID]
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Music Recommendation"))
	b.WriteString("\n")

	switch m.view {
	case ModeView:
		b.WriteString(m.renderModes())
	case SongFormView:
		b.WriteString(m.renderSongForm())
	case ValuesFormView:
		b.WriteString(m.renderValuesForm())
	case GenreView:
		b.WriteString(m.renderGenres())
	case ResultsView:
		b.WriteString(m.renderResults())
	}
	return b.String()
}

func (m *Model) renderModes() string {
	keys := []key.Binding{m.keys.enter, m.keys.quit}
	if m.controller.State().Submitted {
		keys = append(keys, key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "results")))
	}
	return fmt.Sprintf("%s\n\n%s", m.modeList.View(), m.help.ShortHelpView(keys))
}

func (m *Model) renderSongForm() string {
	var b strings.Builder
	b.WriteString(styles.focused.Render("Song name") + " " + m.songInput.View() + "\n")
	b.WriteString(m.renderFormError())
	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.submit, m.keys.reset, m.keys.back, m.keys.quit}))
	return b.String()
}

func (m *Model) renderValuesForm() string {
	var b strings.Builder
	for i, f := range models.FeatureFields {
		label := styles.label.Render(f.Label)
		if i == m.focus {
			label = styles.focused.Render(f.Label)
		}
		b.WriteString(label + " " + m.valueInputs[i].View() + "\n")
	}
	b.WriteString(m.renderFormError())
	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.submit, m.keys.reset, m.keys.back, m.keys.quit}))
	return b.String()
}

func (m *Model) renderFormError() string {
	if m.formErr == nil {
		return ""
	}
	return "\n" + styles.err.Render(m.formErr.Error()) + "\n"
}

func (m *Model) renderGenres() string {
	return fmt.Sprintf("%s\n\n%s", m.genreList.View(),
		m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back, m.keys.quit}))
}

func (m *Model) renderResults() string {
	state := m.controller.State()
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.download, m.keys.back, m.keys.quit})

	var body string
	switch {
	case !state.Submitted:
		body = styles.help.Render("Submit a query to see recommendations.")
	case state.Loading:
		msg := m.status
		if msg == "" {
			msg = "Loading..."
		}
		body = m.spinner.View() + " " + msg
	case state.Err != nil:
		body = styles.err.Render(fmt.Sprintf("request failed: %v", state.Err))
	case len(state.Results) == 0:
		body = styles.warn.Render("no results")
	default:
		body = m.results.View()
		if m.status != "" {
			body += "\n" + styles.help.Render(m.status)
		}
	}

	return fmt.Sprintf("%s\n\n%s", body, helpView)
}

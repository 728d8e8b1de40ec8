package web

import (
	"strconv"

	"github.com/desertthunder/mrd/internal/models"
	"github.com/desertthunder/mrd/internal/tasks"
)

type modeOption struct {
	Value    string
	Label    string
	Selected bool
}

type fieldInput struct {
	Name          string
	Label         string
	Placeholder   string
	Value         string
	Min           string
	Max           string
	AllowNegative bool
}

type row struct {
	Track   models.TrackResult
	URL     string
	Badges  []string
	Loading bool
}

// page is the data behind index.html.
type page struct {
	Mode      string
	Modes     []modeOption
	Fields    []fieldInput
	Genres    []string
	Song      string
	Genre     string
	FormError string
	Notice    string

	Submitted bool
	Loading   bool
	Error     string
	Empty     bool
	Rows      []row
}

func (h *Handler) newPage() *page {
	state := h.controller.State()

	p := &page{
		Mode:   state.Mode.String(),
		Genres: models.Genres,
	}
	for _, m := range models.Modes {
		p.Modes = append(p.Modes, modeOption{Value: m.String(), Label: m.Label(), Selected: m == state.Mode})
	}
	for _, f := range models.FeatureFields {
		p.Fields = append(p.Fields, fieldInput{
			Name:          f.Name,
			Label:         f.Label,
			Placeholder:   f.Placeholder(),
			Min:           strconv.FormatFloat(f.Min, 'f', -1, 64),
			Max:           strconv.FormatFloat(f.Max, 'f', -1, 64),
			AllowNegative: f.AllowNegative,
		})
	}

	p.setState(state)
	p.markLoading(h.downloader)
	return p
}

func (p *page) setValues(raw map[string]string) {
	for i := range p.Fields {
		p.Fields[i].Value = raw[p.Fields[i].Name]
	}
}

// setState copies the result area from a controller snapshot.
func (p *page) setState(state tasks.State) {
	p.Mode = state.Mode.String()
	for i := range p.Modes {
		p.Modes[i].Selected = p.Modes[i].Value == p.Mode
	}

	p.Submitted = state.Submitted
	p.Loading = state.Loading
	p.Error = ""
	if state.Err != nil {
		p.Error = state.Err.Error()
	}

	p.Rows = p.Rows[:0]
	for _, tr := range state.Results {
		p.Rows = append(p.Rows, row{Track: tr, URL: tr.URL(), Badges: tr.Badges()})
	}
	p.Empty = state.Submitted && !state.Loading && p.Error == "" && len(p.Rows) == 0
}

func (p *page) markLoading(d *tasks.Downloader) {
	if d == nil {
		return
	}
	for i := range p.Rows {
		p.Rows[i].Loading = d.Loading(p.Rows[i].Track.VideoID)
	}
}

package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mrd/internal/models"
	"github.com/desertthunder/mrd/internal/shared"
	"github.com/desertthunder/mrd/internal/tasks"
)

//go:embed templates/*.html
var templateFS embed.FS

// HandlerOpts configures a [Handler].
type HandlerOpts struct {
	Controller *tasks.Controller
	Downloader *tasks.Downloader
	Logger     *log.Logger // Optional, defaults to stderr
	BaseURL    string      // Reported by /healthz
}

// Handler serves the query page, the query and download actions, and a health check.
//
// One Handler shares a single [tasks.Controller], so every browser tab sees the same
// mode and result list, like the terminal front ends.
type Handler struct {
	controller *tasks.Controller
	downloader *tasks.Downloader
	logger     *log.Logger
	baseURL    string
	tmpl       *template.Template
	mux        *http.ServeMux
}

// NewHandler parses the embedded templates and builds the route table.
func NewHandler(opts HandlerOpts) (*Handler, error) {
	if opts.Controller == nil {
		return nil, fmt.Errorf("%w: controller is required", shared.ErrServiceUnavailable)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	h := &Handler{
		controller: opts.Controller,
		downloader: opts.Downloader,
		logger:     opts.Logger,
		baseURL:    opts.BaseURL,
		tmpl:       tmpl,
		mux:        http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /{$}", h.index)
	h.mux.HandleFunc("POST /query", h.query)
	h.mux.HandleFunc("POST /download", h.download)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	return h, nil
}

// Routes implements [server.Handler].
func (h *Handler) Routes() []string {
	return []string{"GET /{$}", "POST /query", "POST /download", "GET /healthz"}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// index renders the page. A mode query parameter switches the visible form.
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("mode"); raw != "" {
		mode, err := models.ParseQueryMode(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.controller.SelectMode(mode)
	}
	h.render(w, http.StatusOK, h.newPage())
}

// query runs the chain for the submitted form and renders the page with its outcome.
func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	mode, err := models.ParseQueryMode(r.PostForm.Get("mode"))
	if err != nil || mode == models.ModeNone {
		http.Error(w, "unknown query mode", http.StatusBadRequest)
		return
	}
	h.controller.SelectMode(mode)

	p := h.newPage()
	switch mode {
	case models.ModeSong:
		p.Song = r.PostForm.Get("song_name")
		_, err = h.controller.SubmitSong(r.Context(), p.Song)
	case models.ModeValues:
		raw := make(map[string]string, len(models.FeatureFields))
		for _, f := range models.FeatureFields {
			raw[f.Name] = models.MaskNumeric(r.PostForm.Get(f.Name), f.AllowNegative)
		}
		p.setValues(raw)

		var values models.ValueQuery
		if values, err = models.ParseValueQuery(raw); err == nil {
			_, err = h.controller.SubmitValues(r.Context(), values)
		}
	case models.ModeGenre:
		p.Genre = r.PostForm.Get("genre")
		_, err = h.controller.SubmitGenre(r.Context(), p.Genre)
	}

	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrInvalidInput):
		p.FormError = err.Error()
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrQuerySuperseded):
		p.Notice = "This query was replaced by a newer one."
	case errors.Is(err, shared.ErrServiceUnavailable):
		p.FormError = err.Error()
		status = http.StatusServiceUnavailable
	}

	p.setState(h.controller.State())
	p.markLoading(h.downloader)
	h.render(w, status, p)
}

// download streams the track's MP3 to the browser as an attachment.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	if h.downloader == nil {
		http.Error(w, "downloads are not available", http.StatusServiceUnavailable)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	track := models.TrackResult{
		VideoID: strings.TrimSpace(r.PostForm.Get("videoId")),
		Title:   r.PostForm.Get("title"),
	}

	saver := &responseSaver{w: w}
	_, err := h.downloader.DownloadTo(r.Context(), track, saver)
	if err == nil || saver.started {
		return
	}

	status := http.StatusBadGateway
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrDownloadInProgress):
		status = http.StatusConflict
	case errors.Is(err, shared.ErrServiceUnavailable):
		status = http.StatusServiceUnavailable
	}
	http.Error(w, "download failed: "+err.Error(), status)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	active := 0
	if h.downloader != nil {
		active = len(h.downloader.Active())
	}

	body, err := shared.MarshalJSON(map[string]any{
		"status":           "ok",
		"backend":          h.baseURL,
		"loading":          h.controller.State().Loading,
		"active_downloads": active,
	}, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func (h *Handler) render(w http.ResponseWriter, status int, p *page) {
	var buf strings.Builder
	if err := h.tmpl.ExecuteTemplate(&buf, "index.html", p); err != nil {
		h.logger.Error("failed to render page", "err", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, buf.String())
}

// responseSaver is a [tasks.Saver] that writes the audio straight into the HTTP response.
type responseSaver struct {
	w       http.ResponseWriter
	started bool
}

func (s *responseSaver) Save(name string, r io.Reader) (string, int64, error) {
	s.started = true
	s.w.Header().Set("Content-Type", "audio/mpeg")
	s.w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	s.w.WriteHeader(http.StatusOK)

	n, err := io.Copy(s.w, r)
	if err != nil {
		return "", n, fmt.Errorf("failed to stream audio: %w", err)
	}
	return name, n, nil
}

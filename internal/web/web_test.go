package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mrd/internal/models"
	"github.com/desertthunder/mrd/internal/services"
	"github.com/desertthunder/mrd/internal/tasks"
	tu "github.com/desertthunder/mrd/internal/testing"
)

var testTracks = []models.TrackResult{
	{Title: "Yesterday - Remastered", Duration: "2:05", ViewCount: "1M views", VideoID: "wXTJBr9tt8Q"},
	{Title: "Let It Be", Duration: "4:03", VideoID: "QDYfEBY9NM4", ChannelName: "The Beatles"},
}

func newTestHandler(t *testing.T) (*Handler, *tu.FakeBackend) {
	t.Helper()
	fb := tu.NewFakeBackend(t)
	client := services.NewRecommenderService(services.NewAPIService(fb.URL, nil))
	logger := log.New(io.Discard)

	h, err := NewHandler(HandlerOpts{
		Controller: tasks.NewController(tasks.ControllerOpts{Client: client, Logger: logger}),
		Downloader: tasks.NewDownloader(tasks.DownloaderOpts{Client: client, Logger: logger}),
		Logger:     logger,
		BaseURL:    fb.URL,
	})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return h, fb
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func post(h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func valuesForm() url.Values {
	return url.Values{
		"mode":             {"values"},
		"danceability":     {"0.5"},
		"energy":           {"0.7"},
		"loudness":         {"-6.2"},
		"speechiness":      {"0.05"},
		"acousticness":     {"0.1"},
		"instrumentalness": {"0"},
		"liveness":         {"0.12"},
		"valence":          {"0.6"},
	}
}

func TestNewHandler(t *testing.T) {
	if _, err := NewHandler(HandlerOpts{}); err == nil {
		t.Error("expected error without a controller")
	}

	h, _ := newTestHandler(t)
	if got := len(h.Routes()); got != 4 {
		t.Errorf("expected 4 routes, got %d", got)
	}
}

func TestIndex(t *testing.T) {
	h, _ := newTestHandler(t)

	t.Run("no form before a mode is chosen", func(t *testing.T) {
		rec := get(h, "/")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "--Select--") || strings.Contains(body, `action="/query"`) {
			t.Error("expected mode select without a query form")
		}
		if strings.Contains(body, `id="results"`) {
			t.Error("result area should be hidden before any submission")
		}
	})

	t.Run("mode parameter switches forms", func(t *testing.T) {
		for mode, marker := range map[string]string{
			"song":   `name="song_name"`,
			"values": `name="loudness"`,
			"genre":  `<option value="world-music">`,
		} {
			body := get(h, "/?mode="+mode).Body.String()
			if !strings.Contains(body, marker) {
				t.Errorf("mode %s: expected %s in page", mode, marker)
			}
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		if rec := get(h, "/?mode=lyrics"); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestQuerySong(t *testing.T) {
	t.Run("short name never reaches the backend", func(t *testing.T) {
		h, fb := newTestHandler(t)

		rec := post(h, "/query", url.Values{"mode": {"song"}, "song_name": {"ab"}})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "at least 3 characters") {
			t.Error("expected validation message in page")
		}
		if calls := fb.Calls(); len(calls) != 0 {
			t.Errorf("expected no backend calls, got %d", len(calls))
		}
	})

	t.Run("recommend then search", func(t *testing.T) {
		h, fb := newTestHandler(t)
		payload := map[string]any{"songs": []string{"Yesterday", "Let It Be"}}
		fb.RespondJSON(services.RecommendPath, http.StatusOK, payload)
		fb.RespondJSON(services.SearchPath, http.StatusOK, testTracks)

		rec := post(h, "/query", url.Values{"mode": {"song"}, "song_name": {"Yesterday"}})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		calls := fb.Calls()
		if len(calls) != 2 || calls[0].Path != services.RecommendPath || calls[1].Path != services.SearchPath {
			t.Fatalf("unexpected call sequence %+v", calls)
		}
		want, _ := json.Marshal(payload)
		if string(calls[1].Body) != string(want) {
			t.Errorf("search body = %s, want %s", calls[1].Body, want)
		}

		body := rec.Body.String()
		for _, s := range []string{"Yesterday - Remastered", "Let It Be", "The Beatles", `value="wXTJBr9tt8Q"`, `value="Yesterday"`} {
			if !strings.Contains(body, s) {
				t.Errorf("expected %q in page", s)
			}
		}
	})

	t.Run("backend failure", func(t *testing.T) {
		h, fb := newTestHandler(t)
		fb.RespondJSON(services.RecommendPath, http.StatusNotFound, map[string]string{"detail": "Song not found"})

		body := post(h, "/query", url.Values{"mode": {"song"}, "song_name": {"Nonexistent"}}).Body.String()
		if !strings.Contains(body, "request failed:") || !strings.Contains(body, "Song not found") {
			t.Errorf("expected request failure in page, got %s", body)
		}
		if len(fb.CallsTo(services.SearchPath)) != 0 {
			t.Error("search must not run after a failed recommend")
		}
	})

	t.Run("empty results", func(t *testing.T) {
		h, fb := newTestHandler(t)
		fb.RespondJSON(services.RecommendPath, http.StatusOK, []string{})
		fb.RespondJSON(services.SearchPath, http.StatusOK, []models.TrackResult{})

		body := post(h, "/query", url.Values{"mode": {"song"}, "song_name": {"Yesterday"}}).Body.String()
		if !strings.Contains(body, "no results") {
			t.Error("expected no results message")
		}
	})
}

func TestQueryValues(t *testing.T) {
	t.Run("masks input before validating", func(t *testing.T) {
		h, fb := newTestHandler(t)
		fb.RespondJSON(services.RecommendByValuesPath, http.StatusOK, []string{"Yesterday"})
		fb.RespondJSON(services.SearchPath, http.StatusOK, testTracks)

		form := valuesForm()
		form.Set("danceability", "0a.5")
		form.Set("energy", "-0.7")

		rec := post(h, "/query", form)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		calls := fb.CallsTo(services.RecommendByValuesPath)
		if len(calls) != 1 {
			t.Fatalf("expected one recommend_by_values call, got %d", len(calls))
		}
		var sent models.ValueQuery
		if err := json.Unmarshal(calls[0].Body, &sent); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if sent.Danceability != 0.5 || sent.Energy != 0.7 || sent.Loudness != -6.2 {
			t.Errorf("unexpected values %+v", sent)
		}
		if !strings.Contains(rec.Body.String(), `value="0.5"`) {
			t.Error("expected masked value echoed in form")
		}
	})

	t.Run("out of range never reaches the backend", func(t *testing.T) {
		h, fb := newTestHandler(t)

		form := valuesForm()
		form.Set("loudness", "-60")

		rec := post(h, "/query", form)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if len(fb.Calls()) != 0 {
			t.Error("expected no backend calls")
		}
	})
}

func TestQueryGenre(t *testing.T) {
	h, fb := newTestHandler(t)
	fb.RespondJSON(services.GenrePath, http.StatusOK, testTracks[:1])

	rec := post(h, "/query", url.Values{"mode": {"genre"}, "genre": {"rock"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if n := len(fb.CallsTo(services.GenrePath)); n != 1 {
		t.Errorf("expected one genre call, got %d", n)
	}
	if n := len(fb.CallsTo(services.SearchPath)); n != 0 {
		t.Errorf("expected no search calls, got %d", n)
	}
	if !strings.Contains(rec.Body.String(), `<option value="rock" selected>`) {
		t.Error("expected chosen genre to stay selected")
	}

	t.Run("unknown genre", func(t *testing.T) {
		if rec := post(h, "/query", url.Values{"mode": {"genre"}, "genre": {"yodel"}}); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing mode", func(t *testing.T) {
		if rec := post(h, "/query", url.Values{}); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestDownload(t *testing.T) {
	t.Run("streams an attachment", func(t *testing.T) {
		h, fb := newTestHandler(t)
		fb.Respond(services.DownloadPath, tu.Reply{Body: []byte("ID3-audio"), ContentType: "audio/mpeg"})

		rec := post(h, "/download", url.Values{"videoId": {"wXTJBr9tt8Q"}, "title": {"Yesterday"}})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename=Yesterday.mp3` {
			t.Errorf("Content-Disposition = %q", got)
		}
		if rec.Body.String() != "ID3-audio" {
			t.Errorf("body = %q", rec.Body.String())
		}

		var sent map[string]string
		json.Unmarshal(fb.CallsTo(services.DownloadPath)[0].Body, &sent)
		if sent["videoId"] != "wXTJBr9tt8Q" || sent["songTitle"] != "Yesterday" {
			t.Errorf("unexpected download request %v", sent)
		}
	})

	t.Run("backend error", func(t *testing.T) {
		h, fb := newTestHandler(t)
		fb.RespondJSON(services.DownloadPath, http.StatusInternalServerError, map[string]string{"detail": "yt-dlp failed"})

		rec := post(h, "/download", url.Values{"videoId": {"abc"}, "title": {"Broken"}})
		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "download failed") {
			t.Errorf("body = %q", rec.Body.String())
		}
		if rec.Header().Get("Content-Disposition") != "" {
			t.Error("failed download must not send an attachment")
		}
	})

	t.Run("missing video id", func(t *testing.T) {
		h, fb := newTestHandler(t)
		if rec := post(h, "/download", url.Values{"title": {"Nothing"}}); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if len(fb.Calls()) != 0 {
			t.Error("expected no backend calls")
		}
	})
}

func TestHealthz(t *testing.T) {
	h, fb := newTestHandler(t)

	rec := get(h, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" || body["backend"] != fb.URL {
		t.Errorf("unexpected body %v", body)
	}
	if body["active_downloads"] != float64(0) {
		t.Errorf("active_downloads = %v", body["active_downloads"])
	}
}

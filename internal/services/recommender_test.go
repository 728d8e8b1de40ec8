package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/desertthunder/mrd/internal/models"
	"github.com/desertthunder/mrd/internal/shared"
	tu "github.com/desertthunder/mrd/internal/testing"
)

var sampleTracks = []models.TrackResult{
	{Title: "Let It Be", Thumbnail: "https://i.ytimg.com/a.jpg", Duration: "04:03", ViewCount: "12M", PublishedTime: "5 years ago", VideoID: "QDYfEBY9NM4"},
	{Title: "Hey Jude", Thumbnail: "https://i.ytimg.com/b.jpg", Duration: "07:11", ViewCount: "9M", PublishedTime: "6 years ago", VideoID: "A_MjCqQoLLA", ChannelName: "The Beatles"},
}

func newRecommender(t *testing.T) (*RecommenderService, *tu.FakeBackend) {
	t.Helper()
	backend := tu.NewFakeBackend(t)
	return NewRecommenderService(NewAPIService(backend.URL, nil)), backend
}

func TestRecommenderService(t *testing.T) {
	ctx := context.Background()

	t.Run("Recommend", func(t *testing.T) {
		t.Run("returns payload verbatim", func(t *testing.T) {
			svc, backend := newRecommender(t)
			payload := []byte(`["Yesterday",  "Let It Be by The Beatles"]`)
			backend.Respond(RecommendPath, tu.Reply{Body: payload, ContentType: "application/json"})

			got, err := svc.Recommend(ctx, "Yesterday")
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if string(got) != string(payload) {
				t.Errorf("payload altered: %s", got)
			}

			calls := backend.CallsTo(RecommendPath)
			if len(calls) != 1 || string(calls[0].Body) != `{"song_name":"Yesterday"}` {
				t.Errorf("unexpected request: %+v", calls)
			}
		})

		t.Run("backend status", func(t *testing.T) {
			svc, backend := newRecommender(t)
			backend.RespondJSON(RecommendPath, http.StatusBadRequest, map[string]string{"detail": "Missing song name in request."})

			_, err := svc.Recommend(ctx, "Yesterday")
			var be *shared.BackendError
			if !errors.As(err, &be) {
				t.Fatalf("expected BackendError, got %v", err)
			}
			if be.StatusCode != http.StatusBadRequest || be.Detail != "Missing song name in request." {
				t.Errorf("unexpected backend error %+v", be)
			}
		})

		t.Run("non JSON body", func(t *testing.T) {
			svc, backend := newRecommender(t)
			backend.Respond(RecommendPath, tu.Reply{Body: []byte("<html>oops</html>")})

			_, err := svc.Recommend(ctx, "Yesterday")
			if !errors.Is(err, shared.ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})

		t.Run("network failure", func(t *testing.T) {
			svc := NewRecommenderService(NewAPIService("http://127.0.0.1:1", nil))
			_, err := svc.Recommend(ctx, "Yesterday")
			if !errors.Is(err, shared.ErrNetwork) {
				t.Errorf("expected ErrNetwork, got %v", err)
			}
		})
	})

	t.Run("RecommendByValues sends all eight fields", func(t *testing.T) {
		svc, backend := newRecommender(t)
		backend.Respond(RecommendByValuesPath, tu.Reply{Body: []byte(`["a","b"]`)})

		values := models.ValueQuery{Danceability: 0.5, Energy: 0.7, Loudness: -6, Speechiness: 0.04, Acousticness: 0.2, Instrumentalness: 0, Liveness: 0.1, Valence: 0.9}
		if _, err := svc.RecommendByValues(ctx, values); err != nil {
			t.Fatalf("RecommendByValues() error = %v", err)
		}

		var sent map[string]float64
		if err := json.Unmarshal(backend.CallsTo(RecommendByValuesPath)[0].Body, &sent); err != nil {
			t.Fatalf("request body is not JSON: %v", err)
		}
		if len(sent) != 8 || sent["loudness"] != -6 || sent["valence"] != 0.9 {
			t.Errorf("unexpected request body %v", sent)
		}
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("decodes tracks", func(t *testing.T) {
			svc, backend := newRecommender(t)
			backend.RespondJSON(SearchPath, http.StatusOK, sampleTracks)

			tracks, err := svc.Search(ctx, json.RawMessage(`["Let It Be"]`))
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(tracks) != 2 || tracks[1].ChannelName != "The Beatles" || tracks[0].VideoID != "QDYfEBY9NM4" {
				t.Errorf("unexpected tracks %+v", tracks)
			}
			if string(backend.CallsTo(SearchPath)[0].Body) != `["Let It Be"]` {
				t.Error("search body should be the payload verbatim")
			}
		})

		t.Run("null becomes empty", func(t *testing.T) {
			svc, backend := newRecommender(t)
			backend.Respond(SearchPath, tu.Reply{Body: []byte("null")})

			tracks, err := svc.Search(ctx, json.RawMessage(`[]`))
			if err != nil || tracks == nil || len(tracks) != 0 {
				t.Errorf("expected empty non-nil slice, got %v, %v", tracks, err)
			}
		})

		t.Run("object instead of array", func(t *testing.T) {
			svc, backend := newRecommender(t)
			backend.Respond(SearchPath, tu.Reply{Body: []byte(`{"title":"x"}`)})

			_, err := svc.Search(ctx, json.RawMessage(`[]`))
			if !errors.Is(err, shared.ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})

		t.Run("validation detail array", func(t *testing.T) {
			svc, backend := newRecommender(t)
			backend.Respond(SearchPath, tu.Reply{Status: http.StatusUnprocessableEntity, Body: []byte(`{"detail":[{"msg":"field required"}]}`)})

			_, err := svc.Search(ctx, json.RawMessage(`{}`))
			var be *shared.BackendError
			if !errors.As(err, &be) || be.Detail != `[{"msg":"field required"}]` {
				t.Errorf("expected raw detail, got %v", err)
			}
		})
	})

	t.Run("Genre posts a JSON string", func(t *testing.T) {
		svc, backend := newRecommender(t)
		backend.RespondJSON(GenrePath, http.StatusOK, sampleTracks[:1])

		tracks, err := svc.Genre(ctx, "rock")
		if err != nil || len(tracks) != 1 {
			t.Fatalf("Genre() = %v, %v", tracks, err)
		}
		if got := string(backend.CallsTo(GenrePath)[0].Body); got != `"rock"` {
			t.Errorf("expected body \"rock\", got %s", got)
		}
		if len(backend.CallsTo(SearchPath)) != 0 {
			t.Error("genre must not call search")
		}
	})

	t.Run("Download", func(t *testing.T) {
		t.Run("streams audio", func(t *testing.T) {
			svc, backend := newRecommender(t)
			backend.Respond(DownloadPath, tu.Reply{Body: []byte("ID3-audio"), ContentType: "audio/mp3"})

			rc, err := svc.Download(ctx, "QDYfEBY9NM4", "Let It Be")
			if err != nil {
				t.Fatalf("Download() error = %v", err)
			}
			defer rc.Close()

			data, _ := io.ReadAll(rc)
			if string(data) != "ID3-audio" {
				t.Errorf("unexpected audio %q", data)
			}
			if got := string(backend.CallsTo(DownloadPath)[0].Body); got != `{"videoId":"QDYfEBY9NM4","songTitle":"Let It Be"}` {
				t.Errorf("unexpected download body %s", got)
			}
		})

		t.Run("error status", func(t *testing.T) {
			svc, backend := newRecommender(t)
			backend.RespondJSON(DownloadPath, http.StatusInternalServerError, map[string]string{"detail": "Error processing video: age restricted"})

			_, err := svc.Download(ctx, "x", "y")
			var be *shared.BackendError
			if !errors.As(err, &be) || be.StatusCode != 500 {
				t.Fatalf("expected 500 BackendError, got %v", err)
			}
		})

		t.Run("plain text error body", func(t *testing.T) {
			svc, backend := newRecommender(t)
			backend.Respond(DownloadPath, tu.Reply{Status: http.StatusBadGateway, Body: []byte("upstream down\n")})

			_, err := svc.Download(ctx, "x", "y")
			var be *shared.BackendError
			if !errors.As(err, &be) || be.Detail != "upstream down" {
				t.Errorf("expected plain detail, got %v", err)
			}
		})
	})
}

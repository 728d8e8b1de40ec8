package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/mrd/internal/models"
	"github.com/desertthunder/mrd/internal/shared"
)

// maxErrorBody bounds how much of a failed download response is read for its detail.
const maxErrorBody = 64 << 10

var _ Backend = (*RecommenderService)(nil)

// RecommenderService implements [Backend] on top of [APIService].
//
// Every call checks the HTTP status before decoding: non-2xx responses become [shared.BackendError].
type RecommenderService struct {
	api *APIService
}

// NewRecommenderService wraps api.
func NewRecommenderService(api *APIService) *RecommenderService {
	return &RecommenderService{api: api}
}

type songRequest struct {
	SongName string `json:"song_name"`
}

type downloadRequest struct {
	VideoID   string `json:"videoId"`
	SongTitle string `json:"songTitle"`
}

// Recommend posts {"song_name": songName} to /recommend.
func (s *RecommenderService) Recommend(ctx context.Context, songName string) (json.RawMessage, error) {
	return s.payload(ctx, RecommendPath, songRequest{SongName: songName})
}

// RecommendByValues posts the eight-field record to /recommend_by_values.
func (s *RecommenderService) RecommendByValues(ctx context.Context, values models.ValueQuery) (json.RawMessage, error) {
	return s.payload(ctx, RecommendByValuesPath, values)
}

// Search posts payload to /search byte for byte.
func (s *RecommenderService) Search(ctx context.Context, payload json.RawMessage) ([]models.TrackResult, error) {
	resp, err := s.api.Post(ctx, SearchPath, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	return decodeTracks(SearchPath, resp)
}

// Genre posts the genre identifier as a JSON string to /genre.
func (s *RecommenderService) Genre(ctx context.Context, genre string) ([]models.TrackResult, error) {
	resp, err := s.api.PostJSON(ctx, GenrePath, genre)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	return decodeTracks(GenrePath, resp)
}

// Download posts {"videoId", "songTitle"} to /download and returns the audio body on success.
func (s *RecommenderService) Download(ctx context.Context, videoID, title string) (io.ReadCloser, error) {
	resp, err := s.api.PostStream(ctx, DownloadPath, downloadRequest{VideoID: videoID, SongTitle: title})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, backendError(DownloadPath, resp.StatusCode, body)
	}

	return resp.Body, nil
}

func (s *RecommenderService) payload(ctx context.Context, path string, body any) (json.RawMessage, error) {
	resp, err := s.api.PostJSON(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}

	if !resp.OK() {
		return nil, backendError(path, resp.StatusCode, resp.Body)
	}
	if !resp.IsJSON {
		return nil, fmt.Errorf("%w: %s did not return JSON", shared.ErrMalformedResponse, path)
	}

	return json.RawMessage(resp.Body), nil
}

func decodeTracks(path string, resp *APIResponse) ([]models.TrackResult, error) {
	if !resp.OK() {
		return nil, backendError(path, resp.StatusCode, resp.Body)
	}

	var tracks []models.TrackResult
	if err := json.Unmarshal(resp.Body, &tracks); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrMalformedResponse, path, err)
	}
	if tracks == nil {
		tracks = []models.TrackResult{}
	}
	return tracks, nil
}

// backendError builds a [shared.BackendError], pulling FastAPI's "detail" out of body when present.
func backendError(path string, status int, body []byte) error {
	be := &shared.BackendError{Endpoint: path, StatusCode: status}

	var errResp struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &errResp) == nil && len(errResp.Detail) > 0 {
		var text string
		if json.Unmarshal(errResp.Detail, &text) == nil {
			be.Detail = text
		} else {
			be.Detail = string(errResp.Detail)
		}
	} else if len(body) > 0 && len(body) < 512 {
		be.Detail = strings.TrimSpace(string(body))
	}

	if be.Detail == "" {
		be.Detail = http.StatusText(status)
	}
	return be
}

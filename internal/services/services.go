// package services defines the clients for the music recommendation backend
package services

import (
	"context"
	"encoding/json"
	"io"

	"github.com/desertthunder/mrd/internal/models"
)

// Backend endpoint paths.
const (
	RecommendPath         = "/recommend"
	RecommendByValuesPath = "/recommend_by_values"
	SearchPath            = "/search"
	GenrePath             = "/genre"
	DownloadPath          = "/download"
)

// Recommender runs the query endpoints of the backend.
type Recommender interface {
	// Recommend maps a song name to the backend's similarity payload.
	// The payload is opaque and meant to be forwarded to Search unchanged.
	Recommend(ctx context.Context, songName string) (json.RawMessage, error)

	// RecommendByValues maps an eight-feature record to a similarity payload.
	RecommendByValues(ctx context.Context, values models.ValueQuery) (json.RawMessage, error)

	// Search maps a similarity payload to displayable tracks.
	Search(ctx context.Context, payload json.RawMessage) ([]models.TrackResult, error)

	// Genre returns tracks for a catalog genre in a single step.
	Genre(ctx context.Context, genre string) ([]models.TrackResult, error)
}

// TrackDownloader fetches the MP3 for a track.
type TrackDownloader interface {
	// Download returns the audio stream for videoID. The caller closes it.
	Download(ctx context.Context, videoID, title string) (io.ReadCloser, error)
}

// Backend is the full backend surface.
type Backend interface {
	Recommender
	TrackDownloader
}

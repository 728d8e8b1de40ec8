package models

import (
	"strings"

	"github.com/desertthunder/mrd/internal/shared"
)

// TrackResult is one candidate track returned by /search or /genre.
//
// Everything except VideoID is display data.
type TrackResult struct {
	Title            string `json:"title"`
	Thumbnail        string `json:"thumbnail"`
	Duration         string `json:"duration"`
	ViewCount        string `json:"viewCount"`
	PublishedTime    string `json:"publishedTime"`
	VideoID          string `json:"videoId"`
	ChannelName      string `json:"channelName,omitempty"`
	ChannelThumbnail string `json:"channelThumbnail,omitempty"`
	SongURL          string `json:"songUrl,omitempty"`
}

// Badges are the short metadata chips shown under a row title.
func (t TrackResult) Badges() []string {
	var out []string
	for _, s := range []string{t.Duration, t.ViewCount, t.PublishedTime} {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Subtitle joins the badges and channel name for one-line renderers.
func (t TrackResult) Subtitle() string {
	parts := t.Badges()
	if t.ChannelName != "" {
		parts = append(parts, t.ChannelName)
	}
	return strings.Join(parts, " • ")
}

// FileName is the suggested file name for the track's MP3: the title plus ".mp3".
func (t TrackResult) FileName() string {
	return shared.SanitizeFilename(t.Title) + ".mp3"
}

// URL links to the track, preferring the backend's song URL.
func (t TrackResult) URL() string {
	if t.SongURL != "" {
		return t.SongURL
	}
	if t.VideoID == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + t.VideoID
}

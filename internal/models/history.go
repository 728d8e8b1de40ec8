package models

import "time"

// QueryRecord is a finished query chain as stored in the history database.
type QueryRecord struct {
	ID          string    `json:"id"`
	Mode        QueryMode `json:"mode"`
	Input       string    `json:"input"`
	ResultCount int       `json:"resultCount"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DownloadRecord is a finished download attempt.
type DownloadRecord struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	Title     string    `json:"title"`
	Path      string    `json:"path,omitempty"`
	Bytes     int64     `json:"bytes"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Succeeded reports whether the download produced a file.
func (d DownloadRecord) Succeeded() bool {
	return d.Error == "" && d.Path != ""
}

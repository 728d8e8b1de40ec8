// Package models defines the query and result types exchanged with the recommendation backend.
//
// Query inputs:
//   - [QueryMode] : which form is active (song, values, genre, or none)
//   - [SongQuery] : a song name of at least three characters
//   - [ValueQuery] : eight audio features, each bounded by its [FeatureField] range
//   - [Genres] : the closed catalog accepted by the genre endpoint
//
// Results:
//   - [TrackResult] : one candidate track as returned by /search or /genre
//
// [MaskNumeric] implements the live keystroke masking used by the value forms,
// and [QueryRecord]/[DownloadRecord] are the rows persisted by the history repositories.
package models

// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI mirrors the recommendation page as a set of views:
//  1. [ModeView] : choose song, values, or genre
//  2. [SongFormView] : a single song-name input
//  3. [ValuesFormView] : eight numeric inputs, masked on every keystroke
//  4. [GenreView] : a filterable list of catalog genres
//  5. [ResultsView] : recommended tracks, each row downloadable with its own spinner
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Queries and downloads run as commands against tasks.Controller and tasks.Downloader; their outcomes come back as messages.
//
// Logging must go to a file while the TUI runs, see shared.NewFileLogger.
package ui

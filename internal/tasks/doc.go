// Package tasks runs the query chains and downloads behind every front end.
//
// # Query Form Controller
//
// [Controller] holds the active [models.QueryMode], the loading and submitted flags,
// the result list, and the last error. Its submit operations validate input first;
// invalid input returns [shared.ErrInvalidInput] and never reaches the network.
//
//  1. [Controller.SubmitSong] : /recommend then /search
//     - The /recommend response is forwarded to /search byte for byte
//
//  2. [Controller.SubmitValues] : /recommend_by_values then /search
//
//  3. [Controller.SubmitGenre] : a single /genre request, no /search
//
// A successful chain replaces the result list wholesale. Overlapping submissions follow
// the configured supersede policy: "cancel" cancels the older chain and discards its
// outcome, "last-writer-wins" lets every chain finish and the last one to resolve wins.
//
// # Downloads
//
// [Downloader] gives each result row its own loading flag keyed by video ID. Downloads
// are bounded by a semaphore and an optional [rate.Limiter]; [Downloader.DownloadAll]
// fans a batch out over a worker pool.
//
// # Progress Reporting
//
// Both types accept an optional channel of [ProgressUpdate]. Sends use select with
// default so a slow reader never blocks a request.
//
// # Persistence
//
// The optional [QueryRecorder] and [DownloadRecorder] interfaces are satisfied by the
// history repositories. Recording failures are logged and otherwise ignored.
package tasks

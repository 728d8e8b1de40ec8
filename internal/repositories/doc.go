// Package repositories implements SQLite persistence for query and download history.
//
// Key Implementations:
//   - [QueryRepository] : finished query chains, satisfies tasks.QueryRecorder
//   - [DownloadRepository] : download attempts, satisfies tasks.DownloadRecorder
//
// Sequence numbers provide stable ordering for rows created within the same clock tick.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories

// Package services implements the HTTP clients for the music recommendation backend.
//
// # Raw client
//
// [APIService] posts JSON bodies and returns undecoded [APIResponse] values.
// It never interprets status codes, which keeps it usable for pass-through calls.
//
// # Typed client
//
// [RecommenderService] implements [Recommender] and [TrackDownloader]:
//   - Recommend and RecommendByValues return the backend's similarity payload as [json.RawMessage]
//     so it can be forwarded to Search without re-encoding
//   - Search and Genre decode the track array
//   - Download returns the audio stream unread
//
// # Error Handling
//
// Failures are classified with sentinels from the shared package:
//   - [shared.ErrNetwork] : the request never produced a response
//   - [shared.ErrBackendStatus] : non-2xx status, as a [shared.BackendError] with FastAPI's detail
//   - [shared.ErrMalformedResponse] : a 2xx body that is not the expected JSON
package services

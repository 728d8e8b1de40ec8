// Package server provides HTTP routing, middleware, and server lifecycle for the local web front end.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers so that the first one added runs first, following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("POST /query").
//
// # Middleware
//
//   - [WithRequestID] : assigns or propagates X-Request-ID
//   - [WithLogging] : one structured log line per request
//   - [WithRecovery] : converts panics into 500 responses
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Lifecycle
//
// [Serve] runs an [http.Server] until its context is cancelled and then shuts it down gracefully.
package server

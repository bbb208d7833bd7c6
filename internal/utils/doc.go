// Package utils provides shared low-level helpers used throughout the fable
// internals. It covers HTTP request helpers for both synchronous JSON
// round-trips and streaming (SSE or line-delimited JSON) communication with
// chat-completion APIs, plus small string utilities.
//
// Key entry points: [DoPostJSON] for synchronous round-trips that return the
// raw response body, [DoPostStream] together with [StreamScanner] for
// incremental line-by-line consumption, and [TruncateString] for bounding
// strings embedded in errors and logs.
package utils

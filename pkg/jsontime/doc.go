// Package jsontime provides time types with the JSON encodings used by the
// store and the console.
//
//   - Timestamp: PostgREST timestamp columns (RFC 3339, with or without zone)
//   - Duration: "10s" strings or integer nanoseconds
package jsontime

// Package server exposes the transcription pipeline over HTTP.
//
// Routes:
//
//	POST /transcribe  multipart form with a "file" part (WAV) and an optional
//	                  "model" part naming a file in the models directory
//	GET  /healthz     engine and model availability
//
// A file lock under the log directory keeps a single server instance per
// installation. Every request gets an X-Request-ID that is echoed in the
// response and stamped on its log lines.
package server

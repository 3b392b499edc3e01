// Package api defines the wire-format types of the HTTP surface and the
// converters from internal models.
//
// Payload keys use snake_case ("transcription_segments") because existing
// clients of the transcription endpoint already depend on that shape. Every
// failure is reported as {"error": "<message>"}.
package api

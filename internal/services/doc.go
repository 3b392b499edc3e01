// Package services defines shared utilities consumed by the transcription
// pipeline and its HTTP surface.
//
// Key responsibilities:
//   - Context helpers that stamp request correlation identifiers and the
//     selected model for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     caller input defects or local environment defects.
//   - HTTPStatus, which turns those markers into response status codes.
package services

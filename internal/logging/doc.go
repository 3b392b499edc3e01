// Package logging builds the slog loggers used by the scribe server and CLI.
//
// Two formats are supported: a compact console format (colorized when writing
// straight to a terminal) and JSON for log shippers. Attribute helpers keep key
// names consistent, and WithContext stamps request correlation identifiers so
// every line emitted while serving one upload can be grouped together.
package logging

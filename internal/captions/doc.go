// Package captions turns WebVTT text emitted by the transcription engine into
// timestamped segments.
//
// Parsing is a single pass over lines with two states, idle and in-block. A
// cue is emitted only once it has a time span and at least one text line.
// Output from some engine builds puts the first text line on the span line
// ("[00:00:00.000 --> 00:00:01.000]  Hello") and omits the blank line between
// cues; both forms are accepted.
package captions

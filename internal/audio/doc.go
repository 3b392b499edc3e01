// Package audio inspects uploaded WAVE buffers before any engine work starts.
//
// Inspect only reads the RIFF header and locates the sample data; it never
// resamples, remixes, or converts. CheckProfile then compares the header
// against the profile the engine expects and reports every field that differs.
package audio

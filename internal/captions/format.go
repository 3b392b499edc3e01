package captions

import "strings"

// Format renders segments as a WebVTT document that Parse reads back to the
// same segments, provided no text contains a blank line or a span arrow.
// Spans are bracketed so a missing start or end survives the trip.
func Format(segments []Segment) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("\n")
	for _, seg := range segments {
		b.WriteString("\n[")
		b.WriteString(seg.Start)
		b.WriteString(spanSeparator)
		b.WriteString(seg.End)
		b.WriteString("]\n")
		b.WriteString(seg.Text)
		b.WriteString("\n")
	}
	return b.String()
}

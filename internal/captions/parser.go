package captions

import (
	"bufio"
	"io"
	"iter"
	"strings"
)

const (
	// Header is the token that opens a WebVTT document.
	Header = "WEBVTT"

	cueArrow      = "-->"
	spanSeparator = " --> "
)

// Segment is one transcript cue. Text may span several lines joined by "\n".
type Segment struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Text  string `json:"text"`
}

type state uint8

const (
	stateIdle state = iota
	stateInBlock
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateInBlock:
		return "in_block"
	default:
		return "unknown"
	}
}

// parser accumulates one cue at a time. Pending fields are cleared after
// every flush.
type parser struct {
	state    state
	span     string
	lines    []string
	segments []Segment
}

// Parse reads engine output line by line and returns the cues it contains.
// It never fails; a read error ends the scan and keeps what was parsed.
func Parse(r io.Reader) []Segment {
	return ParseLines(Lines(r))
}

// ParseString is Parse over an in-memory document.
func ParseString(s string) []Segment {
	return ParseLines(strings.Lines(s))
}

// ParseLines runs the cue state machine over a line sequence. Malformed input
// yields empty or partial fields, never an error.
func ParseLines(lines iter.Seq[string]) []Segment {
	p := &parser{segments: []Segment{}}
	for line := range lines {
		p.step(line)
	}
	p.flush()
	return p.segments
}

func (p *parser) step(raw string) {
	line := strings.ToValidUTF8(strings.TrimSpace(raw), "�")

	switch {
	case line == "":
		p.flush()
	case line == Header:
	case strings.Contains(line, cueArrow):
		// Consecutive cue headers without a blank line are common; keep the first.
		p.flush()
		p.begin(line)
	case p.state == stateInBlock:
		p.lines = append(p.lines, line)
	}
}

// begin starts a cue. "[span]  text" carries its first text line inline.
func (p *parser) begin(line string) {
	p.state = stateInBlock
	p.lines = p.lines[:0]
	idx := strings.IndexByte(line, ']')
	if idx < 0 {
		p.span = line
		return
	}
	p.span = strings.TrimSpace(line[:idx+1])
	if text := strings.TrimSpace(line[idx+1:]); text != "" {
		p.lines = append(p.lines, text)
	}
}

func (p *parser) complete() bool {
	return p.state == stateInBlock && p.span != "" && len(p.lines) > 0
}

// flush emits the pending cue if it has both a span and text. An incomplete
// cue stays pending.
func (p *parser) flush() {
	if !p.complete() {
		return
	}
	start, end := splitSpan(p.span)
	p.segments = append(p.segments, Segment{
		Start: start,
		End:   end,
		Text:  strings.TrimSpace(strings.Join(p.lines, "\n")),
	})
	p.state = stateIdle
	p.span = ""
	p.lines = nil
}

func splitSpan(raw string) (string, string) {
	parts := strings.Split(strings.Trim(raw, "[]"), spanSeparator)
	var start, end string
	if len(parts) > 0 {
		start = strings.TrimSpace(parts[0])
	}
	if len(parts) > 1 {
		end = strings.TrimSpace(parts[1])
	}
	return start, end
}

// Lines yields r one line at a time without a length limit.
func Lines(r io.Reader) iter.Seq[string] {
	return func(yield func(string) bool) {
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			if line != "" && !yield(line) {
				return
			}
			if err != nil {
				return
			}
		}
	}
}

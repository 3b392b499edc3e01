package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// EngineStub describes the behaviour of a fake transcription engine.
type EngineStub struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// SkipStdin exits without reading the audio payload.
	SkipStdin bool
	// Sleep delays the exit (seconds, shell syntax) after stdin is consumed.
	Sleep string
}

// WriteEngineStub writes an executable shell script at path that behaves as
// described by stub. Each run records its arguments to path+".args", the
// received stdin to path+".stdin", and appends a line to path+".calls".
func WriteEngineStub(t testing.TB, path string, stub EngineStub) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for engine stub: %v", err)
	}

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("printf '%s\\n' \"$@\" > \"$0.args\"\n")
	b.WriteString("echo run >> \"$0.calls\"\n")
	if !stub.SkipStdin {
		b.WriteString("cat > \"$0.stdin\"\n")
	}
	if stub.Sleep != "" {
		fmt.Fprintf(&b, "sleep %s\n", stub.Sleep)
	}
	if stub.Stdout != "" {
		b.WriteString("cat <<'__SCRIBE_STDOUT__'\n")
		b.WriteString(strings.TrimSuffix(stub.Stdout, "\n"))
		b.WriteString("\n__SCRIBE_STDOUT__\n")
	}
	if stub.Stderr != "" {
		b.WriteString("cat >&2 <<'__SCRIBE_STDERR__'\n")
		b.WriteString(strings.TrimSuffix(stub.Stderr, "\n"))
		b.WriteString("\n__SCRIBE_STDERR__\n")
	}
	fmt.Fprintf(&b, "exit %d\n", stub.ExitCode)

	if err := os.WriteFile(path, []byte(b.String()), 0o755); err != nil {
		t.Fatalf("write engine stub: %v", err)
	}
}

// EngineCalls returns how many times the stub at path was executed.
func EngineCalls(t testing.TB, path string) int {
	t.Helper()
	data, err := os.ReadFile(path + ".calls")
	if err != nil {
		if os.IsNotExist(err) {
			return 0
		}
		t.Fatalf("read engine calls: %v", err)
	}
	return strings.Count(string(data), "run\n")
}

// EngineArgs returns the arguments recorded by the last stub run.
func EngineArgs(t testing.TB, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path + ".args")
	if err != nil {
		t.Fatalf("read engine args: %v", err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

// EngineStdin returns the bytes the last stub run received on stdin.
func EngineStdin(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path + ".stdin")
	if err != nil {
		t.Fatalf("read engine stdin: %v", err)
	}
	return data
}

// SampleVTT is engine output with a header, two blank-separated cues, and a trailing cue.
const SampleVTT = `WEBVTT

00:00:00.000 --> 00:00:02.000
Hello world

00:00:02.000 --> 00:00:04.000
Second line
`

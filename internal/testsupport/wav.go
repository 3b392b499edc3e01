package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV encodes a short PCM tone with the requested layout and returns the file bytes.
func WAV(t testing.TB, channels, sampleRate, bitDepth int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}

	const frames = 160
	data := make([]int, frames*channels)
	for i := range data {
		data[i] = (i % 32) - 16
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("finalize wav: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}

	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	return out
}

// MonoWAV returns a WAV in the profile the engine accepts (mono, 16 kHz, 16-bit).
func MonoWAV(t testing.TB) []byte {
	t.Helper()
	return WAV(t, 1, 16000, 16)
}

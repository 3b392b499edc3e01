package audio

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVE format tags accepted as uncompressed PCM.
const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

var (
	// ErrInvalidFormat reports a buffer that is not a well-formed uncompressed WAVE container.
	ErrInvalidFormat = errors.New("invalid wav format")
	// ErrUnsupportedProfile reports a well-formed WAVE whose channel count, sample
	// rate, or bit depth differs from the required profile.
	ErrUnsupportedProfile = errors.New("unsupported audio profile")
)

// Profile is the channel layout and sampling a buffer must match.
type Profile struct {
	Channels   int
	SampleRate int
	BitDepth   int
}

// RequiredProfile is what the transcription engine accepts on stdin.
var RequiredProfile = Profile{Channels: 1, SampleRate: 16000, BitDepth: 16}

func (p Profile) String() string {
	layout := fmt.Sprintf("%d channels", p.Channels)
	if p.Channels == 1 {
		layout = "mono"
	}
	return fmt.Sprintf("%s, %d-bit, %d Hz", layout, p.BitDepth, p.SampleRate)
}

// Buffer is an inspected WAVE payload. Data is the untouched upload and must not
// be modified once inspected.
type Buffer struct {
	Data   []byte
	Format *goaudio.Format
	// BitDepth is bits per sample as declared by the fmt chunk.
	BitDepth int
	// Encoding is the WAVE format tag (1 for PCM).
	Encoding int
}

// Profile reports the buffer's channel count, sample rate, and bit depth.
func (b Buffer) Profile() Profile {
	p := Profile{BitDepth: b.BitDepth}
	if b.Format != nil {
		p.Channels = b.Format.NumChannels
		p.SampleRate = b.Format.SampleRate
	}
	return p
}

// Inspect parses data as an uncompressed WAVE container and extracts its header
// attributes. It performs no conversion.
func Inspect(data []byte) (Buffer, error) {
	if len(data) == 0 {
		return Buffer{}, fmt.Errorf("%w: empty buffer", ErrInvalidFormat)
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return Buffer{}, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 {
		return Buffer{}, fmt.Errorf("%w: missing fmt chunk", ErrInvalidFormat)
	}
	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return Buffer{}, fmt.Errorf("%w: unsupported encoding tag 0x%04x", ErrInvalidFormat, dec.WavAudioFormat)
	}
	if err := dec.FwdToPCM(); err != nil {
		return Buffer{}, fmt.Errorf("%w: locate data chunk: %w", ErrInvalidFormat, err)
	}

	return Buffer{
		Data:     data,
		Format:   dec.Format(),
		BitDepth: int(dec.BitDepth),
		Encoding: int(dec.WavAudioFormat),
	}, nil
}

// ProfileError lists every field that differs from the required profile.
type ProfileError struct {
	Got        Profile
	Want       Profile
	Mismatches []string
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("%s: %s (got %s, want %s)", ErrUnsupportedProfile, strings.Join(e.Mismatches, ", "), e.Got, e.Want)
}

func (e *ProfileError) Unwrap() error { return ErrUnsupportedProfile }

// CheckProfile rejects buffers that do not match want exactly.
func (b Buffer) CheckProfile(want Profile) error {
	got := b.Profile()
	var mismatches []string
	if got.Channels != want.Channels {
		mismatches = append(mismatches, fmt.Sprintf("channels=%d", got.Channels))
	}
	if got.SampleRate != want.SampleRate {
		mismatches = append(mismatches, fmt.Sprintf("sample_rate=%d", got.SampleRate))
	}
	if got.BitDepth != want.BitDepth {
		mismatches = append(mismatches, fmt.Sprintf("bit_depth=%d", got.BitDepth))
	}
	if len(mismatches) == 0 {
		return nil
	}
	return &ProfileError{Got: got, Want: want, Mismatches: mismatches}
}

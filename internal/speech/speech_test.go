package speech

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func fakeSynth(audio string) SynthesizeFunc {
	return func(ctx context.Context, text, voice string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(audio)), nil
	}
}

func fixedProbe(duration float64) ProbeFunc {
	return func(path string) (float64, error) {
		return duration, nil
	}
}

func TestSynthesizeWritesNarration(t *testing.T) {
	out := filepath.Join(t.TempDir(), "narration.mp3")
	s := NewWithBackend(fakeSynth("mp3-bytes"), fixedProbe(12.5))

	narration, err := s.Synthesize(context.Background(), "hello world", "nova", out)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if narration.Path != out {
		t.Errorf("path = %q, want %q", narration.Path, out)
	}
	if narration.Duration != 12.5 {
		t.Errorf("duration = %f, want 12.5", narration.Duration)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read narration: %v", err)
	}
	if string(data) != "mp3-bytes" {
		t.Errorf("file content = %q", data)
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	s := NewWithBackend(fakeSynth("x"), fixedProbe(1))
	_, err := s.Synthesize(context.Background(), "   ", "nova", filepath.Join(t.TempDir(), "out.mp3"))
	if !errors.Is(err, ErrSynthesis) {
		t.Fatalf("err = %v, want ErrSynthesis", err)
	}
}

func TestSynthesizeEmptyStreamCleansUp(t *testing.T) {
	out := filepath.Join(t.TempDir(), "narration.mp3")
	s := NewWithBackend(fakeSynth(""), fixedProbe(1))

	_, err := s.Synthesize(context.Background(), "hello", "nova", out)
	if !errors.Is(err, ErrSynthesis) {
		t.Fatalf("err = %v, want ErrSynthesis", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("partial narration file left behind")
	}
}

func TestSynthesizeProbeFailureCleansUp(t *testing.T) {
	out := filepath.Join(t.TempDir(), "narration.mp3")
	probe := func(path string) (float64, error) {
		return 0, errors.New("unreadable")
	}
	s := NewWithBackend(fakeSynth("mp3-bytes"), probe)

	_, err := s.Synthesize(context.Background(), "hello", "nova", out)
	if !errors.Is(err, ErrSynthesis) {
		t.Fatalf("err = %v, want ErrSynthesis", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("partial narration file left behind")
	}
}

func TestSynthesizeRequestFailure(t *testing.T) {
	synth := func(ctx context.Context, text, voice string) (io.ReadCloser, error) {
		return nil, errors.New("api unavailable")
	}
	s := NewWithBackend(synth, fixedProbe(1))

	_, err := s.Synthesize(context.Background(), "hello", "nova", filepath.Join(t.TempDir(), "out.mp3"))
	if !errors.Is(err, ErrSynthesis) {
		t.Fatalf("err = %v, want ErrSynthesis", err)
	}
}

func TestSynthesizeDefaultVoice(t *testing.T) {
	var gotVoice string
	synth := func(ctx context.Context, text, voice string) (io.ReadCloser, error) {
		gotVoice = voice
		return io.NopCloser(strings.NewReader("mp3")), nil
	}
	s := NewWithBackend(synth, fixedProbe(1))

	if _, err := s.Synthesize(context.Background(), "hello", "", filepath.Join(t.TempDir(), "out.mp3")); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if gotVoice != "nova" {
		t.Errorf("voice = %q, want nova", gotVoice)
	}
}

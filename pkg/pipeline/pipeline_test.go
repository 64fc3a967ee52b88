package pipeline_test

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/dmarier/shortreel/internal/compositor"
	"github.com/dmarier/shortreel/internal/config"
	ffmpegWrap "github.com/dmarier/shortreel/internal/ffmpeg"
	"github.com/dmarier/shortreel/internal/script"
	"github.com/dmarier/shortreel/internal/speech"
	"github.com/dmarier/shortreel/pkg/pipeline"
)

type stubScripts struct {
	script *script.Script
	err    error
}

func (s *stubScripts) Generate(ctx context.Context, topic string, rng *rand.Rand) (*script.Script, error) {
	return s.script, s.err
}

type stubSpeech struct {
	duration float64
	err      error
}

func (s *stubSpeech) Synthesize(ctx context.Context, text, voice, outputPath string) (*speech.Narration, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := os.WriteFile(outputPath, []byte("mp3"), 0o644); err != nil {
		return nil, err
	}
	return &speech.Narration{Path: outputPath, Duration: s.duration}, nil
}

func fakeRun(t *testing.T) compositor.RunFunc {
	t.Helper()
	return func(stream *ffmpeg.Stream) error {
		args := stream.GetArgs()
		out := args[len(args)-1]
		return os.WriteFile(out, []byte("video"), 0o644)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.InputFolder = t.TempDir()
	cfg.OutputFolder = t.TempDir()
	cfg.BackgroundVideo = "random"
	if err := os.WriteFile(filepath.Join(cfg.InputFolder, "bg.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func testDeps(t *testing.T, scripts pipeline.ScriptGenerator, synth pipeline.Synthesizer) pipeline.Deps {
	t.Helper()
	return pipeline.Deps{
		Scripts:    scripts,
		Speech:     synth,
		Compositor: compositor.New(fakeRun(t)),
		Rand:       rand.New(rand.NewSource(1)),
		Now: func() time.Time {
			return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
		},
		ProbeVideo: func(path string) (*ffmpegWrap.VideoMetadata, error) {
			return &ffmpegWrap.VideoMetadata{Duration: 30, Width: 1920, Height: 1080, FrameRate: 30}, nil
		},
		ProbeAudio: func(path string) (*ffmpegWrap.AudioMetadata, error) {
			return &ffmpegWrap.AudioMetadata{Duration: 12}, nil
		},
	}
}

func TestRunProducesNamedOutput(t *testing.T) {
	cfg := testConfig(t)
	sc := &script.Script{
		Topic:    "Space Exploration",
		FullText: "Did you know this fact. It is surprisingly true and worth sharing today.",
	}
	p := pipeline.New(cfg, testDeps(t, &stubScripts{script: sc}, &stubSpeech{duration: 12}))

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantName := "space_exploration_20260314_092653.mp4"
	if filepath.Base(result.Video.Path) != wantName {
		t.Errorf("output name = %q, want %q", filepath.Base(result.Video.Path), wantName)
	}
	if _, err := os.Stat(result.Video.Path); err != nil {
		t.Errorf("output file missing: %v", err)
	}
	if result.Video.Duration != 12 {
		t.Errorf("duration = %f, want 12", result.Video.Duration)
	}
}

func TestRunRemovesTempNarration(t *testing.T) {
	cfg := testConfig(t)
	sc := &script.Script{Topic: "ocean", FullText: "Fish are older than trees by a wide margin."}
	p := pipeline.New(cfg, testDeps(t, &stubScripts{script: sc}, &stubSpeech{duration: 8}))

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	entries, err := os.ReadDir(cfg.OutputFolder)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "narration_") {
			t.Errorf("temp narration %s left behind", entry.Name())
		}
	}
}

func TestRunScriptFailurePropagates(t *testing.T) {
	cfg := testConfig(t)
	p := pipeline.New(cfg, testDeps(t, &stubScripts{err: script.ErrContentGeneration}, &stubSpeech{duration: 8}))

	_, err := p.Run(context.Background())
	if !errors.Is(err, script.ErrContentGeneration) {
		t.Fatalf("err = %v, want ErrContentGeneration", err)
	}
}

func TestRunSpeechFailurePropagates(t *testing.T) {
	cfg := testConfig(t)
	sc := &script.Script{Topic: "space", FullText: "Some fact."}
	p := pipeline.New(cfg, testDeps(t, &stubScripts{script: sc}, &stubSpeech{err: speech.ErrSynthesis}))

	_, err := p.Run(context.Background())
	if !errors.Is(err, speech.ErrSynthesis) {
		t.Fatalf("err = %v, want ErrSynthesis", err)
	}
}

func TestComposeExisting(t *testing.T) {
	cfg := testConfig(t)
	narrationPath := filepath.Join(t.TempDir(), "voice.mp3")
	if err := os.WriteFile(narrationPath, []byte("mp3"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := pipeline.New(cfg, testDeps(t, nil, nil))

	out, err := p.ComposeExisting(context.Background(), narrationPath, "A short narrated fact about something.", "")
	if err != nil {
		t.Fatalf("ComposeExisting: %v", err)
	}
	if filepath.Base(out.Path) != "voice_20260314_092653.mp4" {
		t.Errorf("output name = %q", filepath.Base(out.Path))
	}
	if out.Duration != 12 {
		t.Errorf("duration = %f, want probed 12", out.Duration)
	}
}

func TestTopicSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Space Exploration", "space_exploration"},
		{"deep-sea creatures", "deep-sea_creatures"},
		{"What?! Really...", "what_really"},
		{"  spaced  out  ", "spaced_out"},
		{"", "video"},
	}
	for _, tc := range cases {
		if got := pipeline.TopicSlug(tc.in); got != tc.want {
			t.Errorf("TopicSlug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

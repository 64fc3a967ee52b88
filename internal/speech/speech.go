package speech

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	ffmpegWrap "github.com/dmarier/shortreel/internal/ffmpeg"
	"github.com/dmarier/shortreel/internal/logging"
)

// ErrSynthesis marks a failed text-to-speech conversion.
var ErrSynthesis = errors.New("speech synthesis failed")

// Narration is a synthesized voice track on disk.
type Narration struct {
	Path     string
	Duration float64
}

// SynthesizeFunc streams synthesized audio for text in the given voice.
type SynthesizeFunc func(ctx context.Context, text, voice string) (io.ReadCloser, error)

// ProbeFunc measures the duration of an audio file in seconds.
type ProbeFunc func(path string) (float64, error)

// Synthesizer converts script text into narration audio files.
type Synthesizer struct {
	log        zerolog.Logger
	synthesize SynthesizeFunc
	probe      ProbeFunc
}

// New creates a Synthesizer backed by the OpenAI TTS API.
func New(apiKey string) (*Synthesizer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.Wrap(ErrSynthesis, "OPENAI_API_KEY is not set")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Synthesizer{
		log:        logging.WithComponent("speech"),
		synthesize: openAISynthesizer(client),
		probe:      probeDuration,
	}, nil
}

// NewWithBackend creates a Synthesizer with custom synthesis and probing.
func NewWithBackend(synthesize SynthesizeFunc, probe ProbeFunc) *Synthesizer {
	return &Synthesizer{
		log:        logging.WithComponent("speech"),
		synthesize: synthesize,
		probe:      probe,
	}
}

// Synthesize renders text as an MP3 at outputPath and measures its duration.
// A partial file is removed on any failure.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice, outputPath string) (*Narration, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.Wrap(ErrSynthesis, "empty script text")
	}
	if voice == "" {
		voice = "nova"
	}

	s.log.Debug().Str("voice", voice).Int("chars", len(text)).Msg("synthesizing narration")

	body, err := s.synthesize(ctx, text, voice)
	if err != nil {
		return nil, errors.Wrapf(ErrSynthesis, "request: %v", err)
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, errors.Wrap(err, "create output directory")
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, errors.Wrap(err, "create narration file")
	}
	written, err := io.Copy(out, body)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(outputPath)
		return nil, errors.Wrapf(ErrSynthesis, "write narration: %v", err)
	}
	if written == 0 {
		os.Remove(outputPath)
		return nil, errors.Wrap(ErrSynthesis, "received empty audio stream")
	}

	duration, err := s.probe(outputPath)
	if err != nil {
		os.Remove(outputPath)
		return nil, errors.Wrapf(ErrSynthesis, "probe narration: %v", err)
	}
	if duration <= 0 {
		os.Remove(outputPath)
		return nil, errors.Wrap(ErrSynthesis, "narration has zero duration")
	}

	s.log.Info().Str("path", outputPath).Float64("duration", duration).Msg("narration ready")

	return &Narration{Path: outputPath, Duration: duration}, nil
}

func openAISynthesizer(client openai.Client) SynthesizeFunc {
	return func(ctx context.Context, text, voice string) (io.ReadCloser, error) {
		resp, err := client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
			Model:          openai.SpeechModelTTS1,
			Voice:          openai.AudioSpeechNewParamsVoice(voice),
			Input:          text,
			ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		})
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	}
}

func probeDuration(path string) (float64, error) {
	meta, err := ffmpegWrap.ProbeAudio(path)
	if err != nil {
		return 0, err
	}
	return meta.Duration, nil
}

package pipeline

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dmarier/shortreel/internal/background"
	"github.com/dmarier/shortreel/internal/compositor"
	"github.com/dmarier/shortreel/internal/config"
	ffmpegWrap "github.com/dmarier/shortreel/internal/ffmpeg"
	"github.com/dmarier/shortreel/internal/logging"
	"github.com/dmarier/shortreel/internal/script"
	"github.com/dmarier/shortreel/internal/speech"
	"github.com/dmarier/shortreel/internal/subtitle"
	"github.com/dmarier/shortreel/internal/timeline"
)

// ScriptGenerator produces a narration script for a topic.
type ScriptGenerator interface {
	Generate(ctx context.Context, topic string, rng *rand.Rand) (*script.Script, error)
}

// Synthesizer renders script text as narration audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, outputPath string) (*speech.Narration, error)
}

// Result is one finished production run.
type Result struct {
	Script *script.Script
	Video  *compositor.Output
}

// Deps bundles the collaborators a Producer drives. Nil optional fields fall
// back to the real implementations.
type Deps struct {
	Scripts    ScriptGenerator
	Speech     Synthesizer
	Compositor *compositor.Compositor
	Rand       *rand.Rand
	Now        func() time.Time
	ProbeVideo func(path string) (*ffmpegWrap.VideoMetadata, error)
	ProbeAudio func(path string) (*ffmpegWrap.AudioMetadata, error)
}

// Producer runs the full script-to-video pipeline.
type Producer struct {
	log  zerolog.Logger
	cfg  *config.Config
	deps Deps
}

// New creates a Producer for cfg.
func New(cfg *config.Config, deps Deps) *Producer {
	if deps.Compositor == nil {
		deps.Compositor = compositor.New(nil)
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ProbeVideo == nil {
		deps.ProbeVideo = ffmpegWrap.ProbeVideo
	}
	if deps.ProbeAudio == nil {
		deps.ProbeAudio = ffmpegWrap.ProbeAudio
	}
	return &Producer{
		log:  logging.WithComponent("pipeline"),
		cfg:  cfg,
		deps: deps,
	}
}

// Run produces one video: generate a script, synthesize narration, pick and
// fit a background clip, and composite the result into the output folder.
// The intermediate narration file is removed after the run.
func (p *Producer) Run(ctx context.Context) (*Result, error) {
	if err := p.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	sc, err := p.deps.Scripts.Generate(ctx, p.cfg.Topic, p.deps.Rand)
	if err != nil {
		return nil, errors.Wrap(err, "generate script")
	}
	p.log.Info().Str("topic", sc.Topic).Int("words", sc.WordCount).Msg("script ready")

	narrationPath := filepath.Join(p.cfg.OutputFolder, "narration_"+uuid.NewString()+".mp3")
	defer os.Remove(narrationPath)

	narration, err := p.deps.Speech.Synthesize(ctx, sc.FullText, p.cfg.Voice, narrationPath)
	if err != nil {
		return nil, errors.Wrap(err, "synthesize narration")
	}

	outputPath := filepath.Join(p.cfg.OutputFolder, outputName(sc.Topic, p.deps.Now()))

	video, err := p.compose(ctx, narration, sc.FullText, outputPath)
	if err != nil {
		return nil, err
	}

	return &Result{Script: sc, Video: video}, nil
}

// ComposeExisting runs the deterministic core over pre-existing assets: a
// narration audio file, a script text, and a background clip or selection name.
func (p *Producer) ComposeExisting(ctx context.Context, narrationPath, scriptText, outputPath string) (*compositor.Output, error) {
	audioMeta, err := p.deps.ProbeAudio(narrationPath)
	if err != nil {
		return nil, errors.Wrap(err, "probe narration")
	}
	narration := &speech.Narration{Path: narrationPath, Duration: audioMeta.Duration}

	if outputPath == "" {
		if err := p.cfg.EnsureDirectories(); err != nil {
			return nil, err
		}
		base := strings.TrimSuffix(filepath.Base(narrationPath), filepath.Ext(narrationPath))
		outputPath = filepath.Join(p.cfg.OutputFolder, outputName(base, p.deps.Now()))
	}

	return p.compose(ctx, narration, scriptText, outputPath)
}

func (p *Producer) compose(ctx context.Context, narration *speech.Narration, scriptText, outputPath string) (*compositor.Output, error) {
	clipPath, err := background.Select(p.cfg.InputFolder, p.cfg.BackgroundVideo, p.deps.Rand)
	if err != nil {
		return nil, errors.Wrap(err, "select background")
	}
	meta, err := p.deps.ProbeVideo(clipPath)
	if err != nil {
		return nil, errors.Wrapf(err, "probe background %s", clipPath)
	}

	chunks, err := timeline.Segment(scriptText, narration.Duration)
	if err != nil {
		return nil, errors.Wrap(err, "segment script")
	}

	style, err := subtitle.Resolve(p.cfg.SubtitleStyle)
	if err != nil {
		return nil, err
	}

	p.log.Info().
		Str("background", clipPath).
		Float64("duration", narration.Duration).
		Int("chunks", len(chunks)).
		Str("style", string(style.Name)).
		Msg("compositing")

	return p.deps.Compositor.Compose(
		ctx,
		compositor.NarrationAudio{Path: narration.Path, Duration: narration.Duration},
		compositor.BackgroundClip{Path: clipPath, Meta: meta},
		chunks,
		style,
		p.deps.Rand,
		outputPath,
	)
}

var slugStrip = regexp.MustCompile(`[^a-z0-9-_]`)
var slugCollapse = regexp.MustCompile(`_+`)

// TopicSlug converts a topic into a filesystem-safe lowercase slug.
func TopicSlug(topic string) string {
	slug := strings.ToLower(strings.TrimSpace(topic))
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = slugStrip.ReplaceAllString(slug, "_")
	slug = slugCollapse.ReplaceAllString(slug, "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		slug = "video"
	}
	return slug
}

func outputName(topic string, now time.Time) string {
	return TopicSlug(topic) + "_" + now.Format("20060102_150405") + ".mp4"
}

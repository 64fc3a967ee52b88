package compositor

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegWrap "github.com/dmarier/shortreel/internal/ffmpeg"
	"github.com/dmarier/shortreel/internal/framefit"
	"github.com/dmarier/shortreel/internal/logging"
	"github.com/dmarier/shortreel/internal/subtitle"
	"github.com/dmarier/shortreel/internal/timeline"
)

var (
	// ErrInvalidInput marks narration or background media the compositor
	// cannot start from.
	ErrInvalidInput = errors.New("invalid compositor input")
	// ErrEncoding marks an unrecoverable encoder failure during finalize.
	ErrEncoding = errors.New("encoding failed")
)

// NarrationAudio is the synthesized speech track. Its duration drives the
// output duration.
type NarrationAudio struct {
	Path     string
	Duration float64
}

// BackgroundClip is a read-only background video with probed metadata.
type BackgroundClip struct {
	Path string
	Meta *ffmpegWrap.VideoMetadata
}

// Output describes the finished video file.
type Output struct {
	Path     string
	Duration float64
	Width    int
	Height   int
}

// RunFunc executes a compiled ffmpeg graph.
type RunFunc func(stream *ffmpeg.Stream) error

// Compositor merges a fitted background track, narration audio, and timed
// subtitle overlays into one output file.
type Compositor struct {
	log zerolog.Logger
	run RunFunc
}

// New creates a Compositor. A nil runner executes ffmpeg directly.
func New(run RunFunc) *Compositor {
	if run == nil {
		run = func(stream *ffmpeg.Stream) error {
			return stream.OverWriteOutput().ErrorToStdOut().Run()
		}
	}
	return &Compositor{
		log: logging.WithComponent("compositor"),
		run: run,
	}
}

// Compose runs the linear pipeline INIT -> FIT -> TIMELINE -> RENDER -> MERGE
// -> FINALIZE and publishes the result at outputPath. The output only appears
// there after a successful encode; failures leave nothing behind. The whole
// call is the caller's unit of retry.
func (c *Compositor) Compose(
	ctx context.Context,
	narration NarrationAudio,
	clip BackgroundClip,
	chunks []timeline.Chunk,
	style subtitle.StyleSpec,
	rng *rand.Rand,
	outputPath string,
) (*Output, error) {
	// INIT
	if narration.Duration <= 0 {
		return nil, errors.Wrapf(ErrInvalidInput, "narration duration %f", narration.Duration)
	}
	if narration.Path == "" {
		return nil, errors.Wrap(ErrInvalidInput, "narration path is empty")
	}
	if clip.Path == "" || clip.Meta == nil {
		return nil, errors.Wrap(ErrInvalidInput, "background clip is missing metadata")
	}

	// FIT
	plan, err := framefit.Fit(clip.Meta, narration.Duration, rng)
	if err != nil {
		return nil, errors.Wrap(err, "fit background")
	}
	c.log.Debug().
		Str("plan", string(plan.Trim.Kind)).
		Float64("offset", plan.Trim.Offset).
		Int("repeats", plan.Trim.Repeats).
		Msg("background fitted")

	// TIMELINE
	bounded := c.clampChunks(chunks, narration.Duration)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// RENDER
	workDir, err := os.MkdirTemp("", "shortreel_")
	if err != nil {
		return nil, errors.Wrap(err, "create work directory")
	}
	defer os.RemoveAll(workDir)

	overlayPath := ""
	if len(bounded) > 0 {
		doc := subtitle.RenderOverlay(bounded, style, subtitle.Geometry{
			Width:  framefit.TargetWidth,
			Height: framefit.TargetHeight,
		})
		overlayPath = filepath.Join(workDir, "overlay.ass")
		if err := os.WriteFile(overlayPath, []byte(doc), 0o644); err != nil {
			return nil, errors.Wrap(err, "write overlay")
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// MERGE + FINALIZE: encode to a temp path, publish via rename.
	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create output directory %s", dir)
		}
	}
	tmpPath := outputPath + ".tmp-" + uuid.NewString()

	stream := buildGraph(narration, clip, plan, overlayPath, tmpPath)
	if err := c.run(stream); err != nil {
		os.Remove(tmpPath)
		return nil, errors.Wrapf(ErrEncoding, "encode %s: %v", outputPath, err)
	}
	if err := ctx.Err(); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return nil, errors.Wrapf(ErrEncoding, "publish %s: %v", outputPath, err)
	}

	c.log.Info().
		Str("output", outputPath).
		Float64("duration", narration.Duration).
		Int("chunks", len(bounded)).
		Msg("composition complete")

	return &Output{
		Path:     outputPath,
		Duration: narration.Duration,
		Width:    framefit.TargetWidth,
		Height:   framefit.TargetHeight,
	}, nil
}

// clampChunks drops or clamps chunks that escape [0, duration]. Violations are
// warnings, not failures.
func (c *Compositor) clampChunks(chunks []timeline.Chunk, duration float64) []timeline.Chunk {
	bounded := make([]timeline.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Start >= duration || chunk.End <= 0 {
			c.log.Warn().
				Str("text", chunk.Text).
				Float64("start", chunk.Start).
				Float64("end", chunk.End).
				Msg("dropping chunk outside narration window")
			continue
		}
		if chunk.Start < 0 {
			c.log.Warn().Str("text", chunk.Text).Float64("start", chunk.Start).Msg("clamping chunk start to 0")
			chunk.Start = 0
		}
		if chunk.End > duration {
			c.log.Warn().Str("text", chunk.Text).Float64("end", chunk.End).Msg("clamping chunk end to narration duration")
			chunk.End = duration
		}
		bounded = append(bounded, chunk)
	}
	return bounded
}

// buildGraph assembles the ffmpeg filter graph: trim or loop the background,
// crop and scale it to 9:16, burn the overlay, and attach the narration as the
// sole audio track.
func buildGraph(narration NarrationAudio, clip BackgroundClip, plan framefit.Plan, overlayPath, outputPath string) *ffmpeg.Stream {
	inputKwargs := ffmpeg.KwArgs{}
	switch plan.Trim.Kind {
	case framefit.PlanTrim:
		if plan.Trim.Offset > 0 {
			inputKwargs["ss"] = ffmpegWrap.FormatSeconds(plan.Trim.Offset)
		}
	case framefit.PlanLoop:
		inputKwargs["stream_loop"] = plan.Trim.Repeats - 1
	}

	video := ffmpeg.Input(clip.Path, inputKwargs).
		Filter("crop", ffmpeg.Args{fmt.Sprintf("%d:%d:%d:%d",
			plan.Crop.CropWidth, plan.Crop.CropHeight, plan.Crop.CropX, plan.Crop.CropY)}).
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d",
			plan.Crop.ScaleWidth, plan.Crop.ScaleHeight)})

	if overlayPath != "" {
		video = video.Filter("ass", ffmpeg.Args{overlayPath})
	}

	audio := ffmpeg.Input(narration.Path)

	codec := ffmpegWrap.DefaultCodecSettings
	outputKwargs := ffmpeg.KwArgs{
		"c:v":      codec.VideoCodec,
		"c:a":      codec.AudioCodec,
		"b:v":      codec.VideoBitrate,
		"b:a":      codec.AudioBitrate,
		"r":        codec.FrameRate,
		"t":        ffmpegWrap.FormatSeconds(plan.Trim.Duration),
		"f":        codec.ContainerFormat,
		"pix_fmt":  "yuv420p",
		"movflags": "+faststart",
		"threads":  ffmpegWrap.GetOptimalThreadCount(),
	}

	return ffmpeg.Output([]*ffmpeg.Stream{video, audio}, outputPath, outputKwargs)
}

package framefit

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/dmarier/shortreel/internal/ffmpeg"
)

// Output frame geometry for vertical short-form video.
const (
	TargetWidth  = 1080
	TargetHeight = 1920
)

// PlanKind tags how the background window is matched to the target duration.
type PlanKind string

const (
	// PlanTrim selects a sub-window of a clip at least as long as the target.
	PlanTrim PlanKind = "trim"
	// PlanLoop repeats a clip shorter than the target, truncating the last copy.
	PlanLoop PlanKind = "loop"
)

// CropTransform selects the largest centered 9:16 rectangle of the source
// frame and the dimensions it is scaled to.
type CropTransform struct {
	CropWidth   int
	CropHeight  int
	CropX       int
	CropY       int
	ScaleWidth  int
	ScaleHeight int
}

// TrimPlan matches the background clip length to the target duration.
type TrimPlan struct {
	Kind     PlanKind
	Offset   float64 // start offset within the clip; PlanTrim only
	Repeats  int     // number of copies played, last truncated; PlanLoop only
	Duration float64 // window length, always the target duration
}

// Plan is the spatial and temporal fit of one background clip.
type Plan struct {
	Crop CropTransform
	Trim TrimPlan
}

// Fit computes the crop transform and trim/loop plan that map the clip onto a
// TargetWidth x TargetHeight frame of exactly targetDuration seconds. The rng
// drives the trim offset choice so callers can force determinism.
func Fit(meta *ffmpeg.VideoMetadata, targetDuration float64, rng *rand.Rand) (Plan, error) {
	if meta == nil || meta.Duration <= 0 {
		return Plan{}, errors.Wrap(ffmpeg.ErrIncompatibleMedia, "background has no duration")
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return Plan{}, errors.Wrap(ffmpeg.ErrIncompatibleMedia, "background has no frame dimensions")
	}
	if targetDuration <= 0 {
		return Plan{}, errors.Errorf("target duration must be positive, got %f", targetDuration)
	}

	return Plan{
		Crop: cropTransform(meta.Width, meta.Height),
		Trim: trimPlan(meta.Duration, targetDuration, rng),
	}, nil
}

// cropTransform center-crops on whichever axis avoids letterboxing: wide
// sources lose width, narrow sources lose height.
func cropTransform(srcWidth, srcHeight int) CropTransform {
	targetAspect := float64(TargetWidth) / float64(TargetHeight)
	srcAspect := float64(srcWidth) / float64(srcHeight)

	t := CropTransform{
		ScaleWidth:  TargetWidth,
		ScaleHeight: TargetHeight,
	}

	if srcAspect > targetAspect {
		cropWidth := even(int(float64(srcHeight) * targetAspect))
		t.CropWidth = cropWidth
		t.CropHeight = srcHeight
		t.CropX = (srcWidth - cropWidth) / 2
		t.CropY = 0
	} else {
		cropHeight := even(int(float64(srcWidth) / targetAspect))
		t.CropWidth = srcWidth
		t.CropHeight = cropHeight
		t.CropX = 0
		t.CropY = (srcHeight - cropHeight) / 2
	}

	return t
}

func trimPlan(clipDuration, targetDuration float64, rng *rand.Rand) TrimPlan {
	if clipDuration >= targetDuration {
		maxStart := clipDuration - targetDuration
		offset := 0.0
		if maxStart > 0 && rng != nil {
			offset = rng.Float64() * maxStart
		}
		return TrimPlan{
			Kind:     PlanTrim,
			Offset:   offset,
			Repeats:  1,
			Duration: targetDuration,
		}
	}

	return TrimPlan{
		Kind:     PlanLoop,
		Repeats:  int(math.Ceil(targetDuration / clipDuration)),
		Duration: targetDuration,
	}
}

func even(v int) int {
	if v%2 != 0 {
		v--
	}
	if v < 2 {
		v = 2
	}
	return v
}

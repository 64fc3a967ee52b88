package ffmpeg

import (
	"encoding/json"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ErrIncompatibleMedia marks media that cannot be probed or has no usable streams.
var ErrIncompatibleMedia = errors.New("incompatible media")

// VideoMetadata contains metadata about a video file.
type VideoMetadata struct {
	Duration  float64
	Width     int
	Height    int
	FrameRate float64
	Codec     string
}

// AudioMetadata contains metadata about an audio file.
type AudioMetadata struct {
	Duration float64
	Codec    string
}

// CodecSettings bundles the encoder configuration for the output container.
type CodecSettings struct {
	VideoCodec      string
	AudioCodec      string
	VideoBitrate    string
	AudioBitrate    string
	FrameRate       int
	ContainerFormat string
	FileExtension   string
}

// DefaultCodecSettings is the encoder configuration for short-form MP4 output.
var DefaultCodecSettings = CodecSettings{
	VideoCodec:      "libx264",
	AudioCodec:      "aac",
	VideoBitrate:    "8000k",
	AudioBitrate:    "128k",
	FrameRate:       30,
	ContainerFormat: "mp4",
	FileExtension:   ".mp4",
}

// ProbeVideo retrieves metadata about a video file.
func ProbeVideo(inputPath string) (*VideoMetadata, error) {
	probe, err := ffmpeg.Probe(inputPath)
	if err != nil {
		return nil, errors.Wrapf(ErrIncompatibleMedia, "probe %s: %v", inputPath, err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(probe), &data); err != nil {
		return nil, errors.WithStack(err)
	}

	videoStream := findStream(data, "video")
	if videoStream == nil {
		return nil, errors.Wrapf(ErrIncompatibleMedia, "no video stream in %s", inputPath)
	}

	duration := extractDuration(data, videoStream)
	if duration == 0 {
		return nil, errors.Wrapf(ErrIncompatibleMedia, "could not determine duration of %s", inputPath)
	}

	width, wok := videoStream["width"].(float64)
	height, hok := videoStream["height"].(float64)
	if !wok || !hok || width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrIncompatibleMedia, "no frame dimensions in %s", inputPath)
	}

	codec, _ := videoStream["codec_name"].(string)

	return &VideoMetadata{
		Duration:  duration,
		Width:     int(width),
		Height:    int(height),
		FrameRate: extractFrameRate(videoStream),
		Codec:     codec,
	}, nil
}

// ProbeAudio retrieves metadata about an audio file.
func ProbeAudio(inputPath string) (*AudioMetadata, error) {
	probe, err := ffmpeg.Probe(inputPath)
	if err != nil {
		return nil, errors.Wrapf(ErrIncompatibleMedia, "probe %s: %v", inputPath, err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(probe), &data); err != nil {
		return nil, errors.WithStack(err)
	}

	audioStream := findStream(data, "audio")
	if audioStream == nil {
		return nil, errors.Wrapf(ErrIncompatibleMedia, "no audio stream in %s", inputPath)
	}

	duration := extractDuration(data, audioStream)
	if duration == 0 {
		return nil, errors.Wrapf(ErrIncompatibleMedia, "could not determine duration of %s", inputPath)
	}

	codec, _ := audioStream["codec_name"].(string)

	return &AudioMetadata{
		Duration: duration,
		Codec:    codec,
	}, nil
}

func findStream(data map[string]interface{}, codecType string) map[string]interface{} {
	streams, ok := data["streams"].([]interface{})
	if !ok {
		return nil
	}
	for _, stream := range streams {
		s, ok := stream.(map[string]interface{})
		if !ok {
			continue
		}
		if ct, _ := s["codec_type"].(string); ct == codecType {
			return s
		}
	}
	return nil
}

func extractDuration(data, stream map[string]interface{}) float64 {
	// First try the stream duration.
	if durationStr, ok := stream["duration"].(string); ok {
		if d, err := strconv.ParseFloat(strings.TrimSpace(durationStr), 64); err == nil && d > 0 {
			return d
		}
	}

	// Fall back to the container duration.
	if format, ok := data["format"].(map[string]interface{}); ok {
		if durationStr, ok := format["duration"].(string); ok {
			if d, err := strconv.ParseFloat(strings.TrimSpace(durationStr), 64); err == nil && d > 0 {
				return d
			}
		}
	}

	// Last resort: derive it from the frame count and frame rate.
	if nbFrames, ok := stream["nb_frames"].(string); ok {
		if frames, err := strconv.ParseFloat(nbFrames, 64); err == nil {
			if rate := extractFrameRate(stream); rate > 0 {
				return frames / rate
			}
		}
	}

	return 0
}

func extractFrameRate(stream map[string]interface{}) float64 {
	rFrameRate, ok := stream["r_frame_rate"].(string)
	if !ok {
		return 0
	}
	nums := strings.Split(rFrameRate, "/")
	if len(nums) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(nums[0], 64)
	den, err2 := strconv.ParseFloat(nums[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// GetOptimalThreadCount returns the encoder thread count.
func GetOptimalThreadCount() int {
	cpuCount := runtime.NumCPU()
	// Use 75% of available cores to prevent overload
	return int(math.Max(1, float64(cpuCount)*0.75))
}

// EnsureExtension replaces any known video extension with the given one.
func EnsureExtension(filename, extension string) string {
	extensions := []string{".mp4", ".webm", ".mkv", ".avi", ".mov"}
	for _, ext := range extensions {
		filename = strings.TrimSuffix(filename, ext)
	}
	return filename + extension
}

// FormatSeconds renders a float second count the way ffmpeg expects it.
func FormatSeconds(seconds float64) string {
	return fmt.Sprintf("%.3f", seconds)
}

package background

import (
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/dmarier/shortreel/internal/logging"
)

// ErrNoBackgroundFound means no usable clip exists for the request.
var ErrNoBackgroundFound = errors.New("no background video found")

var videoExtensions = []string{".mp4", ".avi", ".mov", ".mkv", ".wmv"}

// IsVideoFile reports whether path has a recognized video extension.
func IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, known := range videoExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// List returns the video files directly inside folder, sorted by name.
func List(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, errors.Wrapf(err, "read background folder %s", folder)
	}

	var clips []string
	for _, entry := range entries {
		if entry.IsDir() || !IsVideoFile(entry.Name()) {
			continue
		}
		clips = append(clips, filepath.Join(folder, entry.Name()))
	}
	sort.Strings(clips)
	return clips, nil
}

// Select resolves name to a clip path inside folder. An empty name or
// "random" picks uniformly from the folder. A name whose extension does not
// match any file falls back to the same base name with any known extension.
func Select(folder, name string, rng *rand.Rand) (string, error) {
	log := logging.WithComponent("background")

	if name == "" || strings.EqualFold(name, "random") {
		clips, err := List(folder)
		if err != nil {
			return "", err
		}
		if len(clips) == 0 {
			return "", errors.Wrapf(ErrNoBackgroundFound, "folder %s has no video files", folder)
		}
		pick := clips[rng.Intn(len(clips))]
		log.Debug().Str("clip", pick).Msg("selected random background")
		return pick, nil
	}

	direct := filepath.Join(folder, name)
	if info, err := os.Stat(direct); err == nil && !info.IsDir() {
		return direct, nil
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, ext := range videoExtensions {
		candidate := filepath.Join(folder, base+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			log.Debug().Str("requested", name).Str("clip", candidate).Msg("matched background by base name")
			return candidate, nil
		}
	}

	return "", errors.Wrapf(ErrNoBackgroundFound, "no clip named %q in %s", name, folder)
}

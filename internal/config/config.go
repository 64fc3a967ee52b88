package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Config holds the pipeline configuration.
type Config struct {
	InputFolder     string   `toml:"input_folder"`
	OutputFolder    string   `toml:"output_folder"`
	BackgroundVideo string   `toml:"background_video"` // file name inside InputFolder, or "random"
	SubtitleStyle   string   `toml:"subtitle_style"`
	Voice           string   `toml:"voice"`
	Topic           string   `toml:"topic"` // empty selects a random topic
	Model           string   `toml:"model"`
	FactsDB         string   `toml:"facts_db"`
	LogLevel        string   `toml:"log_level"`
	Topics          []string `toml:"topics"`

	// OpenAIAPIKey is only read from the environment, never from the file.
	OpenAIAPIKey string `toml:"-"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		InputFolder:     "input_videos",
		OutputFolder:    "output_videos",
		BackgroundVideo: "random",
		SubtitleStyle:   "ultra_vibrant",
		Voice:           "alloy",
		Model:           "gpt-4o-mini",
		FactsDB:         "facts.db",
		LogLevel:        "info",
		Topics: []string{
			"Space and Astronomy",
			"Ocean and Marine Life",
			"Human Body",
			"Ancient History",
			"Technology",
			"Animals",
			"Food and Nutrition",
			"Psychology",
			"Geography",
			"Science Discoveries",
			"Art and Culture",
			"Sports",
			"Music",
			"Weather and Climate",
			"Inventions",
			"Amazing Nature Facts",
			"Mind-Blowing Physics",
			"Historical Mysteries",
			"Future Technology",
			"Bizarre World Records",
		},
	}
}

// Load reads the configuration file at path, falling back to defaults when the
// file does not exist. The OpenAI API key always comes from the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(raw, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", path)
			}
		case errors.Is(err, fs.ErrNotExist):
			// Defaults apply when the file is absent.
		default:
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks for values the pipeline cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.InputFolder) == "" {
		return errors.New("config: input_folder must not be empty")
	}
	if strings.TrimSpace(c.OutputFolder) == "" {
		return errors.New("config: output_folder must not be empty")
	}
	if strings.TrimSpace(c.BackgroundVideo) == "" {
		return errors.New("config: background_video must not be empty")
	}
	if strings.TrimSpace(c.SubtitleStyle) == "" {
		return errors.New("config: subtitle_style must not be empty")
	}
	if len(c.Topics) == 0 {
		return errors.New("config: topics must not be empty")
	}
	return nil
}

// EnsureDirectories creates the input and output folders if needed.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.InputFolder, c.OutputFolder} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create directory %s", dir)
		}
	}
	if dir := filepath.Dir(c.FactsDB); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create directory %s", dir)
		}
	}
	return nil
}

package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dmarier/shortreel/internal/background"
	"github.com/dmarier/shortreel/internal/compositor"
	"github.com/dmarier/shortreel/internal/config"
	"github.com/dmarier/shortreel/internal/factstore"
	ffmpegWrap "github.com/dmarier/shortreel/internal/ffmpeg"
	"github.com/dmarier/shortreel/internal/logging"
	"github.com/dmarier/shortreel/internal/script"
	"github.com/dmarier/shortreel/internal/speech"
	"github.com/dmarier/shortreel/internal/subtitle"
	"github.com/dmarier/shortreel/pkg/pipeline"
)

var (
	rootCmd = &cobra.Command{
		Use:   "shortreel",
		Short: "An automated producer of short vertical fact videos",
		Long: `shortreel generates narrated fact videos for vertical (9:16) formats.
It writes a script with an LLM, synthesizes speech, times subtitles to the
narration, fits a background clip into a 1080x1920 frame, and renders the
composited MP4.

Examples:
  # Produce one video with a random topic and background
  shortreel generate

  # Produce a video about a fixed topic with a named background
  shortreel generate --topic "deep sea creatures" --background gameplay.mp4

  # Composite existing narration and script text over a background
  shortreel compose --audio voice.mp3 --text "Did you know..."`,
	}

	generateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate a complete fact video from scratch",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyOverrides(cmd, cfg)

			store, err := factstore.Open(cfg.FactsDB)
			if err != nil {
				return err
			}
			defer store.Close()

			scripts, err := script.New(cfg.OpenAIAPIKey, cfg.Model, cfg.Topics, store)
			if err != nil {
				return err
			}
			synth, err := speech.New(cfg.OpenAIAPIKey)
			if err != nil {
				return err
			}

			p := pipeline.New(cfg, pipeline.Deps{
				Scripts:    scripts,
				Speech:     synth,
				Compositor: compositor.New(nil),
				Rand:       newRand(cmd),
			})

			result, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Topic: %s\n", result.Script.Topic)
			fmt.Printf("Video: %s (%.1fs)\n", result.Video.Path, result.Video.Duration)
			return nil
		},
	}

	composeCmd = &cobra.Command{
		Use:   "compose",
		Short: "Composite existing narration audio and script text into a video",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyOverrides(cmd, cfg)

			audioPath, _ := cmd.Flags().GetString("audio")
			text, _ := cmd.Flags().GetString("text")
			textFile, _ := cmd.Flags().GetString("text-file")
			outputPath, _ := cmd.Flags().GetString("output")

			if text == "" && textFile != "" {
				data, err := os.ReadFile(textFile)
				if err != nil {
					return err
				}
				text = string(data)
			}

			p := pipeline.New(cfg, pipeline.Deps{
				Compositor: compositor.New(nil),
				Rand:       newRand(cmd),
			})

			out, err := p.ComposeExisting(cmd.Context(), audioPath, text, outputPath)
			if err != nil {
				return err
			}
			fmt.Printf("Video: %s (%.1fs)\n", out.Path, out.Duration)
			return nil
		},
	}

	clipsCmd = &cobra.Command{
		Use:   "clips",
		Short: "List available background clips",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			clips, err := background.List(cfg.InputFolder)
			if err != nil {
				return err
			}
			if len(clips) == 0 {
				fmt.Printf("No video files in %s\n", cfg.InputFolder)
				return nil
			}

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"CLIP", "RESOLUTION", "DURATION", "CODEC"})
			for _, clip := range clips {
				resolution, duration, codec := "-", "-", "-"
				if meta, err := ffmpegWrap.ProbeVideo(clip); err == nil {
					resolution = fmt.Sprintf("%dx%d", meta.Width, meta.Height)
					duration = fmt.Sprintf("%.1fs", meta.Duration)
					codec = meta.Codec
				}
				tw.AppendRow(table.Row{filepath.Base(clip), resolution, duration, codec})
			}
			fmt.Println(tw.Render())
			return nil
		},
	}

	stylesCmd = &cobra.Command{
		Use:   "styles",
		Short: "List subtitle style presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"STYLE", "FONT", "SIZE", "FILL", "OUTLINE", "ANCHOR", "ANIMATION"})
			for _, name := range subtitle.Names() {
				spec, err := subtitle.Resolve(name)
				if err != nil {
					return err
				}
				tw.AppendRow(table.Row{
					name,
					spec.Font,
					spec.FontSize,
					spec.FillColor,
					spec.OutlineColor,
					string(spec.Anchor),
					string(spec.Animation),
				})
			}
			fmt.Println(tw.Render())
			return nil
		},
	}
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	godotenv.Load()

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	logging.Init(cfg.LogLevel, verbose)
	return cfg, nil
}

func applyOverrides(cmd *cobra.Command, cfg *config.Config) {
	if topic, _ := cmd.Flags().GetString("topic"); topic != "" {
		cfg.Topic = topic
	}
	if style, _ := cmd.Flags().GetString("style"); style != "" {
		cfg.SubtitleStyle = style
	}
	if bg, _ := cmd.Flags().GetString("background"); bg != "" {
		cfg.BackgroundVideo = bg
	}
}

func newRand(cmd *cobra.Command) *rand.Rand {
	seed, _ := cmd.Flags().GetInt64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "config.toml", "Path to the TOML configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	generateCmd.Flags().String("topic", "", "Topic for the script (default: random from the configured list)")
	generateCmd.Flags().String("style", "", "Subtitle style preset")
	generateCmd.Flags().String("background", "", "Background clip name, or 'random'")
	generateCmd.Flags().Int64("seed", 0, "Random seed for reproducible runs (0 uses the clock)")

	composeCmd.Flags().String("audio", "", "Existing narration audio file")
	composeCmd.Flags().String("text", "", "Script text for the subtitles")
	composeCmd.Flags().String("text-file", "", "File containing the script text")
	composeCmd.Flags().StringP("output", "o", "", "Output video path (default: derived from the audio name)")
	composeCmd.Flags().String("style", "", "Subtitle style preset")
	composeCmd.Flags().String("background", "", "Background clip name, or 'random'")
	composeCmd.Flags().Int64("seed", 0, "Random seed for reproducible runs (0 uses the clock)")

	composeCmd.MarkFlagRequired("audio")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(clipsCmd)
	rootCmd.AddCommand(stylesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Command say synthesizes text with the configured synthesis backend and
// writes the MP3 to a file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/suara/domain/entities"
	"github.com/satriahrh/suara/internal/backends"
	"github.com/satriahrh/suara/internal/config"
)

var (
	outputFile string
	voice      string
	backend    string
	autoplay   bool
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "say [text]",
	Short: "Synthesize text to an MP3 file",
	Long: `Say converts text to speech with the synthesis backend selected by
SYNTHESIS_BACKEND (or --backend) and writes the audio to a file.

Text is read from the arguments, or from stdin when none are given.`,
	RunE: runSay,
}

func init() {
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "response.mp3", "output file")
	rootCmd.Flags().StringVar(&voice, "voice", string(entities.VoiceFemale), "voice identity (female or male)")
	rootCmd.Flags().StringVar(&backend, "backend", "", "synthesis backend, overrides SYNTHESIS_BACKEND")
	rootCmd.Flags().BoolVar(&autoplay, "play", false, "play the file after writing it")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "synthesis timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSay(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	text := strings.Join(args, " ")
	if text == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = strings.TrimSpace(string(data))
	}
	if text == "" {
		return fmt.Errorf("no text to synthesize")
	}

	if backend != "" {
		os.Setenv("SYNTHESIS_BACKEND", backend)
	}
	// Only synthesis runs here; the other stages need no credentials.
	os.Setenv("TRANSCRIPTION_BACKEND", config.BackendMock)
	os.Setenv("COMPLETION_BACKEND", config.BackendMock)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	synthesizer, err := backends.NewTextToSpeech(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create synthesis backend: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	logger.Info("Converting text to speech",
		zap.String("backend", synthesizer.Name()),
		zap.String("voiceID", voice),
		zap.Int("textLength", len(text)))

	audio, err := synthesizer.Synthesize(ctx, text, entities.VoiceID(voice), cfg.DefaultSettings.Language)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputFile, audio.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Audio saved to %s (%d bytes)\n", outputFile, len(audio.Data))

	if autoplay {
		if err := play(outputFile, logger); err != nil {
			logger.Warn("Failed to play audio automatically", zap.Error(err))
		}
	}
	return nil
}

// play tries the players commonly available for MP3 files
func play(filename string, logger *zap.Logger) error {
	players := [][]string{
		{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
		{"afplay"},
		{"mpg123", "-q"},
		{"play", "-q"},
	}
	for _, player := range players {
		if _, err := exec.LookPath(player[0]); err != nil {
			continue
		}
		args := append(player[1:], filename)
		logger.Info("Playing audio", zap.String("player", player[0]))
		if err := exec.Command(player[0], args...).Run(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no suitable audio player found")
}

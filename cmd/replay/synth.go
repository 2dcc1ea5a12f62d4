package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/posturai/internal/adapters/codec"
	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/internal/replay"
	"github.com/spf13/cobra"
)

const outputDirPermission = 0o750

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Write a synthetic recording",
	Long:  "Writes a recording of clean poses with the requested number of violating frames spread evenly. The format follows the file extension unless --format is given.",
	RunE:  runSynth,
}

var (
	synthOut       string
	synthMode      string
	synthFormat    string
	synthFrames    int
	synthViolating int
)

func init() {
	synthCmd.Flags().StringVarP(&synthOut, "out", "o", "", "Path to the output recording (required)")
	synthCmd.Flags().StringVarP(&synthMode, "mode", "m", "desk", "Rule set: desk or squat")
	synthCmd.Flags().StringVar(&synthFormat, "format", "", "Encoding: jsonl or msgpack (default from extension)")
	synthCmd.Flags().IntVarP(&synthFrames, "frames", "n", 10, "Number of frames")
	synthCmd.Flags().IntVar(&synthViolating, "violating", 0, "Number of violating frames")

	if err := synthCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(synthCmd)
}

func runSynth(cmd *cobra.Command, _ []string) error {
	mode, err := model.ParseMode(synthMode)
	if err != nil {
		return err
	}

	var format codec.Format
	if synthFormat != "" {
		format, err = codec.ParseFormat(synthFormat)
	} else {
		format, err = codec.FormatFromPath(synthOut)
	}
	if err != nil {
		return err
	}

	// Ensure output directory exists
	if dir := filepath.Dir(synthOut); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, outputDirPermission); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(synthOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", synthOut, err)
	}
	w, err := codec.NewWriter(f, format)
	if err != nil {
		_ = f.Close()
		return err
	}
	if err := replay.Synthesize(w, replay.SynthConfig{Mode: mode, Frames: synthFrames, Violating: synthViolating}); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", synthOut, err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d frames (%d violating) to %s\n", synthFrames, synthViolating, synthOut)
	return nil
}

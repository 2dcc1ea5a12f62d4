package main

import (
	"fmt"

	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/internal/replay"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Stream a recording through a posture session",
	Long:  "Reads a JSON Lines or msgpack recording, evaluates every frame and prints the session summary as JSON. With --verbose every frame result is printed first.",
	RunE:  runReplay,
}

var (
	runFile       string
	runMode       string
	runFPS        int
	runVisibility float64
	runVerbose    bool
)

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "Path to the recording (.jsonl, .msgpack, .mpk) (required)")
	runCmd.Flags().StringVarP(&runMode, "mode", "m", "desk", "Rule set: desk or squat")
	runCmd.Flags().IntVar(&runFPS, "fps", 10, "Frame rate used for the session duration")
	runCmd.Flags().Float64Var(&runVisibility, "visibility", model.DefaultVisibilityThreshold, "Minimum landmark visibility")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print every frame result")

	if err := runCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	rootCmd.AddCommand(runCmd)
}

func runReplay(cmd *cobra.Command, _ []string) error {
	mode, err := model.ParseMode(runMode)
	if err != nil {
		return err
	}
	_, err = replay.Run(cmd.Context(), replay.Config{
		File:       runFile,
		Mode:       mode,
		FPS:        runFPS,
		Visibility: runVisibility,
		Verbose:    runVerbose,
		Out:        cmd.OutOrStdout(),
	})
	return err
}

package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/posturai/internal/adapters/codec"
	"github.com/okian/posturai/internal/domain/keypoints"
	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/internal/domain/rules"
	"github.com/okian/posturai/internal/stream"
	"github.com/okian/posturai/pkg/logger"
)

// Run replays cfg.File through a fresh session and writes the report as
// JSON to cfg.Out.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if cfg.File == "" {
		return Report{}, ErrNoInput
	}
	format, err := codec.FormatFromPath(cfg.File)
	if err != nil {
		return Report{}, err
	}
	f, err := os.Open(cfg.File)
	if err != nil {
		return Report{}, fmt.Errorf("open recording: %w", err)
	}
	defer func() { _ = f.Close() }()

	r, err := codec.NewReader(f, format)
	if err != nil {
		return Report{}, err
	}
	return Replay(ctx, r, cfg)
}

// Replay streams every frame of r through a session.
func Replay(ctx context.Context, r codec.Reader, cfg Config) (Report, error) {
	log := logger.GetOrNop().Named("replay")
	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	enc := json.NewEncoder(out)

	visibility := cfg.Visibility
	if visibility == 0 {
		visibility = model.DefaultVisibilityThreshold
	}

	var report Report
	id := "replay"
	if cfg.File != "" {
		id = "replay-" + strings.TrimSuffix(filepath.Base(cfg.File), filepath.Ext(cfg.File))
	}
	ctrl := stream.New(cfg.Mode,
		stream.WithID(id),
		stream.WithEngine(rules.NewEngine(rules.WithVisibilityThreshold(visibility))),
		stream.WithAssumedFPS(cfg.FPS),
		stream.WithSink(stream.SinkFunc(func(context.Context, stream.Event) error {
			report.Violations++
			return nil
		})),
		stream.WithLogger(log),
	)
	if err := ctrl.Start(); err != nil {
		return report, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		frame, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, fmt.Errorf("read frame %d: %w", report.FramesRead+1, err)
		}
		report.FramesRead++

		res, err := ctrl.Process(ctx, frame.Landmarks)
		if err != nil {
			if !errors.Is(err, keypoints.ErrUnavailable) {
				return report, err
			}
			report.Skipped++
			log.Debug(ctx, "frame skipped",
				logger.Uint64("seq", frame.Seq),
				logger.Int("landmarks", len(frame.Landmarks)))
		}
		if cfg.Verbose {
			if err := enc.Encode(res); err != nil {
				return report, fmt.Errorf("write frame result: %w", err)
			}
		}
	}

	sum, err := ctrl.End()
	if err != nil {
		return report, err
	}
	report.Summary = sum
	log.Info(ctx, "replay finished",
		logger.Int("frames", report.FramesRead),
		logger.Int("skipped", report.Skipped),
		logger.Int("accuracy", sum.Stats.AccuracyPercent))

	if err := enc.Encode(report); err != nil {
		return report, fmt.Errorf("write report: %w", err)
	}
	return report, nil
}

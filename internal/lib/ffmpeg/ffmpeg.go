package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	ffmpeg_go "github.com/u2takey/ffmpeg-go"

	"github.com/GintGld/video-splitter/internal/lib/logger/sl"
)

// FFmpeg shells out to ffmpeg/ffprobe. It implements both
// split.MediaProbe and split.MediaExtractor.
type FFmpeg struct {
	log *slog.Logger
}

func New(log *slog.Logger) *FFmpeg {
	return &FFmpeg{
		log: log,
	}
}

// Duration returns the container duration of the file in seconds.
func (f *FFmpeg) Duration(_ context.Context, path string) (float64, error) {
	const op = "FFmpeg.Duration"

	log := f.log.With(
		slog.String("op", op),
		slog.String("file", path),
	)

	out, err := ffmpeg_go.Probe(path)
	if err != nil {
		log.Error("ffprobe failed", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(out), &probe); err != nil {
		log.Error("failed to parse ffprobe output", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		log.Error(
			"got invalid duration from metadata",
			slog.String("value", probe.Format.Duration),
			sl.Err(err),
		)
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("probed duration", slog.Float64("duration", duration))

	return duration, nil
}

// Extract stream-copies the [start, end) range of inputPath into
// outputPath. Returns ffmpeg stderr so the caller can attach
// diagnostics to an error.
func (f *FFmpeg) Extract(_ context.Context, inputPath string, start, end float64, outputPath string) (string, error) {
	const op = "FFmpeg.Extract"

	log := f.log.With(
		slog.String("op", op),
		slog.String("input", inputPath),
		slog.String("output", outputPath),
	)

	var stderr bytes.Buffer

	err := ffmpeg_go.Input(inputPath).
		Output(outputPath, ffmpeg_go.KwArgs{
			"ss": formatSeconds(start),
			"t":  formatSeconds(end - start),
			"c":  "copy",
		}).
		OverWriteOutput().
		GlobalArgs("-hide_banner", "-loglevel", "warning").
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		log.Error("ffmpeg failed", slog.String("stderr", stderr.String()), sl.Err(err))
		return stderr.String(), fmt.Errorf("%s: %w", op, err)
	}

	log.Debug(
		"extracted segment",
		slog.Float64("start", start),
		slog.Float64("end", end),
	)

	return stderr.String(), nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 6, 64)
}

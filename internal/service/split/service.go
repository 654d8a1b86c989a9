package split

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/GintGld/video-splitter/internal/lib/logger/sl"
	"github.com/GintGld/video-splitter/internal/models"
	"github.com/GintGld/video-splitter/internal/service"
)

// Splitter cuts a source video into equal-duration parts.
type Splitter struct {
	log       *slog.Logger
	probe     MediaProbe
	extractor MediaExtractor
}

type MediaProbe interface {
	// Duration returns total duration of the file in seconds.
	Duration(ctx context.Context, path string) (float64, error)
}

type MediaExtractor interface {
	// Extract writes the [start, end) range of inputPath to outputPath.
	// The returned string is the tool diagnostic output, filled
	// whether or not the call succeeded.
	Extract(ctx context.Context, inputPath string, start, end float64, outputPath string) (string, error)
}

func New(
	log *slog.Logger,
	probe MediaProbe,
	extractor MediaExtractor,
) *Splitter {
	return &Splitter{
		log:       log,
		probe:     probe,
		extractor: extractor,
	}
}

// Split validates the request, probes the source duration and extracts
// parts segments into outDir. Returns segments produced so far, so on
// an extraction failure the caller still sees which parts exist.
//
// The output directory is created only after validation and probing
// succeed. Partial outputs of a failed run are left in place.
func (s *Splitter) Split(ctx context.Context, inputPath, outDir string, parts int) ([]models.Segment, error) {
	const op = "Splitter.Split"

	log := s.log.With(
		slog.String("op", op),
		slog.String("input", inputPath),
		slog.Int("parts", parts),
	)

	if parts < models.MinParts || parts > models.MaxParts {
		log.Warn("rejected part count")
		return nil, fmt.Errorf("%s: %w", op, service.ErrBadPartCount)
	}

	if info, err := os.Stat(inputPath); err != nil || info.IsDir() {
		log.Warn("source file not readable")
		return nil, fmt.Errorf("%s: %w", op, service.ErrSourceNotFound)
	}

	duration, err := s.probe.Duration(ctx, inputPath)
	if err != nil {
		log.Error("failed to probe duration", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, service.ErrProbe)
	}
	if duration <= 0 {
		log.Error("got non-positive duration", slog.Float64("duration", duration))
		return nil, fmt.Errorf("%s: %w", op, service.ErrProbe)
	}

	log.Info("probed duration", slog.Float64("duration", duration))

	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Error("failed to create output dir", slog.String("dir", outDir), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	segments := ComputeSegments(duration, parts)
	done := make([]models.Segment, 0, parts)

	for i, seg := range segments {
		seg.File = partFileName(inputPath, i, parts)

		out, err := s.extractSegment(ctx, inputPath, filepath.Join(outDir, seg.File), seg)
		if err != nil {
			log.Error(
				"failed to extract segment",
				slog.Int("index", i),
				sl.Err(err),
			)
			return done, fmt.Errorf("%s: %w", op, &service.ExtractionError{
				Index:  i,
				Output: out,
				Err:    err,
			})
		}

		done = append(done, seg)
	}

	log.Info("split finished", slog.Int("segments", len(done)))

	return done, nil
}

// extractSegment materializes a single segment. It is independent of
// the other segments, so a caller may fan extractions out without
// touching the partition math.
func (s *Splitter) extractSegment(ctx context.Context, inputPath, outPath string, seg models.Segment) (string, error) {
	return s.extractor.Extract(ctx, inputPath, seg.Start, seg.End, outPath)
}

// ComputeSegments partitions [0, duration) into parts contiguous
// ranges of equal length. The last segment ends exactly at duration,
// absorbing any floating-point remainder.
func ComputeSegments(duration float64, parts int) []models.Segment {
	segLen := duration / float64(parts)

	segments := make([]models.Segment, parts)
	for i := range segments {
		end := float64(i+1) * segLen
		if i == parts-1 {
			end = duration
		}
		segments[i] = models.Segment{
			Index: i,
			Start: float64(i) * segLen,
			End:   end,
		}
	}

	return segments
}

func partFileName(inputPath string, index, parts int) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	return fmt.Sprintf("%s_part%d-of-%d%s", stem, index+1, parts, ext)
}

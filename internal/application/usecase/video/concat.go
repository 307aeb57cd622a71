package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/internal/domain/content"
	"github.com/khoahotran/reel-forge/pkg/apperror"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"go.uber.org/zap"
)

type ConcatStrategy string

const (
	StrategyAuto   ConcatStrategy = "auto"
	StrategyStream ConcatStrategy = "stream"
	StrategyFilter ConcatStrategy = "filter"
)

func ParseConcatStrategy(s string) (ConcatStrategy, error) {
	switch ConcatStrategy(s) {
	case "", StrategyAuto:
		return StrategyAuto, nil
	case StrategyStream, StrategyFilter:
		return ConcatStrategy(s), nil
	}
	return "", fmt.Errorf("unknown concat strategy %q", s)
}

// EncodeProfile holds the encoder settings for one content type.
type EncodeProfile struct {
	Name             string
	Preset           string
	CRF              int
	AudioFilter      string
	CrossfadeSeconds float64
}

var (
	reelProfile = EncodeProfile{
		Name:             "reel",
		Preset:           "fast",
		CRF:              20,
		AudioFilter:      "aresample=async=1:first_pts=0,acompressor=threshold=-18dB:ratio=2:attack=20:release=250,highpass=f=60,lowpass=f=14000",
		CrossfadeSeconds: 0.05,
	}
	storyProfile = EncodeProfile{
		Name:             "story",
		Preset:           "slow",
		CRF:              18,
		AudioFilter:      "aresample=async=1000:first_pts=0,acompressor=threshold=-22dB:ratio=3:attack=40:release=500,highpass=f=80,lowpass=f=12000,dynaudnorm=f=250:g=15",
		CrossfadeSeconds: 0.15,
	}
)

func ProfileFor(ct content.ContentType) EncodeProfile {
	if ct == content.TypeStory {
		return storyProfile
	}
	return reelProfile
}

const (
	frameRate = "30"
	gopSize   = "30"
)

type ConcatenationEngine struct {
	ffmpeg   service.FFmpegRunner
	tempDir  string
	strategy ConcatStrategy
	logger   logger.Logger
}

func NewConcatenationEngine(ffmpeg service.FFmpegRunner, tempDir string, strategy ConcatStrategy, log logger.Logger) *ConcatenationEngine {
	return &ConcatenationEngine{ffmpeg: ffmpeg, tempDir: tempDir, strategy: strategy, logger: log}
}

// Concatenate joins ordered segment videos into one. Temporary files are
// removed whether or not encoding succeeds.
func (e *ConcatenationEngine) Concatenate(ctx context.Context, contentID int64, ct content.ContentType, buffers [][]byte) ([]byte, error) {
	if len(buffers) == 0 {
		return nil, apperror.NewInvalidInput("at least one segment video is required", nil)
	}
	for i, b := range buffers {
		if len(b) == 0 {
			return nil, apperror.NewInvalidInput(fmt.Sprintf("segment %d video is empty", i+1), nil)
		}
	}

	l := e.logger.With(zap.Int64("content_id", contentID), zap.Int("segment_count", len(buffers)))
	profile := ProfileFor(ct)

	if err := os.MkdirAll(e.tempDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create temp dir: %v", ErrConcatenation, err)
	}
	workDir, err := os.MkdirTemp(e.tempDir, fmt.Sprintf("concat-%d-", contentID))
	if err != nil {
		return nil, fmt.Errorf("%w: create workdir: %v", ErrConcatenation, err)
	}
	defer os.RemoveAll(workDir)

	inputs := make([]string, len(buffers))
	for i, b := range buffers {
		inputs[i] = filepath.Join(workDir, fmt.Sprintf("segment_%d.mp4", i+1))
		if err := os.WriteFile(inputs[i], b, 0644); err != nil {
			return nil, fmt.Errorf("%w: write segment %d: %v", ErrConcatenation, i+1, err)
		}
	}

	switch e.strategy {
	case StrategyStream:
		return e.streamJoin(ctx, workDir, inputs, profile)
	case StrategyFilter:
		return e.filterGraph(ctx, workDir, inputs, profile)
	}

	out, streamErr := e.streamJoin(ctx, workDir, inputs, profile)
	if streamErr == nil {
		return out, nil
	}
	l.Warn("Stream join failed, falling back to filter graph", zap.Error(streamErr))
	out, filterErr := e.filterGraph(ctx, workDir, inputs, profile)
	if filterErr != nil {
		return nil, errors.Join(streamErr, filterErr)
	}
	return out, nil
}

func (e *ConcatenationEngine) streamJoin(ctx context.Context, workDir string, inputs []string, p EncodeProfile) ([]byte, error) {
	lines := make([]string, len(inputs))
	for i, in := range inputs {
		lines[i] = fmt.Sprintf("file '%s'", in)
	}
	manifest := filepath.Join(workDir, "concat_list.txt")
	if err := os.WriteFile(manifest, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("%w: write manifest: %v", ErrConcatenation, err)
	}

	out := filepath.Join(workDir, "joined_stream.mp4")
	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", manifest}
	args = append(args, videoEncodeArgs(p)...)
	args = append(args, "-af", p.AudioFilter)
	args = append(args, audioEncodeArgs()...)
	args = append(args, out)

	if err := e.ffmpeg.Run(ctx, args...); err != nil {
		return nil, fmt.Errorf("%w: stream join: %v", ErrConcatenation, err)
	}
	return readOutput(out)
}

func (e *ConcatenationEngine) filterGraph(ctx context.Context, workDir string, inputs []string, p EncodeProfile) ([]byte, error) {
	args := []string{"-y"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}

	out := filepath.Join(workDir, "joined_filter.mp4")
	args = append(args, "-filter_complex", buildFilterGraph(len(inputs), p), "-map", "[v]", "-map", "[a]")
	args = append(args, videoEncodeArgs(p)...)
	args = append(args, audioEncodeArgs()...)
	args = append(args, out)

	if err := e.ffmpeg.Run(ctx, args...); err != nil {
		return nil, fmt.Errorf("%w: filter graph: %v", ErrConcatenation, err)
	}
	return readOutput(out)
}

// buildFilterGraph concatenates video streams directly and chains audio
// streams through short crossfades so the boundaries do not click.
func buildFilterGraph(n int, p EncodeProfile) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "[%d:v]", i)
	}
	fmt.Fprintf(&sb, "concat=n=%d:v=1:a=0,fps=%s,format=yuv420p[v];", n, frameRate)

	last := "[0:a]"
	d := strconv.FormatFloat(p.CrossfadeSeconds, 'f', -1, 64)
	for i := 1; i < n; i++ {
		label := fmt.Sprintf("[a%d]", i)
		fmt.Fprintf(&sb, "%s[%d:a]acrossfade=d=%s:c1=tri:c2=tri%s;", last, i, d, label)
		last = label
	}
	fmt.Fprintf(&sb, "%s%s[a]", last, p.AudioFilter)
	return sb.String()
}

func videoEncodeArgs(p EncodeProfile) []string {
	return []string{
		"-c:v", "libx264",
		"-preset", p.Preset,
		"-crf", strconv.Itoa(p.CRF),
		"-pix_fmt", "yuv420p",
		"-r", frameRate,
		"-g", gopSize,
		"-keyint_min", gopSize,
		"-sc_threshold", "0",
	}
}

func audioEncodeArgs() []string {
	return []string{"-c:a", "aac", "-b:a", "192k", "-ar", "48000", "-movflags", "+faststart"}
}

func readOutput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", ErrConcatenation, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: encoder produced an empty file", ErrConcatenation)
	}
	return data, nil
}

package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"go.uber.org/zap"
)

// Keep only the tail of ffmpeg's output in errors; the banner is noise.
const maxOutputInError = 2000

type Runner struct {
	binary string
	log    logger.Logger
}

var _ service.FFmpegRunner = (*Runner)(nil)

func NewRunner(binary string, log logger.Logger) *Runner {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Runner{binary: binary, log: log}
}

// Check fails fast at startup when the binary is missing.
func (r *Runner) Check(ctx context.Context) error {
	if _, err := exec.LookPath(r.binary); err != nil {
		return fmt.Errorf("ffmpeg binary %q not found: %w", r.binary, err)
	}
	return exec.CommandContext(ctx, r.binary, "-hide_banner", "-version").Run()
}

func (r *Runner) Run(ctx context.Context, args ...string) error {
	full := append([]string{"-hide_banner", "-loglevel", "error"}, args...)
	cmd := exec.CommandContext(ctx, r.binary, full...)

	r.log.Debug("Running ffmpeg", zap.Strings("args", full))
	output, err := cmd.CombinedOutput()
	if err != nil {
		out := strings.TrimSpace(string(output))
		if len(out) > maxOutputInError {
			out = "..." + out[len(out)-maxOutputInError:]
		}
		return fmt.Errorf("ffmpeg error: %w, output: %s", err, out)
	}
	return nil
}

package service

import "context"

type FFmpegRunner interface {
	Run(ctx context.Context, args ...string) error
}

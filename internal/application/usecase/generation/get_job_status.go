package generation

import (
	"context"

	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/pkg/apperror"
)

type GetJobStatusUseCase struct {
	jobs service.JobStatusStore
	lock service.AdmissionLock
}

func NewGetJobStatusUseCase(jobs service.JobStatusStore, lock service.AdmissionLock) *GetJobStatusUseCase {
	return &GetJobStatusUseCase{jobs: jobs, lock: lock}
}

func (uc *GetJobStatusUseCase) Execute(ctx context.Context, jobID string) (*service.JobStatus, error) {
	s, err := uc.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, apperror.NewUnavailable("failed to read job status", err)
	}
	if s == nil {
		return nil, apperror.NewNotFound("job", jobID)
	}
	return s, nil
}

// LockHolder returns the job currently admitted, or nil when the slot is free.
func (uc *GetJobStatusUseCase) LockHolder(ctx context.Context) (*service.LockHolder, error) {
	h, err := uc.lock.Holder(ctx)
	if err != nil {
		return nil, apperror.NewUnavailable("failed to read admission lock", err)
	}
	return h, nil
}

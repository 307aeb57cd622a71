package service

import "context"

type VideoRequest struct {
	Prompt            string
	DurationSeconds   int
	AspectRatio       string
	Seed              uint32
	ReferenceImageURI string
	// OutputURI is the storage prefix the provider writes results under.
	OutputURI string
}

// SubmitResult carries exactly one of: an operation handle, an inline payload, or a rejection.
type SubmitResult struct {
	OperationHandle string
	Payload         []byte
	Rejected        bool
	Reasons         []string
}

type PollResult struct {
	Done      bool
	RemoteURI string
	Payload   []byte
	Rejected  bool
	Reasons   []string
	Error     string
}

type VideoGenerator interface {
	Submit(ctx context.Context, req VideoRequest) (*SubmitResult, error)
	Poll(ctx context.Context, operationHandle string) (*PollResult, error)
}

package video

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/internal/domain/segment"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type OrchestratorSuite struct {
	suite.Suite
	events *eventLog
	repo   *memSegmentRepo
	gen    *fakeGenerator
	frames *fakeFrames
	store  *memStore
	orch   *SegmentOrchestrator
}

func (s *OrchestratorSuite) SetupTest() {
	s.events = &eventLog{}
	s.repo = newMemSegmentRepo(s.events)
	s.gen = newFakeGenerator(s.events)
	s.frames = &fakeFrames{events: s.events}
	s.store = newMemStore()

	sanitizer, err := NewSanitizer()
	s.Require().NoError(err)

	cfg := OrchestratorConfig{
		PollInterval:    time.Millisecond,
		PollMaxAttempts: 3,
		WaitInterval:    time.Millisecond,
		WaitTimeout:     50 * time.Millisecond,
	}
	s.orch = NewSegmentOrchestrator(s.repo, s.gen, s.frames, s.store, sanitizer, cfg, logger.NewNop())
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

func prompts(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "A presenter (smiling warmly) explains a very simple idea in 8 seconds, part " + string(rune('A'+i))
	}
	return out
}

func (s *OrchestratorSuite) run(n int) ([]*segment.VideoSegment, error) {
	return s.orch.Run(context.Background(), OrchestrateInput{ContentID: 1, Prompts: prompts(n), AspectRatio: "9:16"})
}

func (s *OrchestratorSuite) TestSequentialWithContinuity() {
	segs, err := s.run(3)

	s.Require().NoError(err)
	s.Require().Len(segs, 3)
	for i, seg := range segs {
		s.Equal(i+1, seg.SegmentNumber)
		s.Equal(segment.StatusCompleted, seg.Status)
		s.Require().NotNil(seg.RemoteURI)
		s.Nil(seg.OperationHandle)
	}

	s.Equal([]string{
		"submit:1", "completed:1",
		"frame:1", "submit:2", "completed:2",
		"frame:2", "submit:3", "completed:3",
	}, s.events.list())

	seed := SeedForContent(1)
	s.Empty(s.gen.submitted(1)[0].ReferenceImageURI)
	s.Equal("gs://test-bucket/content/1/frames/segment_1.png", s.gen.submitted(2)[0].ReferenceImageURI)
	s.Equal("gs://test-bucket/content/1/frames/segment_2.png", s.gen.submitted(3)[0].ReferenceImageURI)
	for n := 1; n <= 3; n++ {
		req := s.gen.submitted(n)[0]
		s.Equal(seed, req.Seed)
		s.Equal(8, req.DurationSeconds)
		s.Equal("9:16", req.AspectRatio)
	}
	s.False(s.repo.concurrentGenerate)
}

func (s *OrchestratorSuite) TestFailureHaltsLaterSegments() {
	s.gen.pollFn = func(n, call int) (*service.PollResult, error) {
		if n == 3 {
			return &service.PollResult{Error: "internal model error"}, nil
		}
		return &service.PollResult{Done: true, RemoteURI: "gs://test-bucket/content/1/segments/ok.mp4"}, nil
	}

	_, err := s.run(4)

	s.ErrorIs(err, ErrSegmentFailed)
	s.Equal(segment.StatusCompleted, s.repo.get(1).Status)
	s.Equal(segment.StatusCompleted, s.repo.get(2).Status)

	third := s.repo.get(3)
	s.Equal(segment.StatusFailed, third.Status)
	s.Require().NotNil(third.ErrorMessage)
	s.Contains(*third.ErrorMessage, "internal model error")
	s.Nil(third.RemoteURI)

	s.Equal(segment.StatusPending, s.repo.get(4).Status)
	s.Empty(s.gen.submitted(4))
}

func (s *OrchestratorSuite) TestSafetyRejectionRetriedOnceWithSimplerPrompt() {
	s.gen.submitFn = func(n, call int) (*service.SubmitResult, error) {
		if n == 2 && call == 1 {
			return &service.SubmitResult{Rejected: true, Reasons: []string{"violence"}}, nil
		}
		return &service.SubmitResult{OperationHandle: "op-" + string(rune('0'+n)) + "-1"}, nil
	}

	segs, err := s.run(2)

	s.Require().NoError(err)
	s.Len(segs, 2)

	reqs := s.gen.submitted(2)
	s.Require().Len(reqs, 2)
	s.Less(len(reqs[1].Prompt), len(reqs[0].Prompt))
	s.NotContains(reqs[1].Prompt, "(")
	s.Equal(reqs[0].Seed, reqs[1].Seed)
	s.Equal(reqs[0].ReferenceImageURI, reqs[1].ReferenceImageURI)
}

func (s *OrchestratorSuite) TestSecondRejectionIsFatal() {
	s.gen.pollFn = func(n, call int) (*service.PollResult, error) {
		return &service.PollResult{Done: true, Rejected: true, Reasons: []string{"unsafe"}}, nil
	}

	_, err := s.run(2)

	s.ErrorIs(err, ErrSafetyRejection)
	s.Len(s.gen.submitted(1), 2)
	s.Empty(s.gen.submitted(2))
	s.Equal(segment.StatusFailed, s.repo.get(1).Status)
	s.Equal(segment.StatusPending, s.repo.get(2).Status)
}

func (s *OrchestratorSuite) TestPollTimeout() {
	s.gen.pollFn = func(n, call int) (*service.PollResult, error) {
		return &service.PollResult{Done: false}, nil
	}

	_, err := s.run(1)

	s.ErrorIs(err, ErrSegmentTimeout)
	s.Equal(3, s.gen.polls[1])
	s.Equal(segment.StatusFailed, s.repo.get(1).Status)
}

func (s *OrchestratorSuite) TestTransientPollErrorsAreRetried() {
	s.gen.pollFn = func(n, call int) (*service.PollResult, error) {
		if call < 3 {
			return nil, errors.New("connection reset")
		}
		return &service.PollResult{Done: true, RemoteURI: "gs://test-bucket/content/1/segments/1/sample_0.mp4"}, nil
	}

	segs, err := s.run(1)

	s.Require().NoError(err)
	s.Equal("gs://test-bucket/content/1/segments/1/sample_0.mp4", *segs[0].RemoteURI)
}

func (s *OrchestratorSuite) TestInlinePayloadIsUploaded() {
	s.gen.submitFn = func(n, call int) (*service.SubmitResult, error) {
		return &service.SubmitResult{Payload: []byte("video-bytes")}, nil
	}

	segs, err := s.run(1)

	s.Require().NoError(err)
	s.Equal("gs://test-bucket/content/1/segments/segment_1.mp4", *segs[0].RemoteURI)
	s.True(s.store.has(*segs[0].RemoteURI))
}

func (s *OrchestratorSuite) TestFrameExtractionFailureIsFatal() {
	s.frames.err = ErrFrameExtraction

	_, err := s.run(2)

	s.ErrorIs(err, ErrFrameExtraction)
	s.Equal(segment.StatusCompleted, s.repo.get(1).Status)
	s.Equal(segment.StatusFailed, s.repo.get(2).Status)
	s.Empty(s.gen.submitted(2))
}

func (s *OrchestratorSuite) TestLostCompletionWriteLeavesSegmentFailed() {
	refused := false
	s.repo.updateErr = func(seg segment.VideoSegment) error {
		if seg.Status == segment.StatusCompleted && !refused {
			refused = true
			return errors.New("db connection lost")
		}
		return nil
	}

	_, err := s.run(2)

	s.Require().Error(err)
	s.Contains(err.Error(), "db connection lost")
	got := s.repo.get(1)
	s.Equal(segment.StatusFailed, got.Status)
	s.Require().NotNil(got.ErrorMessage)
	s.Contains(*got.ErrorMessage, "db connection lost")
	s.Nil(got.RemoteURI)
	s.Empty(s.gen.submitted(2))
}

func (s *OrchestratorSuite) TestLostGeneratingWriteLeavesSegmentFailed() {
	s.repo.updateErr = func(seg segment.VideoSegment) error {
		if seg.Status == segment.StatusGenerating {
			return errors.New("db connection lost")
		}
		return nil
	}

	_, err := s.run(1)

	s.Require().Error(err)
	got := s.repo.get(1)
	s.Equal(segment.StatusFailed, got.Status)
	s.Require().NotNil(got.ErrorMessage)
	s.Contains(*got.ErrorMessage, "db connection lost")
	s.Empty(s.gen.submitted(1))
}

func TestAwaitCompleted(t *testing.T) {
	repo := newMemSegmentRepo(nil)
	batch := segment.NewBatch(5, []string{"a", "b"}, time.Now())
	require.NoError(t, repo.ReplaceBatch(context.Background(), 5, batch))

	o := &SegmentOrchestrator{segments: repo, cfg: OrchestratorConfig{WaitInterval: time.Millisecond, WaitTimeout: 20 * time.Millisecond}}

	_, err := o.awaitCompleted(context.Background(), 5, 1)
	assert.ErrorIs(t, err, ErrSegmentTimeout)

	go func() {
		time.Sleep(3 * time.Millisecond)
		prev := *batch[0]
		_ = prev.MarkGenerating(time.Now())
		_ = prev.MarkCompleted("gs://test-bucket/content/5/segments/segment_1.mp4", time.Now())
		_ = repo.Update(context.Background(), &prev)
	}()
	o.cfg.WaitTimeout = time.Second
	got, err := o.awaitCompleted(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.Equal(t, segment.StatusCompleted, got.Status)
	require.NotNil(t, got.RemoteURI)

	o.cfg.WaitTimeout = 20 * time.Millisecond

	require.NoError(t, batch[0].MarkGenerating(time.Now()))
	require.NoError(t, batch[0].MarkFailed("boom", time.Now()))
	require.NoError(t, repo.Update(context.Background(), batch[0]))
	_, err = o.awaitCompleted(context.Background(), 5, 1)
	assert.ErrorIs(t, err, ErrSegmentFailed)
	assert.True(t, strings.Contains(err.Error(), "previous segment 1"))
}

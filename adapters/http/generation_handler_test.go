package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/reel-forge/adapters/event"
	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/internal/application/usecase/generation"
	"github.com/khoahotran/reel-forge/internal/domain/content"
	"github.com/khoahotran/reel-forge/internal/domain/media"
	"github.com/khoahotran/reel-forge/internal/domain/segment"
	"github.com/khoahotran/reel-forge/pkg/apperror"
	"github.com/khoahotran/reel-forge/pkg/auth"
	"github.com/khoahotran/reel-forge/pkg/logger"
)

type stubContentRepo struct {
	mu   sync.Mutex
	rows map[int64]*content.Content
}

func (r *stubContentRepo) FindByID(ctx context.Context, id int64) (*content.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return nil, content.ErrContentNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubContentRepo) QueueExtendedVideo(ctx context.Context, id int64, d int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.rows[id]
	if c.GenerationStatus == content.GenerationQueued || c.GenerationStatus == content.GenerationRunning {
		return content.ErrGenerationActive
	}
	c.IsExtendedVideo = true
	c.DesiredDurationSeconds = d
	c.GenerationStatus = content.GenerationQueued
	c.GenerationError = nil
	return nil
}

func (r *stubContentRepo) SaveVideoScript(ctx context.Context, id int64, script []string) error {
	return nil
}

func (r *stubContentRepo) UpdateGenerationStatus(ctx context.Context, id int64, s content.GenerationStatus, msg *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[id].GenerationStatus = s
	r.rows[id].GenerationError = msg
	return nil
}

type stubSegmentRepo struct{ segs []*segment.VideoSegment }

func (r *stubSegmentRepo) ReplaceBatch(ctx context.Context, contentID int64, segs []*segment.VideoSegment) error {
	return nil
}
func (r *stubSegmentRepo) Update(ctx context.Context, s *segment.VideoSegment) error { return nil }
func (r *stubSegmentRepo) FindByNumber(ctx context.Context, contentID int64, n int) (*segment.VideoSegment, error) {
	return nil, segment.ErrSegmentNotFound
}
func (r *stubSegmentRepo) ListByContent(ctx context.Context, contentID int64) ([]*segment.VideoSegment, error) {
	return r.segs, nil
}

type stubMediaRepo struct{ m *media.Media }

func (r *stubMediaRepo) ReplaceExtendedVideo(ctx context.Context, m *media.Media) (*media.Media, error) {
	return nil, nil
}
func (r *stubMediaRepo) FindExtendedVideo(ctx context.Context, contentID int64) (*media.Media, error) {
	if r.m == nil || r.m.ContentID != contentID {
		return nil, apperror.NewNotFound("media", "")
	}
	return r.m, nil
}

type stubJobs struct {
	mu   sync.Mutex
	jobs map[string]service.JobStatus
}

func (s *stubJobs) Set(ctx context.Context, js service.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[js.JobID] = js
	return nil
}

func (s *stubJobs) Get(ctx context.Context, id string) (*service.JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	js, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	return &js, nil
}

type stubPublisher struct {
	requested []event.GenerationRequestedPayload
}

func (p *stubPublisher) PublishGenerationRequested(ctx context.Context, e event.GenerationRequestedPayload) error {
	p.requested = append(p.requested, e)
	return nil
}
func (p *stubPublisher) PublishGenerationStatus(ctx context.Context, e event.GenerationStatusPayload) error {
	return nil
}

type stubLock struct{ holder *service.LockHolder }

func (l *stubLock) Acquire(ctx context.Context, jobID string, contentID int64) (service.Lease, error) {
	return nil, nil
}
func (l *stubLock) Holder(ctx context.Context) (*service.LockHolder, error) { return l.holder, nil }

type GenerationHandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	token     string
	contents  *stubContentRepo
	segments  *stubSegmentRepo
	medias    *stubMediaRepo
	publisher *stubPublisher
	lock      *stubLock
}

func TestGenerationHandler(t *testing.T) {
	suite.Run(t, new(GenerationHandlerTestSuite))
}

func (s *GenerationHandlerTestSuite) SetupTest() {
	appLogger := logger.NewNop()
	jwtSvc := auth.NewJWTService("test-secret", time.Hour)
	token, err := jwtSvc.GenerateToken("tester", auth.RoleOperator)
	s.Require().NoError(err)
	s.token = token

	s.contents = &stubContentRepo{rows: map[int64]*content.Content{
		1: {ID: 1, Idea: "sunrise yoga", GenerationStatus: content.GenerationIdle},
		2: {ID: 2, Idea: "busy", GenerationStatus: content.GenerationRunning},
	}}
	s.segments = &stubSegmentRepo{}
	s.medias = &stubMediaRepo{}
	s.publisher = &stubPublisher{}
	s.lock = &stubLock{}
	jobs := &stubJobs{jobs: map[string]service.JobStatus{}}

	handler := NewGenerationHandler(
		generation.NewEnqueueGenerationUseCase(s.contents, jobs, s.publisher, appLogger),
		generation.NewGetSegmentsUseCase(s.contents, s.segments),
		generation.NewGetMediaUseCase(s.medias),
		generation.NewGetJobStatusUseCase(jobs, s.lock),
		appLogger,
	)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorMiddleware(appLogger))
	admin := router.Group("/api/admin")
	admin.Use(AuthMiddleware(jwtSvc, appLogger))
	handler.RegisterRoutes(admin)
	s.router = router
}

func (s *GenerationHandlerTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *GenerationHandlerTestSuite) Test_Generate_AcceptsAndPollsJob() {
	rr := s.do(http.MethodPost, "/api/admin/contents/1/extended-video", gin.H{"desired_duration_seconds": 20})
	s.Require().Equal(http.StatusAccepted, rr.Code, rr.Body.String())

	var out generation.EnqueueOutput
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &out))
	s.Equal(3, out.SegmentCount)
	s.Equal(content.GenerationQueued, out.Status)
	s.Require().Len(s.publisher.requested, 1)
	s.Equal("9:16", s.publisher.requested[0].AspectRatio)
	s.Equal("sunrise yoga", s.publisher.requested[0].ContentIdea)

	rr = s.do(http.MethodGet, "/api/admin/jobs/"+out.JobID, nil)
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), `"status":"queued"`)
}

func (s *GenerationHandlerTestSuite) Test_Generate_ErrorMapping() {
	rr := s.do(http.MethodPost, "/api/admin/contents/1/extended-video", gin.H{"desired_duration_seconds": 8, "aspect_ratio": "4:3"})
	s.Equal(http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodPost, "/api/admin/contents/abc/extended-video", gin.H{"desired_duration_seconds": 8})
	s.Equal(http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodPost, "/api/admin/contents/99/extended-video", gin.H{"desired_duration_seconds": 8})
	s.Equal(http.StatusNotFound, rr.Code)

	rr = s.do(http.MethodPost, "/api/admin/contents/2/extended-video", gin.H{"desired_duration_seconds": 8})
	s.Equal(http.StatusConflict, rr.Code)

	s.Empty(s.publisher.requested)
}

func (s *GenerationHandlerTestSuite) Test_Segments_ReportsProgress() {
	now := time.Now()
	batch := segment.NewBatch(1, []string{"a", "b"}, now)
	s.Require().NoError(batch[0].MarkGenerating(now))
	s.Require().NoError(batch[0].MarkCompleted("gs://b/content/1/segments/segment_1.mp4", now))
	s.segments.segs = batch

	rr := s.do(http.MethodGet, "/api/admin/contents/1/segments", nil)
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp SegmentsResponse
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &resp))
	s.Equal(2, resp.Total)
	s.Equal(1, resp.Completed)
	s.Equal("pending", resp.Segments[1].Status)
}

func (s *GenerationHandlerTestSuite) Test_Media_NotFoundThenFound() {
	rr := s.do(http.MethodGet, "/api/admin/contents/1/media", nil)
	s.Equal(http.StatusNotFound, rr.Code)

	s.medias.m = media.NewExtendedVideo(1, "/data/media/content_1.mp4", 4096, 2, time.Now())
	rr = s.do(http.MethodGet, "/api/admin/contents/1/media", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), `"is_segmented":true`)
}

func (s *GenerationHandlerTestSuite) Test_Lock_FreeAndHeld() {
	rr := s.do(http.MethodGet, "/api/admin/pipeline/lock", nil)
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), `"held":false`)

	s.lock.holder = &service.LockHolder{JobID: "job-9", ContentID: 4, AcquiredAt: time.Now(), TTLLeft: time.Minute}
	rr = s.do(http.MethodGet, "/api/admin/pipeline/lock", nil)
	s.Contains(rr.Body.String(), `"job_id":"job-9"`)
}

func (s *GenerationHandlerTestSuite) Test_RequiresToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/jobs/x", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	s.Equal(http.StatusUnauthorized, rr.Code)

	s.token = "not-a-jwt"
	rr = s.do(http.MethodGet, "/api/admin/jobs/x", nil)
	s.Equal(http.StatusUnauthorized, rr.Code)
}

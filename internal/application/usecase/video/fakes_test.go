package video

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/internal/domain/segment"
)

type memStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleteErr error
	puts      []string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) URI(path string) string {
	return "gs://test-bucket/" + path
}

func (s *memStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uri := s.URI(path)
	s.objects[uri] = append([]byte(nil), data...)
	s.puts = append(s.puts, path)
	return uri, nil
}

func (s *memStore) Get(ctx context.Context, uri string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[uri]
	if !ok {
		return nil, fmt.Errorf("object %s not found", uri)
	}
	return data, nil
}

func (s *memStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	n := 0
	for uri := range s.objects {
		if strings.HasPrefix(uri, s.URI(prefix)) {
			delete(s.objects, uri)
			n++
		}
	}
	return n, nil
}

func (s *memStore) has(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[uri]
	return ok
}

// fakeFFmpeg writes a small file to the last argument, which is always the output path.
type fakeFFmpeg struct {
	mu    sync.Mutex
	calls [][]string
	fail  func(args []string) error
}

func (f *fakeFFmpeg) Run(ctx context.Context, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()
	if f.fail != nil {
		if err := f.fail(args); err != nil {
			return err
		}
	}
	if len(args) == 0 {
		return errors.New("no args")
	}
	return os.WriteFile(args[len(args)-1], []byte("output:"+strings.Join(args, " ")), 0644)
}

func argValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

type eventLog struct {
	mu    sync.Mutex
	items []string
}

func (e *eventLog) add(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = append(e.items, fmt.Sprintf(format, args...))
}

func (e *eventLog) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.items...)
}

type memSegmentRepo struct {
	mu                 sync.Mutex
	rows               map[int]segment.VideoSegment
	events             *eventLog
	concurrentGenerate bool
	// updateErr, when set, can refuse a write; refused writes leave the row as it was.
	updateErr func(s segment.VideoSegment) error
}

func newMemSegmentRepo(events *eventLog) *memSegmentRepo {
	return &memSegmentRepo{rows: map[int]segment.VideoSegment{}, events: events}
}

func (r *memSegmentRepo) ReplaceBatch(ctx context.Context, contentID int64, segs []*segment.VideoSegment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = map[int]segment.VideoSegment{}
	for _, s := range segs {
		r.rows[s.SegmentNumber] = *s
	}
	return nil
}

func (r *memSegmentRepo) Update(ctx context.Context, s *segment.VideoSegment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		if err := r.updateErr(*s); err != nil {
			return err
		}
	}
	r.rows[s.SegmentNumber] = *s
	generating := 0
	for _, row := range r.rows {
		if row.Status == segment.StatusGenerating {
			generating++
		}
	}
	if generating > 1 {
		r.concurrentGenerate = true
	}
	if r.events != nil && s.IsTerminal() {
		r.events.add("%s:%d", s.Status, s.SegmentNumber)
	}
	return nil
}

func (r *memSegmentRepo) FindByNumber(ctx context.Context, contentID int64, number int) (*segment.VideoSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[number]
	if !ok {
		return nil, segment.ErrSegmentNotFound
	}
	return &s, nil
}

func (r *memSegmentRepo) ListByContent(ctx context.Context, contentID int64) ([]*segment.VideoSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*segment.VideoSegment, 0, len(r.rows))
	for n := 1; n <= len(r.rows); n++ {
		s := r.rows[n]
		out = append(out, &s)
	}
	return out, nil
}

func (r *memSegmentRepo) get(n int) segment.VideoSegment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[n]
}

// fakeGenerator answers with an operation handle and completes on the first
// poll unless submitFn/pollFn override it.
type fakeGenerator struct {
	mu       sync.Mutex
	events   *eventLog
	requests map[int][]service.VideoRequest
	polls    map[int]int
	submitFn func(n, call int) (*service.SubmitResult, error)
	pollFn   func(n, call int) (*service.PollResult, error)
}

func newFakeGenerator(events *eventLog) *fakeGenerator {
	return &fakeGenerator{events: events, requests: map[int][]service.VideoRequest{}, polls: map[int]int{}}
}

func segmentFromOutput(uri string) int {
	var id int64
	var n int
	fmt.Sscanf(uri[strings.Index(uri, "content/"):], "content/%d/segments/%d/", &id, &n)
	return n
}

func (g *fakeGenerator) Submit(ctx context.Context, req service.VideoRequest) (*service.SubmitResult, error) {
	n := segmentFromOutput(req.OutputURI)
	g.mu.Lock()
	g.requests[n] = append(g.requests[n], req)
	call := len(g.requests[n])
	g.mu.Unlock()
	if g.events != nil {
		g.events.add("submit:%d", n)
	}
	if g.submitFn != nil {
		return g.submitFn(n, call)
	}
	return &service.SubmitResult{OperationHandle: fmt.Sprintf("op-%d-%d", n, call)}, nil
}

func (g *fakeGenerator) Poll(ctx context.Context, handle string) (*service.PollResult, error) {
	var n, call int
	fmt.Sscanf(handle, "op-%d-%d", &n, &call)
	g.mu.Lock()
	g.polls[n]++
	count := g.polls[n]
	g.mu.Unlock()
	if g.pollFn != nil {
		return g.pollFn(n, count)
	}
	return &service.PollResult{Done: true, RemoteURI: fmt.Sprintf("gs://test-bucket/content/1/segments/%d/sample_0.mp4", n)}, nil
}

func (g *fakeGenerator) submitted(n int) []service.VideoRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]service.VideoRequest(nil), g.requests[n]...)
}

type fakeFrames struct {
	events *eventLog
	err    error
}

func (f *fakeFrames) Extract(ctx context.Context, contentID int64, n int, uri string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.events != nil {
		f.events.add("frame:%d", n)
	}
	return fmt.Sprintf("gs://test-bucket/content/%d/frames/segment_%d.png", contentID, n), nil
}

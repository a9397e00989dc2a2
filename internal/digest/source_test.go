package digest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// fakeSource serves canned content and revisions.
type fakeSource struct {
	mu          sync.Mutex
	contents    map[string]string
	revisions   map[string]*Revision
	revErrs     map[string]error
	delay       time.Duration
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	calls       map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		contents:  make(map[string]string),
		revisions: make(map[string]*Revision),
		revErrs:   make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (s *fakeSource) FetchContent(ctx context.Context, _ Repo, f File) (string, bool) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		m := s.maxInFlight.Load()
		if n <= m || s.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	s.mu.Lock()
	s.calls[f.Path]++
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", false
		}
	}
	content, ok := s.contents[f.Path]
	return content, ok
}

func (s *fakeSource) FetchRevision(_ context.Context, _ Repo, path string) (*Revision, error) {
	if err, ok := s.revErrs[path]; ok {
		return nil, err
	}
	return s.revisions[path], nil
}

var errTransient = errors.New("transient failure")

package web

import (
	"sync"

	"github.com/google/uuid"

	"github.com/contactkeval/oi-clusters/internal/pipeline"
)

// resultStore keeps the most recent results so the browser can fetch the
// export and the chart after the analyze call. Oldest entries are evicted first.
type resultStore struct {
	mu      sync.Mutex
	max     int
	order   []string
	results map[string]*pipeline.Result
}

func newResultStore(max int) *resultStore {
	if max < 1 {
		max = 1
	}
	return &resultStore{
		max:     max,
		results: make(map[string]*pipeline.Result, max),
	}
}

// put stores res under a fresh id and returns the id.
func (s *resultStore) put(res *pipeline.Result) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[id] = res
	s.order = append(s.order, id)
	for len(s.order) > s.max {
		delete(s.results, s.order[0])
		s.order = s.order[1:]
	}
	return id
}

func (s *resultStore) get(id string) (*pipeline.Result, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.results[id]
	return res, ok
}

func (s *resultStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

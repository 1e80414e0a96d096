package session

import (
	"sync"

	proc_unit "github.com/offreitas/opencl-vec-add/pu"
)

// bufferSet tracks the device buffers that are allocated and not yet released.
type bufferSet struct {
	mu   sync.Mutex
	live map[proc_unit.Buffer]struct{}
}

func newBufferSet() *bufferSet {
	return &bufferSet{live: make(map[proc_unit.Buffer]struct{})}
}

func (s *bufferSet) create(dev proc_unit.Device, access proc_unit.Access, n int) (proc_unit.Buffer, error) {
	buf, err := dev.CreateBuffer(access, n)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.live[buf] = struct{}{}
	s.mu.Unlock()
	return buf, nil
}

// release frees buf if it is still live. A nil buf is ignored.
func (s *bufferSet) release(buf proc_unit.Buffer) {
	if buf == nil {
		return
	}
	s.mu.Lock()
	_, ok := s.live[buf]
	delete(s.live, buf)
	s.mu.Unlock()
	if ok {
		buf.Release()
	}
}

func (s *bufferSet) releaseAll() int {
	s.mu.Lock()
	live := s.live
	s.live = make(map[proc_unit.Buffer]struct{})
	s.mu.Unlock()
	for buf := range live {
		buf.Release()
	}
	return len(live)
}

func (s *bufferSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

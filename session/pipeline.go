package session

import (
	"context"
	"strconv"

	"github.com/moratsam/etherscan/pipeline"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	proc_unit "github.com/offreitas/opencl-vec-add/pu"
	u "github.com/offreitas/opencl-vec-add/util"
)

func assemblePipeline(device proc_unit.Device, buffers *bufferSet) *pipeline.Pipeline {
	return pipeline.New(
		pipeline.FIFO(newWriter(device, buffers)),
		pipeline.FIFO(newKernelRunner(device)),
		pipeline.FIFO(newReader(device)),
	)
}

// Run sends every work item through the device in index order and returns
// the accumulated timing. The first device failure aborts the run.
func (s *Session) Run() (Stats, error) {
	stats := Stats{VecSize: s.VecSize()}
	if s.device == nil {
		return stats, proc_unit.Fail(proc_unit.ErrDeviceUnavailable, "run", xerrors.New("session is not open"))
	}

	source := &itemSource{
		vec_len: s.vec_len,
		vec_num: s.vec_num,
		data:    s.h_data,
		res:     s.h_res,
		next:    1,
		tokens:  make(chan struct{}, 1),
	}
	source.tokens <- struct{}{}

	if s.reuse_buffers {
		shared, err := s.sharedBuffers()
		if err != nil {
			return stats, u.WrapErr("allocate shared device buffers", err)
		}
		defer func() {
			for _, buf := range shared {
				s.buffers.release(buf)
			}
		}()
		source.shared = shared
	}

	sink := &statsSink{log: s.log, stats: &stats, tokens: source.tokens}
	pip := assemblePipeline(s.device, s.buffers)
	if err := pip.Process(context.Background(), source, sink); err != nil {
		return stats, u.WrapErr("vector sum", err)
	}
	return stats, nil
}

func (s *Session) sharedBuffers() ([]proc_unit.Buffer, error) {
	access := []proc_unit.Access{proc_unit.ReadWrite, proc_unit.ReadWrite, proc_unit.WriteOnly}
	shared := make([]proc_unit.Buffer, 0, len(access))
	for _, a := range access {
		buf, err := s.buffers.create(s.device, a, s.vec_len)
		if err != nil {
			for _, b := range shared {
				s.buffers.release(b)
			}
			return nil, err
		}
		shared = append(shared, buf)
	}
	return shared, nil
}

// Source of the work item pipeline. A single token circulates between the
// source and the sink, so an item is only issued once the previous one has
// been drained.
type itemSource struct {
	vec_len int
	vec_num int
	data    []float32
	res     []float32
	shared  []proc_unit.Buffer // Buffers used by every item, when reused.

	next   int
	tokens chan struct{}
}

func (s *itemSource) Error() error { return nil }

func (s *itemSource) Next(ctx context.Context) bool {
	if s.next >= s.vec_num {
		return false
	}
	select {
	case <-s.tokens:
	case <-ctx.Done():
		return false
	}
	return true
}

// The source loads rows i-1 and i of the vector set into a payload.
func (s *itemSource) Payload() pipeline.Payload {
	i := s.next
	s.next++

	p := payloadPool.Get().(*workPayload)
	p.ix = i
	p.vec_len = s.vec_len
	p.row_a = Row(s.data, s.vec_len, i-1)
	p.row_b = Row(s.data, s.vec_len, i)
	p.row_res = Row(s.res, s.vec_len, i-1)
	if s.shared != nil {
		p.buf_a, p.buf_b, p.buf_res = s.shared[0], s.shared[1], s.shared[2]
	}
	return p
}

// Sink of the work item pipeline.
type statsSink struct {
	log    logrus.FieldLogger
	stats  *Stats
	tokens chan struct{}
}

// The sink frees the item's device buffers, records its timing and hands
// the token back to the source.
func (s *statsSink) Consume(_ context.Context, payload pipeline.Payload) error {
	p := payload.(*workPayload)

	p.releaseBuffers()
	s.stats.Items++
	s.stats.Elapsed += p.elapsed
	s.log.WithFields(logrus.Fields{
		"item":    p.ix,
		"elapsed": p.elapsed,
	}).Debug("work item done")

	s.tokens <- struct{}{}
	return nil
}

func itemName(p *workPayload) string {
	return "work item " + strconv.Itoa(p.ix)
}

package session

import (
	"sync"
	"time"

	"github.com/moratsam/etherscan/pipeline"

	proc_unit "github.com/offreitas/opencl-vec-add/pu"
)

var payloadPool = sync.Pool{New: func() interface{} { return new(workPayload) }}

type workPayload struct {
	ix      int // Work item index i, pairs rows i-1 and i.
	vec_len int

	row_a   []float32 // host input row i-1.
	row_b   []float32 // host input row i.
	row_res []float32 // host result row i-1 (device output is copied here).

	buf_a   proc_unit.Buffer // device input a.
	buf_b   proc_unit.Buffer // device input b.
	buf_res proc_unit.Buffer // device output.
	owned   bool             // Buffers were allocated for this item alone.
	buffers *bufferSet

	elapsed time.Duration // Dispatch plus wait.
}

// Doesn't really clone, a work item only ever follows one path.
func (p *workPayload) Clone() pipeline.Payload {
	c := payloadPool.Get().(*workPayload)
	*c = *p
	c.owned = false
	return c
}

func (p *workPayload) MarkAsProcessed() {
	p.releaseBuffers()
	*p = workPayload{}
	payloadPool.Put(p)
}

// releaseBuffers frees the device buffers owned by this item. Shared
// buffers are left to their owner.
func (p *workPayload) releaseBuffers() {
	if p.owned && p.buffers != nil {
		p.buffers.release(p.buf_a)
		p.buffers.release(p.buf_b)
		p.buffers.release(p.buf_res)
	}
	p.owned = false
	p.buf_a, p.buf_b, p.buf_res = nil, nil, nil
}

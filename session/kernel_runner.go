package session

import (
	"context"
	"time"

	"github.com/moratsam/etherscan/pipeline"

	proc_unit "github.com/offreitas/opencl-vec-add/pu"
	u "github.com/offreitas/opencl-vec-add/util"
)

type kernelRunner struct {
	device proc_unit.Device
	now    func() time.Time
}

func newKernelRunner(device proc_unit.Device) *kernelRunner {
	return &kernelRunner{device, time.Now}
}

// This step binds the item's buffers and the row length to the kernel and
// runs a single unit of work, timing the dispatch and the wait for it.
func (k *kernelRunner) Process(_ context.Context, payload pipeline.Payload) (pipeline.Payload, error) {
	p := payload.(*workPayload)

	// Set kernel args.
	if err := k.device.SetArgs(p.buf_a, p.buf_b, p.buf_res, p.vec_len); err != nil {
		p.releaseBuffers()
		return nil, u.WrapErr(itemName(p), u.WrapErr("set kernel args", err))
	}

	// Launch the kernel and block until it is done.
	start := k.now()
	if err := k.device.Dispatch(); err != nil {
		p.releaseBuffers()
		return nil, u.WrapErr(itemName(p), u.WrapErr("launch kernel", err))
	}
	p.elapsed = k.now().Sub(start)

	return p, nil
}

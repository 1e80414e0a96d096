package session

import (
	"context"

	"github.com/moratsam/etherscan/pipeline"

	proc_unit "github.com/offreitas/opencl-vec-add/pu"
	u "github.com/offreitas/opencl-vec-add/util"
)

type writer struct {
	device  proc_unit.Device
	buffers *bufferSet
}

func newWriter(device proc_unit.Device, buffers *bufferSet) *writer {
	return &writer{device, buffers}
}

// This step in the processing pipeline allocates the item's device buffers
// (unless shared ones were handed in) and copies both input rows onto the device.
func (w *writer) Process(_ context.Context, payload pipeline.Payload) (pipeline.Payload, error) {
	p := payload.(*workPayload)

	if err := w.process(p); err != nil {
		p.releaseBuffers()
		return nil, u.WrapErr(itemName(p), err)
	}
	return p, nil
}

func (w *writer) process(p *workPayload) error {
	if p.buf_a == nil {
		p.owned = true
		p.buffers = w.buffers

		// Create device buffers.
		var err error
		if p.buf_a, err = w.buffers.create(w.device, proc_unit.ReadWrite, p.vec_len); err != nil {
			return u.WrapErr("allocate input device buffer a", err)
		}
		if p.buf_b, err = w.buffers.create(w.device, proc_unit.ReadWrite, p.vec_len); err != nil {
			return u.WrapErr("allocate input device buffer b", err)
		}
		if p.buf_res, err = w.buffers.create(w.device, proc_unit.WriteOnly, p.vec_len); err != nil {
			return u.WrapErr("allocate output device buffer", err)
		}
	}

	// Copy data from host to device.
	if err := w.device.Write(p.buf_a, p.row_a); err != nil {
		return u.WrapErr("copy input a to device", err)
	}
	if err := w.device.Write(p.buf_b, p.row_b); err != nil {
		return u.WrapErr("copy input b to device", err)
	}
	return nil
}

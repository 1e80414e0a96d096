package session

import (
	"context"

	"github.com/moratsam/etherscan/pipeline"

	proc_unit "github.com/offreitas/opencl-vec-add/pu"
	u "github.com/offreitas/opencl-vec-add/util"
)

type reader struct {
	device proc_unit.Device
}

func newReader(device proc_unit.Device) *reader {
	return &reader{device}
}

// This step in the processing pipeline copies the output row from the device
// into the result buffer.
func (r *reader) Process(_ context.Context, payload pipeline.Payload) (pipeline.Payload, error) {
	p := payload.(*workPayload)

	if err := r.device.Read(p.buf_res, p.row_res); err != nil {
		p.releaseBuffers()
		return nil, u.WrapErr(itemName(p), u.WrapErr("copy result from device", err))
	}
	return p, nil
}

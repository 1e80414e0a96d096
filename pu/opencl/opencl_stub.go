//go:build noopencl

package opencl

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	proc_unit "github.com/offreitas/opencl-vec-add/pu"
)

// OpenCLPU without OpenCL support: every Open reports the device as unavailable.
type OpenCLPU struct {
	log logrus.FieldLogger
}

func NewOpenCLPU(log logrus.FieldLogger) *OpenCLPU {
	return &OpenCLPU{log}
}

func (o *OpenCLPU) Open(_ proc_unit.Options) (proc_unit.Device, error) {
	return nil, proc_unit.Fail(proc_unit.ErrDeviceUnavailable, "get platforms", xerrors.New("built without OpenCL (noopencl tag)"))
}

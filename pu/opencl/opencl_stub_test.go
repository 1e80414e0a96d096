//go:build noopencl

package opencl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/xerrors"

	proc_unit "github.com/offreitas/opencl-vec-add/pu"
)

func TestStubUnavailable(t *testing.T) {
	dev, err := NewOpenCLPU(nil).Open(proc_unit.Options{})
	assert.Nil(t, dev)
	assert.True(t, xerrors.Is(err, proc_unit.ErrDeviceUnavailable))
}

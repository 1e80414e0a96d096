//go:build !noopencl

package opencl

import (
	_ "embed"

	"github.com/jgillich/go-opencl/cl"
)

var (
	//go:embed vector_sum.cl
	vector_sum_source string
)

// Image path reported when the embedded kernel source is built.
const embedded_image = "embedded:vector_sum.cl"

const float_size = 4

var device_types = map[string]cl.DeviceType{
	"":            cl.DeviceTypeAll,
	"all":         cl.DeviceTypeAll,
	"accelerator": cl.DeviceTypeAccelerator,
	"gpu":         cl.DeviceTypeGPU,
	"cpu":         cl.DeviceTypeCPU,
	"default":     cl.DeviceTypeDefault,
}

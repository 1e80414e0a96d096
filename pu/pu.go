package pu

// Access describes how the kernel uses a device buffer.
type Access int

const (
	ReadWrite Access = iota
	ReadOnly
	WriteOnly
)

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	default:
		return "read-write"
	}
}

// Default platform and kernel the hardware image was compiled for.
const (
	DefaultPlatform = "Intel(R) FPGA SDK for OpenCL(TM)"
	DefaultKernel   = "vector_sum"
)

// Options select the device and the hardware image a Driver opens.
type Options struct {
	Platform   string // Substring of the platform name, empty matches the first platform.
	DeviceType string // One of all, accelerator, gpu, cpu, default.
	ImageDir   string // Directory searched for the hardware image.
	Image      string // Explicit image path, overrides ImageDir.
	Kernel     string // Name of the compute entry point.
}

// Driver discovers a device and prepares it to run the kernel.
type Driver interface {
	// Open finds a device, creates its command queue, loads the hardware
	// image and binds the kernel named in opts.
	Open(opts Options) (Device, error)
}

// Buffer is a device memory object, sized in float32 elements.
type Buffer interface {
	Len() int
	// Release frees the device memory. Calling it more than once is a no-op.
	Release()
}

// Device is an opened processing unit with a bound kernel.
// All transfers block until complete.
type Device interface {
	Name() string
	// Image is the path of the hardware image the kernel was loaded from.
	Image() string
	CreateBuffer(access Access, n int) (Buffer, error)
	Write(buf Buffer, src []float32) error
	Read(buf Buffer, dst []float32) error
	SetArgs(a, b, res Buffer, vec_len int) error
	// Dispatch runs a single unit of work and waits for it to finish.
	Dispatch() error
	// Release frees the kernel, program, command queue and context.
	Release()
}

//go:build !noopencl

package opencl

import (
	"math"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/offreitas/opencl-vec-add/io"
	proc_unit "github.com/offreitas/opencl-vec-add/pu"
)

type OpenCLPU struct {
	log logrus.FieldLogger
}

func NewOpenCLPU(log logrus.FieldLogger) *OpenCLPU {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OpenCLPU{log}
}

func (o *OpenCLPU) Open(opts proc_unit.Options) (proc_unit.Device, error) {
	d := &device{log: o.log}
	if err := d.init(opts); err != nil {
		d.Release()
		return nil, err
	}
	return d, nil
}

type device struct {
	log logrus.FieldLogger

	device  *cl.Device
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
	kernel  *cl.Kernel
	image   string
}

func (d *device) init(opts proc_unit.Options) error {
	// Get the OpenCL platform.
	platform, err := findPlatform(opts.Platform)
	if err != nil {
		return err
	}
	d.log.WithFields(logrus.Fields{
		"platform": platform.Name(),
		"vendor":   platform.Vendor(),
		"version":  platform.Version(),
	}).Info("using platform")

	// Query the available OpenCL devices, we'll just use the first one.
	device_type, ok := device_types[opts.DeviceType]
	if !ok {
		return proc_unit.Fail(proc_unit.ErrDeviceUnavailable, "get devices", xerrors.Errorf("unknown device type %q", opts.DeviceType))
	}
	devices, err := platform.GetDevices(device_type)
	if err != nil {
		return proc_unit.Fail(proc_unit.ErrDeviceUnavailable, "get devices", err)
	}
	if len(devices) == 0 {
		return proc_unit.Fail(proc_unit.ErrDeviceUnavailable, "get devices", xerrors.New("GetDevices returned 0 devices"))
	}
	d.device = devices[0]
	logDeviceInfo(d.log, d.device)

	// Create the context and command queue.
	context, err := cl.CreateContext([]*cl.Device{d.device})
	if err != nil {
		return proc_unit.Fail(proc_unit.ErrDeviceUnavailable, "create context", err)
	}
	d.context = context
	queue, err := context.CreateCommandQueue(d.device, cl.CommandQueueProfilingEnable)
	if err != nil {
		return proc_unit.Fail(proc_unit.ErrDeviceUnavailable, "create command queue", err)
	}
	d.queue = queue

	// Create the program and the kernel.
	kernel_name := opts.Kernel
	if kernel_name == "" {
		kernel_name = proc_unit.DefaultKernel
	}
	source, err := d.loadImage(opts, kernel_name)
	if err != nil {
		return err
	}
	program, err := context.CreateProgramWithSource([]string{source})
	if err != nil {
		return proc_unit.Fail(proc_unit.ErrProgramLoad, "create program", err)
	}
	d.program = program
	if err := program.BuildProgram([]*cl.Device{d.device}, ""); err != nil {
		return proc_unit.Fail(proc_unit.ErrProgramLoad, "build program", err)
	}
	kernel, err := program.CreateKernel(kernel_name)
	if err != nil {
		return proc_unit.Fail(proc_unit.ErrProgramLoad, "create kernel "+kernel_name, err)
	}
	d.kernel = kernel
	return nil
}

// loadImage returns the program source of the hardware image for kernel_name.
// Without an image file the embedded vector_sum source is used.
func (d *device) loadImage(opts proc_unit.Options, kernel_name string) (string, error) {
	path := opts.Image
	if path == "" {
		dir := opts.ImageDir
		if dir == "" {
			exe_dir, err := io.ExeDir()
			if err != nil {
				return "", proc_unit.Fail(proc_unit.ErrProgramLoad, "locate image", err)
			}
			dir = exe_dir
		}
		var err error
		path, err = io.ResolveImage(dir, kernel_name, d.device.Name())
		if xerrors.Is(err, io.ErrImageNotFound) && kernel_name == proc_unit.DefaultKernel {
			d.log.WithField("dir", dir).Warn("no hardware image found, building embedded kernel source")
			d.image = embedded_image
			return vector_sum_source, nil
		}
		if err != nil {
			return "", proc_unit.Fail(proc_unit.ErrProgramLoad, "locate image", err)
		}
	}

	// TODO: load .aocx binaries once go-opencl exposes clCreateProgramWithBinary.
	if strings.EqualFold(filepath.Ext(path), io.BinaryExt) {
		return "", proc_unit.Fail(proc_unit.ErrProgramLoad, "load image "+path, xerrors.New("binary images are not supported by the OpenCL binding, use an OpenCL C source image"))
	}
	data, err := io.ReadImage(path)
	if err != nil {
		return "", proc_unit.Fail(proc_unit.ErrProgramLoad, "load image", err)
	}
	d.image = path
	return string(data), nil
}

func findPlatform(name string) (*cl.Platform, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, proc_unit.Fail(proc_unit.ErrDeviceUnavailable, "get platforms", err)
	}
	for _, p := range platforms {
		if name == "" || strings.Contains(p.Name(), name) {
			return p, nil
		}
	}
	return nil, proc_unit.Fail(proc_unit.ErrDeviceUnavailable, "find platform", xerrors.Errorf("no platform matching %q among %d", name, len(platforms)))
}

func logDeviceInfo(log logrus.FieldLogger, device *cl.Device) {
	log.WithFields(logrus.Fields{
		"name":              device.Name(),
		"type":              device.Type().String(),
		"vendor":            device.Vendor(),
		"version":           device.Version(),
		"driver version":    device.DriverVersion(),
		"global mem size":   device.GlobalMemSize(),
		"max compute units": device.MaxComputeUnits(),
	}).Info("using device")
}

func (d *device) Name() string {
	if d.device == nil {
		return ""
	}
	return d.device.Name()
}

func (d *device) Image() string { return d.image }

type buffer struct {
	mem *cl.MemObject
	n   int
}

func (b *buffer) Len() int { return b.n }

func (b *buffer) Release() {
	if b.mem != nil {
		b.mem.Release()
		b.mem = nil
	}
}

var mem_flags = map[proc_unit.Access]cl.MemFlag{
	proc_unit.ReadWrite: cl.MemReadWrite,
	proc_unit.ReadOnly:  cl.MemReadOnly,
	proc_unit.WriteOnly: cl.MemWriteOnly,
}

func (d *device) CreateBuffer(access proc_unit.Access, n int) (proc_unit.Buffer, error) {
	if d.context == nil {
		return nil, proc_unit.Fail(proc_unit.ErrTransfer, "create buffer", xerrors.New("device released"))
	}
	mem, err := d.context.CreateEmptyBuffer(mem_flags[access], float_size*n)
	if err != nil {
		return nil, proc_unit.Fail(proc_unit.ErrTransfer, "create "+access.String()+" buffer", err)
	}
	return &buffer{mem, n}, nil
}

func (d *device) Write(buf proc_unit.Buffer, src []float32) error {
	b, err := memObject(buf, "enqueue write buffer")
	if err != nil || len(src) == 0 {
		return err
	}
	if len(src) > b.n {
		return proc_unit.Fail(proc_unit.ErrTransfer, "enqueue write buffer", xerrors.Errorf("%d elements into buffer of %d", len(src), b.n))
	}
	ptr := unsafe.Pointer(&src[0])
	if _, err := d.queue.EnqueueWriteBuffer(b.mem, true, 0, float_size*len(src), ptr, nil); err != nil {
		return proc_unit.Fail(proc_unit.ErrTransfer, "enqueue write buffer", err)
	}
	return nil
}

func (d *device) Read(buf proc_unit.Buffer, dst []float32) error {
	b, err := memObject(buf, "enqueue read buffer")
	if err != nil || len(dst) == 0 {
		return err
	}
	if len(dst) > b.n {
		return proc_unit.Fail(proc_unit.ErrTransfer, "enqueue read buffer", xerrors.Errorf("%d elements from buffer of %d", len(dst), b.n))
	}
	ptr := unsafe.Pointer(&dst[0])
	if _, err := d.queue.EnqueueReadBuffer(b.mem, true, 0, float_size*len(dst), ptr, nil); err != nil {
		return proc_unit.Fail(proc_unit.ErrTransfer, "enqueue read buffer", err)
	}
	return nil
}

func (d *device) SetArgs(a, b, res proc_unit.Buffer, vec_len int) error {
	if vec_len < 1 || vec_len > math.MaxInt32 {
		return proc_unit.Fail(proc_unit.ErrDispatch, "set kernel args",
			xerrors.Errorf("vector length %d does not fit the kernel's int argument", vec_len))
	}
	mems := make([]*buffer, 3)
	for i, buf := range []proc_unit.Buffer{a, b, res} {
		m, err := memObject(buf, "set kernel args")
		if err != nil {
			return proc_unit.Fail(proc_unit.ErrDispatch, "set kernel args", err)
		}
		mems[i] = m
	}
	if err := d.kernel.SetArgs(mems[0].mem, mems[1].mem, mems[2].mem, int32(vec_len)); err != nil {
		return proc_unit.Fail(proc_unit.ErrDispatch, "set kernel args", err)
	}
	return nil
}

// Dispatch launches a single work item, the same as enqueueing a task.
func (d *device) Dispatch() error {
	if _, err := d.queue.EnqueueNDRangeKernel(d.kernel, nil, []int{1}, []int{1}, nil); err != nil {
		return proc_unit.Fail(proc_unit.ErrDispatch, "launch kernel", err)
	}
	if err := d.queue.Finish(); err != nil {
		return proc_unit.Fail(proc_unit.ErrDispatch, "finish", err)
	}
	return nil
}

func (d *device) Release() {
	if d.kernel != nil {
		d.kernel.Release()
		d.kernel = nil
	}
	if d.program != nil {
		d.program.Release()
		d.program = nil
	}
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.context != nil {
		d.context.Release()
		d.context = nil
	}
}

func memObject(buf proc_unit.Buffer, op string) (*buffer, error) {
	b, ok := buf.(*buffer)
	if !ok || b == nil || b.mem == nil {
		return nil, proc_unit.Fail(proc_unit.ErrTransfer, op, xerrors.New("not a live OpenCL buffer"))
	}
	return b, nil
}

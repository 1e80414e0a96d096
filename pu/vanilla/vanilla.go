package vanilla

import (
	"strings"

	"golang.org/x/sys/cpu"
	"golang.org/x/xerrors"

	proc_unit "github.com/offreitas/opencl-vec-add/pu"
)

// Kernel computes one output row from two input rows.
type Kernel func(a, b, res []float32)

// Kernels known to the host emulation, by entry point name.
var Kernels = map[string]Kernel{
	"vector_sum": VectorSum,
	"identity":   Identity,
}

func VectorSum(a, b, res []float32) {
	for j := range res {
		res[j] = a[j] + b[j]
	}
}

// Identity copies input a to the output unchanged.
func Identity(a, _, res []float32) {
	copy(res, a)
}

// VanillaPU runs the kernel on the host CPU.
type VanillaPU struct{}

func NewVanillaPU() *VanillaPU {
	return &VanillaPU{}
}

func (v *VanillaPU) Open(opts proc_unit.Options) (proc_unit.Device, error) {
	name := opts.Kernel
	if name == "" {
		name = proc_unit.DefaultKernel
	}
	kernel, ok := Kernels[name]
	if !ok {
		return nil, proc_unit.Fail(proc_unit.ErrProgramLoad, "create kernel", xerrors.Errorf("no host kernel named %q", name))
	}
	return &device{kernel: kernel, kernel_name: name}, nil
}

type buffer struct {
	access   proc_unit.Access
	data     []float32
	released bool
}

func (b *buffer) Len() int { return len(b.data) }

func (b *buffer) Release() {
	b.released = true
	b.data = nil
}

type device struct {
	kernel      Kernel
	kernel_name string

	a, b, res *buffer
	vec_len   int
	released  bool
}

func (d *device) Name() string {
	return "host (" + hostFeatures() + ")"
}

func (d *device) Image() string { return "builtin:" + d.kernel_name }

func (d *device) CreateBuffer(access proc_unit.Access, n int) (proc_unit.Buffer, error) {
	if d.released {
		return nil, proc_unit.Fail(proc_unit.ErrTransfer, "create buffer", xerrors.New("device released"))
	}
	if n < 1 {
		return nil, proc_unit.Fail(proc_unit.ErrTransfer, "create buffer", xerrors.Errorf("invalid size %d", n))
	}
	return &buffer{access: access, data: make([]float32, n)}, nil
}

func (d *device) Write(buf proc_unit.Buffer, src []float32) error {
	b, err := d.buffer(buf, "write buffer")
	if err != nil {
		return err
	}
	if len(src) > len(b.data) {
		return proc_unit.Fail(proc_unit.ErrTransfer, "write buffer", xerrors.Errorf("%d elements into buffer of %d", len(src), len(b.data)))
	}
	copy(b.data, src)
	return nil
}

func (d *device) Read(buf proc_unit.Buffer, dst []float32) error {
	b, err := d.buffer(buf, "read buffer")
	if err != nil {
		return err
	}
	if len(dst) > len(b.data) {
		return proc_unit.Fail(proc_unit.ErrTransfer, "read buffer", xerrors.Errorf("%d elements from buffer of %d", len(dst), len(b.data)))
	}
	copy(dst, b.data)
	return nil
}

func (d *device) SetArgs(a, b, res proc_unit.Buffer, vec_len int) error {
	var err error
	if d.a, err = d.buffer(a, "set arg 0"); err != nil {
		return err
	}
	if d.b, err = d.buffer(b, "set arg 1"); err != nil {
		return err
	}
	if d.res, err = d.buffer(res, "set arg 2"); err != nil {
		return err
	}
	d.vec_len = vec_len
	return nil
}

func (d *device) Dispatch() error {
	if d.a == nil || d.b == nil || d.res == nil {
		return proc_unit.Fail(proc_unit.ErrDispatch, "enqueue kernel", xerrors.New("kernel args not set"))
	}
	if d.a.released || d.b.released || d.res.released {
		return proc_unit.Fail(proc_unit.ErrDispatch, "enqueue kernel", xerrors.New("kernel arg released"))
	}
	if d.a.access == proc_unit.WriteOnly || d.b.access == proc_unit.WriteOnly {
		return proc_unit.Fail(proc_unit.ErrDispatch, "enqueue kernel", xerrors.New("input arg is write-only"))
	}
	if d.res.access == proc_unit.ReadOnly {
		return proc_unit.Fail(proc_unit.ErrDispatch, "enqueue kernel", xerrors.New("output arg is read-only"))
	}
	n := d.vec_len
	if n > d.a.Len() || n > d.b.Len() || n > d.res.Len() {
		return proc_unit.Fail(proc_unit.ErrDispatch, "enqueue kernel", xerrors.Errorf("row length %d exceeds buffers", n))
	}
	d.kernel(d.a.data[:n], d.b.data[:n], d.res.data[:n])
	return nil
}

func (d *device) Release() {
	d.released = true
	d.a, d.b, d.res = nil, nil, nil
}

func (d *device) buffer(buf proc_unit.Buffer, op string) (*buffer, error) {
	b, ok := buf.(*buffer)
	if !ok || b == nil {
		return nil, proc_unit.Fail(proc_unit.ErrTransfer, op, xerrors.New("not a host buffer"))
	}
	if b.released {
		return nil, proc_unit.Fail(proc_unit.ErrTransfer, op, xerrors.New("buffer released"))
	}
	return b, nil
}

func hostFeatures() string {
	var features []string
	switch {
	case cpu.X86.HasAVX512F:
		features = append(features, "avx512f")
	case cpu.X86.HasAVX2:
		features = append(features, "avx2")
	case cpu.X86.HasSSE41:
		features = append(features, "sse4.1")
	}
	if cpu.ARM64.HasASIMD {
		features = append(features, "asimd")
	}
	if len(features) == 0 {
		return "generic"
	}
	return strings.Join(features, ",")
}

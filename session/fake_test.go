package session

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/xerrors"

	proc_unit "github.com/offreitas/opencl-vec-add/pu"
	"github.com/offreitas/opencl-vec-add/pu/vanilla"
)

// faultyDriver opens a host device wrapped in a faultyDevice, or fails.
type faultyDriver struct {
	err    error
	device *faultyDevice

	fail_dispatch_at int // 1-based dispatch that fails, 0 never.
	fail_write_at    int // 1-based write that fails, 0 never.
}

func (d *faultyDriver) Open(opts proc_unit.Options) (proc_unit.Device, error) {
	if d.err != nil {
		return nil, d.err
	}
	host, err := vanilla.NewVanillaPU().Open(opts)
	if err != nil {
		return nil, err
	}
	d.device = &faultyDevice{
		Device:           host,
		fail_dispatch_at: d.fail_dispatch_at,
		fail_write_at:    d.fail_write_at,
	}
	return d.device, nil
}

type faultyDevice struct {
	proc_unit.Device

	mu               sync.Mutex
	fail_dispatch_at int
	fail_write_at    int
	dispatches       int
	writes           int
	created          int
	live             int
	max_live         int
	releases         int
}

type countingBuffer struct {
	proc_unit.Buffer
	dev  *faultyDevice
	once sync.Once
}

func (b *countingBuffer) Release() {
	b.once.Do(func() {
		b.dev.mu.Lock()
		b.dev.live--
		b.dev.mu.Unlock()
		b.Buffer.Release()
	})
}

func unwrap(buf proc_unit.Buffer) proc_unit.Buffer {
	if c, ok := buf.(*countingBuffer); ok {
		return c.Buffer
	}
	return buf
}

func (d *faultyDevice) CreateBuffer(access proc_unit.Access, n int) (proc_unit.Buffer, error) {
	buf, err := d.Device.CreateBuffer(access, n)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.created++
	d.live++
	if d.live > d.max_live {
		d.max_live = d.live
	}
	return &countingBuffer{Buffer: buf, dev: d}, nil
}

func (d *faultyDevice) Write(buf proc_unit.Buffer, src []float32) error {
	d.mu.Lock()
	d.writes++
	fail := d.writes == d.fail_write_at
	d.mu.Unlock()
	if fail {
		return proc_unit.Fail(proc_unit.ErrTransfer, "enqueue write buffer", xerrors.New("injected"))
	}
	return d.Device.Write(unwrap(buf), src)
}

func (d *faultyDevice) Read(buf proc_unit.Buffer, dst []float32) error {
	return d.Device.Read(unwrap(buf), dst)
}

func (d *faultyDevice) SetArgs(a, b, res proc_unit.Buffer, vec_len int) error {
	return d.Device.SetArgs(unwrap(a), unwrap(b), unwrap(res), vec_len)
}

func (d *faultyDevice) Dispatch() error {
	d.mu.Lock()
	d.dispatches++
	fail := d.dispatches == d.fail_dispatch_at
	d.mu.Unlock()
	if fail {
		return proc_unit.Fail(proc_unit.ErrDispatch, "enqueue kernel", xerrors.New("injected"))
	}
	return d.Device.Dispatch()
}

func (d *faultyDevice) Release() {
	d.mu.Lock()
	d.releases++
	d.mu.Unlock()
	d.Device.Release()
}

func testLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log
}

// Package session drives the vector sum kernel on a processing unit: it
// owns every host and device resource of a run, streams the work items
// through the device one at a time and checks the results.
package session

import (
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/offreitas/opencl-vec-add/config"
	proc_unit "github.com/offreitas/opencl-vec-add/pu"
	u "github.com/offreitas/opencl-vec-add/util"
)

type Session struct {
	log    logrus.FieldLogger
	driver proc_unit.Driver
	device proc_unit.Device

	vec_len       int
	vec_num       int
	reuse_buffers bool

	h_data   []float32 // Vector set copied to the device.
	h_verify []float32 // Untouched copy of the vector set, read only by Verify.
	h_res    []float32 // One row per work item, filled from the device.

	buffers *bufferSet
}

func New(driver proc_unit.Driver, log logrus.FieldLogger) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{
		log:     log,
		driver:  driver,
		vec_len: config.DefaultVecLen,
		vec_num: config.DefaultVecNum,
		buffers: newBufferSet(),
	}
}

// Configure sets the row length and the number of rows. A rejected value
// leaves the previous one in place; the other value is still applied.
func (s *Session) Configure(vec_len, vec_num int) error {
	if s.device != nil {
		return xerrors.Errorf("configure open session: %w", config.ErrInvalidConfig)
	}

	var problems []string
	switch {
	case vec_len < 1:
		problems = append(problems, fmt.Sprintf("vector length must be at least 1, got %d", vec_len))
	case vec_len > math.MaxInt32:
		problems = append(problems, fmt.Sprintf("vector length must be at most %d, got %d", math.MaxInt32, vec_len))
	case overflows(vec_len, s.vec_num):
		problems = append(problems, fmt.Sprintf("vector length %d times %d vectors overflows", vec_len, s.vec_num))
	default:
		s.vec_len = vec_len
	}
	switch {
	case vec_num < config.MinVecNum:
		problems = append(problems, fmt.Sprintf("number of vectors must be greater than or equal to %d, got %d", config.MinVecNum, vec_num))
	case overflows(s.vec_len, vec_num):
		problems = append(problems, fmt.Sprintf("%d vectors of length %d overflows", vec_num, s.vec_len))
	default:
		s.vec_num = vec_num
	}
	if len(problems) > 0 {
		return xerrors.Errorf("%s: %w", strings.Join(problems, "; "), config.ErrInvalidConfig)
	}
	return nil
}

// overflows reports whether vec_len*vec_num floats cannot be addressed
// as one host buffer.
func overflows(vec_len, vec_num int) bool {
	return vec_len > math.MaxInt/u.FloatBytes/vec_num
}

// ReuseBuffers makes Run allocate the device buffers once for all work
// items instead of once per work item.
func (s *Session) ReuseBuffers(reuse bool) {
	s.reuse_buffers = reuse
}

func (s *Session) VecLen() int    { return s.vec_len }
func (s *Session) VecNum() int    { return s.vec_num }
func (s *Session) VecSize() int   { return u.RowBytes(s.vec_len) }
func (s *Session) WorkItems() int { return s.vec_num - 1 }

// Device returns the opened processing unit, or nil.
func (s *Session) Device() proc_unit.Device { return s.device }

// Open brings up the device and allocates the host buffers.
func (s *Session) Open(opts proc_unit.Options) error {
	if s.device != nil {
		return xerrors.New("session already open")
	}

	device, err := s.driver.Open(opts)
	if err != nil {
		return u.WrapErr("open device", err)
	}
	s.device = device
	s.log.WithFields(logrus.Fields{
		"device": device.Name(),
		"image":  device.Image(),
	}).Info("device ready")

	// Allocate host memory.
	s.h_data = NewVectorSet(s.vec_len, s.vec_num)
	s.h_verify = append([]float32(nil), s.h_data...)
	s.h_res = make([]float32, s.vec_len*s.WorkItems())
	return nil
}

// Close releases the device buffers, the device and the host buffers.
// It is safe on a session that never opened or failed halfway.
func (s *Session) Close() {
	if n := s.buffers.releaseAll(); n > 0 {
		s.log.WithField("buffers", n).Debug("released leftover device buffers")
	}
	if s.device != nil {
		s.device.Release()
		s.device = nil
	}
	s.h_data = nil
	s.h_verify = nil
	s.h_res = nil
}

// Verify recomputes every output row from the vector set and compares it
// exactly with the result buffer.
func (s *Session) Verify() bool {
	if s.h_res == nil {
		return false
	}
	return VecSumGold(s.h_verify, s.h_res, s.vec_len, s.vec_num)
}

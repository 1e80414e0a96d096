// Package config holds the run configuration of the vector sum host.
package config

import (
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	proc_unit "github.com/offreitas/opencl-vec-add/pu"
)

var ErrInvalidConfig = xerrors.New("invalid config")

const (
	DefaultVecLen = 64
	DefaultVecNum = 2
	MinVecNum     = 2
)

// Processing units selectable with --proc.
const (
	ProcOpenCL  = "opencl"
	ProcVanilla = "vanilla"
)

var DeviceTypes = []string{"all", "accelerator", "gpu", "cpu", "default"}

type Config struct {
	VecLen       int    `mapstructure:"vec-len"`
	VecNum       int    `mapstructure:"vec-num"`
	Proc         string `mapstructure:"proc"`
	Platform     string `mapstructure:"platform"`
	DeviceType   string `mapstructure:"device-type"`
	Image        string `mapstructure:"image"`
	ImageDir     string `mapstructure:"image-dir"`
	Kernel       string `mapstructure:"kernel"`
	ReuseBuffers bool   `mapstructure:"reuse-buffers"`
	Strict       bool   `mapstructure:"strict"`
	LogLevel     string `mapstructure:"log-level"`
}

func Default() Config {
	return Config{
		VecLen:     DefaultVecLen,
		VecNum:     DefaultVecNum,
		Proc:       ProcOpenCL,
		Platform:   proc_unit.DefaultPlatform,
		DeviceType: "all",
		Kernel:     proc_unit.DefaultKernel,
		LogLevel:   "info",
	}
}

// Validate rejects values no run can proceed with. Vector sizes are not
// checked here, the session rejects them and keeps its defaults.
func (c Config) Validate() error {
	switch c.Proc {
	case ProcOpenCL, ProcVanilla:
	default:
		return xerrors.Errorf("proc %q: %w", c.Proc, ErrInvalidConfig)
	}
	if !validDeviceType(c.DeviceType) {
		return xerrors.Errorf("device type %q: %w", c.DeviceType, ErrInvalidConfig)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return xerrors.Errorf("log level %q: %w", c.LogLevel, ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Kernel) == "" {
		return xerrors.Errorf("empty kernel name: %w", ErrInvalidConfig)
	}
	return nil
}

// Options returns the processing unit options of the run.
func (c Config) Options() proc_unit.Options {
	return proc_unit.Options{
		Platform:   c.Platform,
		DeviceType: strings.ToLower(c.DeviceType),
		ImageDir:   c.ImageDir,
		Image:      c.Image,
		Kernel:     c.Kernel,
	}
}

func validDeviceType(t string) bool {
	for _, d := range DeviceTypes {
		if strings.EqualFold(t, d) {
			return true
		}
	}
	return false
}

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"

	"github.com/offreitas/opencl-vec-add/config"
	proc_unit "github.com/offreitas/opencl-vec-add/pu"
	cl "github.com/offreitas/opencl-vec-add/pu/opencl"
	vl "github.com/offreitas/opencl-vec-add/pu/vanilla"
	"github.com/offreitas/opencl-vec-add/session"
)

// ErrVerificationFailed is returned with --strict when the results are wrong.
var ErrVerificationFailed = xerrors.New("verification failed")

const env_prefix = "VECSUM"

var drivers = map[string]func(logrus.FieldLogger) proc_unit.Driver{
	config.ProcOpenCL:  func(log logrus.FieldLogger) proc_unit.Driver { return cl.NewOpenCLPU(log) },
	config.ProcVanilla: func(logrus.FieldLogger) proc_unit.Driver { return vl.NewVanillaPU() },
}

func Execute() error {
	root_cmd, err := newRootCmd()
	if err != nil {
		return err
	}
	return root_cmd.Execute()
}

func newRootCmd() (*cobra.Command, error) {
	v := viper.New()
	var cfg_file string

	root_cmd := &cobra.Command{
		Use:   "vecsum",
		Short: "Add adjacent vectors on an OpenCL accelerator and verify the sums.",
		Long: `vecsum builds VEC_NUM vectors of VEC_LEN floats, row i holding VEC_LEN*i,
sends each adjacent pair to the vector_sum kernel of a precompiled hardware
image, one pair at a time, and checks every result row against the sum
computed on the host.

The OpenCL binding cannot load .aocx binaries: an image resolved to an .aocx
file is rejected, so point --image or --image-dir at an OpenCL C source file,
or at a directory holding no image to build the embedded vector_sum kernel.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v, cfg_file)
			if err != nil {
				return err
			}
			log := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			return run(cmd.OutOrStdout(), log, cfg)
		},
	}

	defaults := config.Default()
	flags := root_cmd.Flags()
	flags.Int("vec-len", defaults.VecLen, "Number of elements in a vector")
	flags.Int("vec-num", defaults.VecNum, "Number of vectors, at least 2")
	flags.StringP("proc", "p", defaults.Proc, "Choose processor type ({\"opencl\",\"vanilla\"})")
	flags.String("platform", defaults.Platform, "OpenCL platform name (substring), empty for the first platform")
	flags.String("device-type", defaults.DeviceType, "OpenCL device type ("+strings.Join(config.DeviceTypes, ",")+")")
	flags.String("image", defaults.Image, "Hardware image path, overrides --image-dir")
	flags.String("image-dir", defaults.ImageDir, "Directory searched for the hardware image (default: executable directory)")
	flags.String("kernel", defaults.Kernel, "Kernel entry point in the hardware image")
	flags.Bool("reuse-buffers", defaults.ReuseBuffers, "Allocate device buffers once instead of per work item")
	flags.Bool("strict", defaults.Strict, "Exit with an error if verification fails")
	flags.String("log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	flags.StringVar(&cfg_file, "config", "", "Config file (yaml, toml or json)")

	v.SetEnvPrefix(env_prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, xerrors.Errorf("bind flags: %w", err)
	}

	return root_cmd, nil
}

func loadConfig(v *viper.Viper, cfg_file string) (config.Config, error) {
	cfg := config.Default()
	if cfg_file != "" {
		v.SetConfigFile(cfg_file)
		if err := v.ReadInConfig(); err != nil {
			return cfg, xerrors.Errorf("read config %s: %w", cfg_file, err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, xerrors.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(out io.Writer, level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

func run(out io.Writer, log *logrus.Logger, cfg config.Config) error {
	s := session.New(drivers[cfg.Proc](log), log)
	defer s.Close()

	if err := s.Configure(cfg.VecLen, cfg.VecNum); err != nil {
		log.WithError(err).Warn("ignoring invalid vector size")
	}
	s.ReuseBuffers(cfg.ReuseBuffers)

	if err := s.Open(cfg.Options()); err != nil {
		return err
	}
	fmt.Fprintf(out, "Using image: %s\n\n", s.Device().Image())

	fmt.Fprintf(out, "Vector length: %d\n", s.VecLen())
	fmt.Fprintf(out, "Vector size: %d\n", s.VecSize())
	fmt.Fprintf(out, "Number of vectors: %d\n", s.VecNum())
	fmt.Fprintln(out, "Launching vector sum...")

	stats, err := s.Run()
	if err != nil {
		return err
	}
	stats.Print(out)

	passed := s.Verify()
	verdict := "PASSED"
	if !passed {
		verdict = "FAILED"
	}
	fmt.Fprintf(out, "\nVerifying data --> %s\n\n", verdict)

	if !passed && cfg.Strict {
		return ErrVerificationFailed
	}
	return nil
}

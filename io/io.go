package io

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"

	u "github.com/offreitas/opencl-vec-add/util"
)

var ErrImageNotFound = xerrors.New("hardware image not found")

// Extensions of the hardware images produced by the offline compiler,
// and of the OpenCL C source accepted for emulation.
const (
	BinaryExt = ".aocx"
	SourceExt = ".cl"
)

func FileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func FileSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, u.WrapErr("get stat", err)
	}
	return fi.Size(), nil
}

// ExeDir returns the directory holding the running executable.
func ExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", u.WrapErr("locate executable", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// ResolveImage finds the hardware image for kernel name. Candidates are
// tried in order: <name>.aocx, <name>_<board>.aocx, <name>.cl.
func ResolveImage(dir, name, board string) (string, error) {
	candidates := []string{filepath.Join(dir, name+BinaryExt)}
	if board = BoardName(board); board != "" {
		candidates = append(candidates, filepath.Join(dir, name+"_"+board+BinaryExt))
	}
	candidates = append(candidates, filepath.Join(dir, name+SourceExt))

	for _, c := range candidates {
		if FileExists(c) {
			return c, nil
		}
	}
	return "", xerrors.Errorf("%s in %s: %w", name, dir, ErrImageNotFound)
}

// BoardName turns a device name into the board suffix used in image file
// names: the part before any " : " separator, lower case, spaces to underscores.
func BoardName(device string) string {
	if ix := strings.Index(device, " : "); ix >= 0 {
		device = device[:ix]
	}
	device = strings.ToLower(strings.TrimSpace(device))
	return strings.Join(strings.Fields(device), "_")
}

func ReadImage(path string) ([]byte, error) {
	size, err := FileSize(path)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, xerrors.Errorf("image %s is empty", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, u.WrapErr("read image", err)
	}
	return data, nil
}

package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func touch(t *testing.T, path string, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestResolveImage(t *testing.T) {
	t.Run("plain binary first", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "vector_sum.aocx"), "bin")
		touch(t, filepath.Join(dir, "vector_sum.cl"), "src")

		path, err := ResolveImage(dir, "vector_sum", "pac_a10 : Intel PAC")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "vector_sum.aocx"), path)
	})

	t.Run("board specific binary", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "vector_sum_pac_a10.aocx"), "bin")
		touch(t, filepath.Join(dir, "vector_sum.cl"), "src")

		path, err := ResolveImage(dir, "vector_sum", "pac_a10 : Intel PAC Platform")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "vector_sum_pac_a10.aocx"), path)
	})

	t.Run("source fallback", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "vector_sum.cl"), "src")

		path, err := ResolveImage(dir, "vector_sum", "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "vector_sum.cl"), path)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := ResolveImage(t.TempDir(), "vector_sum", "board")
		require.Error(t, err)
		assert.True(t, xerrors.Is(err, ErrImageNotFound))
	})

	t.Run("directory is not an image", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "vector_sum.aocx"), 0o755))
		_, err := ResolveImage(dir, "vector_sum", "")
		assert.True(t, xerrors.Is(err, ErrImageNotFound))
	})
}

func TestBoardName(t *testing.T) {
	assert.Equal(t, "pac_a10", BoardName("pac_a10 : Intel PAC Platform (pac_ee00000)"))
	assert.Equal(t, "de5a_net_ddr4", BoardName("DE5a Net DDR4"))
	assert.Equal(t, "", BoardName("   "))
}

func TestReadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vector_sum.aocx")
	touch(t, path, "image bytes")

	data, err := ReadImage(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("image bytes"), data)

	empty := filepath.Join(dir, "empty.aocx")
	touch(t, empty, "")
	_, err = ReadImage(empty)
	assert.Error(t, err)

	_, err = ReadImage(filepath.Join(dir, "missing.aocx"))
	assert.Error(t, err)
}

func TestExeDir(t *testing.T) {
	dir, err := ExeDir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
}

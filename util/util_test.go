package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestWrapErr(t *testing.T) {
	cause := xerrors.New("boom")
	err := WrapErr("create buffer", cause)

	require.Error(t, err)
	assert.Equal(t, "create buffer: boom", err.Error())
	assert.True(t, xerrors.Is(err, cause))
}

func TestRowBytes(t *testing.T) {
	assert.Equal(t, 256, RowBytes(64))
	assert.Equal(t, 0, RowBytes(0))
}

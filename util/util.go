package util

import "golang.org/x/xerrors"

func WrapErr(msg string, err error) error {
	return xerrors.Errorf("%s: %w", msg, err)
}

// FloatBytes is the byte size of one vector element on host and device.
const FloatBytes = 4

// RowBytes returns the byte size of a row of vec_len elements.
func RowBytes(vec_len int) int {
	return vec_len * FloatBytes
}

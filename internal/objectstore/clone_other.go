//go:build !linux

package objectstore

import (
	"errors"
	"os"
)

func clone(dst, src *os.File) error {
	return errors.ErrUnsupported
}

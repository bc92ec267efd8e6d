//go:build !statsview
// +build !statsview

package statsview

import (
	"io"

	"github.com/pkg/errors"
)

// ErrUnavailable is returned by Launch in builds without the statsview tag.
var ErrUnavailable = errors.New("statsview not included in this build")

// Launch does nothing in this build.
func Launch(addr string, output io.Writer) error {
	return ErrUnavailable
}

// Available returns true if a statsview is available to launch.
func Available() bool {
	return false
}

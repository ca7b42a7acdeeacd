//go:build !linux && !darwin

package fsattr

import "errors"

var errUnsupported = errors.New("xattr not supported on this platform")

func setxattr(_, _ string, _ []byte) error {
	return errUnsupported
}

func getxattr(_, _ string) ([]byte, error) {
	return nil, errUnsupported
}

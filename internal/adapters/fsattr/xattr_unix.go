//go:build linux || darwin

package fsattr

import "golang.org/x/sys/unix"

func setxattr(path, name string, value []byte) error {
	return unix.Setxattr(path, name, value, 0)
}

func getxattr(path, name string) ([]byte, error) {
	// Probe for size first; the validator strings involved are short, so a
	// small initial buffer with one retry is enough.
	buf := make([]byte, 256)
	for {
		n, err := unix.Getxattr(path, name, buf)
		if err == unix.ERANGE {
			buf = make([]byte, len(buf)*2)
			continue
		}
		if err != nil {
			return nil, err
		}
		return buf[:n], nil
	}
}

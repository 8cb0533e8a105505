package overlay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrHandshake = errors.New("invalid overlay handshake")

const maxHandshake = 1024

// ReadHandshake reads the greeting of a new overlay: 'H' followed by the username
// the overlay follows, terminated by NUL.
func ReadHandshake(r io.Reader) (string, error) {
	buf := make([]byte, maxHandshake)
	n, err := r.Read(buf)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	buf = buf[:n]
	if len(buf) == 0 || buf[0] != 'H' {
		return "", fmt.Errorf("%w: unexpected %q", ErrHandshake, buf)
	}
	name := buf[1:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	s := strings.TrimSpace(string(name))
	if s == "" {
		return "", fmt.Errorf("%w: empty username", ErrHandshake)
	}
	return s, nil
}

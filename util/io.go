package util

import (
	"errors"
	"io"
	"net"
)

// CountingWriter forwards writes to W and reports every successful
// byte count to OnWrite.
type CountingWriter struct {
	W       io.Writer
	OnWrite func(n int64)
	total   int64
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.W.Write(p)
	if n > 0 {
		c.total += int64(n)
		if c.OnWrite != nil {
			c.OnWrite(int64(n))
		}
	}
	return n, err
}

// Total returns the number of bytes written so far.
func (c *CountingWriter) Total() int64 { return c.total }

// CountingReader is the read-side twin of CountingWriter.
type CountingReader struct {
	R      io.Reader
	OnRead func(n int64)
	total  int64
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	if n > 0 {
		c.total += int64(n)
		if c.OnRead != nil {
			c.OnRead(int64(n))
		}
	}
	return n, err
}

// Total returns the number of bytes read so far.
func (c *CountingReader) Total() int64 { return c.total }

// IsHarmless returns true for errors that are expected while tearing a
// connection down.
func IsHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}

package moss

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	mosserr "gomoss/internal/errors"
	"gomoss/internal/metrics"
	"gomoss/util"
)

// wire frames the protocol over one connection.  Writes are buffered
// and flushed before every read and on close.
type wire struct {
	conn net.Conn
	addr string
	w    *bufio.Writer
	r    *bufio.Reader
	log  *util.Logger
}

func newWire(conn net.Conn, addr string, m *metrics.Collector, log *util.Logger) *wire {
	out := &util.CountingWriter{W: conn, OnWrite: m.BytesSent}
	in := &util.CountingReader{R: conn, OnRead: m.BytesReceived}
	return &wire{
		conn: conn,
		addr: addr,
		w:    bufio.NewWriter(out),
		r:    bufio.NewReader(in),
		log:  log,
	}
}

// line writes one "\n" terminated protocol line.
func (c *wire) line(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	c.log.Debug("→ %s", msg)
	if _, err := c.w.WriteString(msg + "\n"); err != nil {
		return mosserr.Wrap("write", c.addr, err)
	}
	return nil
}

// raw writes p verbatim with no delimiter.
func (c *wire) raw(p []byte) error {
	if _, err := c.w.Write(p); err != nil {
		return mosserr.Wrap("write", c.addr, err)
	}
	return nil
}

func (c *wire) flush() error {
	if err := c.w.Flush(); err != nil {
		return mosserr.Wrap("write", c.addr, err)
	}
	return nil
}

// readLine flushes pending output and returns the next server line
// without its terminator.  A final unterminated line is accepted; EOF
// before any byte is a read fault.
func (c *wire) readLine() (string, error) {
	if err := c.flush(); err != nil {
		return "", err
	}
	s, err := c.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", mosserr.Wrap("read", c.addr, err)
	}
	s = strings.TrimRight(s, "\r\n")
	c.log.Debug("← %s", s)
	return s, nil
}

// close sends "end" and closes the connection.  It runs on every exit
// path, so write failures here are only logged.
func (c *wire) close() {
	if err := c.line("end"); err == nil {
		err = c.flush()
		if err != nil && !util.IsHarmless(errors.Unwrap(err)) {
			c.log.Debug("sending end: %v", err)
		}
	}
	if err := c.conn.Close(); err != nil && !util.IsHarmless(err) {
		c.log.Debug("closing %s: %v", c.addr, err)
	}
}

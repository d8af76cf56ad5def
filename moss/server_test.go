package moss

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

// fakeServer speaks the server side of the protocol on a loopback
// listener and records everything the client sent.
type fakeServer struct {
	t       *testing.T
	ln      net.Listener
	confirm string // reply to the preamble; "" closes the connection instead
	result  string // reply to the query line

	mu         sync.Mutex
	transcript []string          // one entry per line received
	contents   map[string][]byte // display name → uploaded bytes
	closedBy   string            // last line before EOF
	done       chan struct{}
}

func newFakeServer(t *testing.T, confirm, result string) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := &fakeServer{
		t:        t,
		ln:       ln,
		confirm:  confirm,
		result:   result,
		contents: make(map[string][]byte),
		done:     make(chan struct{}),
	}
	t.Cleanup(func() { ln.Close() })
	go srv.serve()
	return srv
}

func (f *fakeServer) port() int { return f.ln.Addr().(*net.TCPAddr).Port }

// session returns a Session aimed at the fake server.
func (f *fakeServer) session(userID string) *Session {
	s := New(userID)
	s.Host = "127.0.0.1"
	s.Port = f.port()
	return s
}

func (f *fakeServer) record(line string) {
	f.mu.Lock()
	f.transcript = append(f.transcript, line)
	f.closedBy = line
	f.mu.Unlock()
}

func (f *fakeServer) serve() {
	defer close(f.done)

	conn, err := f.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	r := bufio.NewReader(conn)

	for i := 0; i < 6; i++ {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		f.record(strings.TrimSuffix(line, "\n"))
	}
	if f.confirm == "" {
		return
	}
	fmt.Fprintf(conn, "%s\n", f.confirm)

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSuffix(line, "\n")
		f.record(line)

		fields := strings.SplitN(line, " ", 5)
		switch fields[0] {
		case "file":
			if len(fields) != 5 {
				f.t.Errorf("malformed file header %q", line)
				return
			}
			size, err := strconv.Atoi(fields[3])
			if err != nil {
				f.t.Errorf("bad size in %q", line)
				return
			}
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				f.t.Errorf("reading %d content bytes: %v", size, err)
				return
			}
			f.mu.Lock()
			f.contents[fields[4]] = buf
			f.mu.Unlock()
		case "query":
			fmt.Fprintf(conn, "%s\n", f.result)
		case "end":
			// Keep reading so we observe the client closing.
		}
	}
}

// wait blocks until the client has closed its side.
func (f *fakeServer) wait() {
	<-f.done
}

func (f *fakeServer) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.transcript...)
}

// assertTranscript compares what the server saw with want and prints a
// unified diff on mismatch.
func assertTranscript(t *testing.T, got, want []string) {
	t.Helper()
	if strings.Join(got, "\n") == strings.Join(want, "\n") {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.Join(want, "\n") + "\n"),
		B:        difflib.SplitLines(strings.Join(got, "\n") + "\n"),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	t.Errorf("wire transcript mismatch:\n%s", diff)
}

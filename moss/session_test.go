package moss

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"testing/fstest"
	"time"

	"gomoss/internal/metrics"
	"gomoss/util"
)

func TestSend_AcceptedReturnsURL(t *testing.T) {
	srv := newFakeServer(t, "acknowledge", "http://example/report/123")

	s := srv.session("987654321")
	s.SetLanguage("python")
	s.SetCommentString("Assignment X")
	s.Reader = FSReader{FS: fstest.MapFS{
		"starter.py": {Data: []byte("def main(): pass\n")},
		"alice.py":   {Data: []byte("print('alice')\n")},
		"bob.py":     {Data: []byte("print('bob')\n")},
	}}
	s.AddBaseFile("starter.py")
	s.AddFile("alice.py")
	s.AddFile("bob.py")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got, err := s.Send(ctx)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got != "http://example/report/123" {
		t.Errorf("result = %q, want %q", got, "http://example/report/123")
	}

	srv.wait()
	assertTranscript(t, srv.lines(), []string{
		"moss 987654321",
		"directory 0",
		"X 0",
		"maxmatches 10",
		"show 250",
		"language python",
		"file 0 python 17 starter.py",
		"file 1 python 15 alice.py",
		"file 2 python 13 bob.py",
		"query 0 Assignment X",
		"end",
	})
	if string(srv.contents["bob.py"]) != "print('bob')\n" {
		t.Errorf("bob.py content = %q", srv.contents["bob.py"])
	}
}

func TestSend_RejectedSendsEnd(t *testing.T) {
	srv := newFakeServer(t, "no", "")

	s := srv.session("1")
	s.SetLanguage("cobol") // unsupported, cleared to ""
	s.AddFile("never-read.c")

	got, err := s.Send(context.Background())
	if got != "" {
		t.Errorf("result = %q, want empty", got)
	}
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}

	srv.wait()
	lines := srv.lines()
	if srv.closedBy != "end" {
		t.Errorf("last line before close = %q, want %q", srv.closedBy, "end")
	}
	assertTranscript(t, lines, []string{
		"moss 1",
		"directory 0",
		"X 0",
		"maxmatches 10",
		"show 250",
		"language ",
		"end",
	})
}

func TestSend_OptionPreamble(t *testing.T) {
	srv := newFakeServer(t, "yes", "http://moss.stanford.edu/results/7")

	s := srv.session("42")
	s.SetLanguage("java")
	s.SetIgnoreLimit(3)
	s.SetDirectoryMode(true)
	s.SetExperimentalServer(true)
	s.SetNumberOfMatchingFiles(40)

	if _, err := s.Send(context.Background()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	srv.wait()
	assertTranscript(t, srv.lines(), []string{
		"moss 42",
		"directory 1",
		"X 1",
		"maxmatches 3",
		"show 40",
		"language java",
		"query 0 ",
		"end",
	})
}

func TestSend_FileIDs(t *testing.T) {
	srv := newFakeServer(t, "yes", "http://x/1")

	files := fstest.MapFS{}
	s := srv.session("1")
	s.SetLanguage("c")
	for _, name := range []string{"b1.c", "b2.c"} {
		files[name] = &fstest.MapFile{Data: []byte("int x;\n")}
		s.AddBaseFile(name)
	}
	for _, name := range []string{"s1.c", "s2.c", "s3.c", "s1.c"} {
		files[name] = &fstest.MapFile{Data: []byte("int y;\n")}
		s.AddFile(name)
	}
	s.Reader = FSReader{FS: files}

	if _, err := s.Send(context.Background()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	srv.wait()

	var headers []string
	for _, l := range srv.lines() {
		if len(l) > 5 && l[:5] == "file " {
			headers = append(headers, l)
		}
	}
	assertTranscript(t, headers, []string{
		"file 0 c 7 b1.c",
		"file 0 c 7 b2.c",
		"file 1 c 7 s1.c",
		"file 2 c 7 s2.c",
		"file 3 c 7 s3.c",
		"file 4 c 7 s1.c", // duplicates are uploaded again
	})
}

func TestSend_MultiByteContentSize(t *testing.T) {
	srv := newFakeServer(t, "yes", "http://x/2")

	content := "# héllo wörld ✓ 日本語\nprint('π')\n"
	s := srv.session("1")
	s.SetLanguage("python")
	s.Reader = FileReaderFunc(func(string) ([]byte, error) { return []byte(content), nil })
	s.AddFileAs("unicode.py", "unicode.py")

	if _, err := s.Send(context.Background()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	srv.wait()

	want := []byte(content)
	if got := srv.contents["unicode.py"]; !bytes.Equal(got, want) {
		t.Errorf("server received %d bytes %q, want %d bytes", len(got), got, len(want))
	}
	lines := srv.lines()
	header := lines[6]
	if header != "file 1 python "+strconv.Itoa(len(want))+" unicode.py" {
		t.Errorf("header = %q, declared size must be the byte length %d", header, len(want))
	}
}

func TestSend_UnreadableFileUploadsEmpty(t *testing.T) {
	srv := newFakeServer(t, "yes", "http://x/3")

	dir := t.TempDir()
	good := filepath.Join(dir, "good.py")
	if err := os.WriteFile(good, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.py")

	m := metrics.New()
	s := srv.session("1")
	s.SetLanguage("python")
	s.Metrics = m
	s.AddFileAs(missing, "missing.py")
	s.AddFileAs(good, "good.py")

	got, err := s.Send(context.Background())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got != "http://x/3" {
		t.Errorf("result = %q", got)
	}
	srv.wait()

	assertTranscript(t, srv.lines()[6:], []string{
		"file 1 python 0 missing.py",
		"file 2 python 6 good.py",
		"query 0 ",
		"end",
	})

	readErrs := s.ReadErrors()
	if len(readErrs) != 1 {
		t.Fatalf("ReadErrors = %v, want one entry", readErrs)
	}
	var fe *FileError
	if !errors.As(readErrs[0], &fe) || fe.ID != 1 || !errors.Is(fe, fs.ErrNotExist) {
		t.Errorf("ReadErrors[0] = %#v", readErrs[0])
	}
	if m.ReadFailures() != 1 || m.FilesUploaded() != 2 {
		t.Errorf("metrics: read failures = %d files = %d", m.ReadFailures(), m.FilesUploaded())
	}
}

func TestSend_AbortOnReadError(t *testing.T) {
	srv := newFakeServer(t, "yes", "http://never")

	s := srv.session("1")
	s.SetLanguage("python")
	s.ReadPolicy = AbortOnReadError
	s.Reader = FSReader{FS: fstest.MapFS{"a.py": {Data: []byte("a")}}}
	s.AddFile("a.py")
	s.AddFile("gone.py")
	s.AddFile("a.py")

	got, err := s.Send(context.Background())
	if got != "" {
		t.Errorf("result = %q, want empty", got)
	}
	var fe *FileError
	if !errors.As(err, &fe) || fe.Path != "gone.py" || fe.ID != 2 {
		t.Fatalf("err = %v, want FileError for gone.py id 2", err)
	}

	srv.wait()
	assertTranscript(t, srv.lines()[6:], []string{
		"file 1 python 1 a.py",
		"end",
	})
}

func TestSend_BaseFilesBeforeSubmissions(t *testing.T) {
	srv := newFakeServer(t, "yes", "http://x/4")

	s := srv.session("1")
	s.SetLanguage("c")
	s.Reader = FileReaderFunc(func(p string) ([]byte, error) { return []byte(p), nil })
	s.AddFile("sub1.c")
	s.AddBaseFile("base1.c")
	s.AddFile("sub2.c")
	s.AddBaseFile("base2.c")

	if _, err := s.Send(context.Background()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	srv.wait()
	assertTranscript(t, srv.lines()[6:], []string{
		"file 0 c 7 base1.c",
		"file 0 c 7 base2.c",
		"file 1 c 6 sub1.c",
		"file 2 c 6 sub2.c",
		"query 0 ",
		"end",
	})
}

func TestSend_ResultTrimsCRLF(t *testing.T) {
	srv := newFakeServer(t, "yes", "http://example/report/9\r")

	s := srv.session("1")
	got, err := s.Send(context.Background())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got != "http://example/report/9" {
		t.Errorf("result = %q", got)
	}
}

func TestSend_ConnectionDroppedBeforeConfirmation(t *testing.T) {
	srv := newFakeServer(t, "", "")

	m := metrics.New()
	s := srv.session("1")
	s.Metrics = m

	got, err := s.Send(context.Background())
	if got != "" {
		t.Errorf("result = %q, want empty", got)
	}
	var ne *NetworkError
	if !errors.As(err, &ne) || ne.Op != "read" {
		t.Fatalf("err = %v, want read NetworkError", err)
	}
	if m.ActiveConnections() != 0 || m.ErrorCount() != 1 {
		t.Errorf("metrics: active = %d errors = %d", m.ActiveConnections(), m.ErrorCount())
	}
}

func TestSend_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	s := New("1")
	s.Host = "127.0.0.1"
	s.Port = port

	got, err := s.Send(context.Background())
	if got != "" {
		t.Errorf("result = %q, want empty", got)
	}
	var ne *NetworkError
	if !errors.As(err, &ne) || ne.Op != "dial" {
		t.Fatalf("err = %v, want dial NetworkError", err)
	}
}

func TestSend_DeadlineUnblocksSilentServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	closed := make(chan struct{})
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 1024)
		for {
			if _, err := conn.Read(buf); err != nil {
				close(closed)
				return
			}
		}
	}()

	s := New("1")
	s.Host = "127.0.0.1"
	s.Port = ln.Addr().(*net.TCPAddr).Port

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = s.Send(ctx)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("Send took %v, deadline not honoured", time.Since(start))
	}

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not closed after the deadline")
	}
}

func TestSend_LogsSessionID(t *testing.T) {
	srv := newFakeServer(t, "yes", "http://x/5")

	var buf bytes.Buffer
	log := util.NewLogger(int(util.LogVerbose))
	log.SetOutput(&buf)
	log.SetTimestamps(false)

	s := srv.session("1")
	s.Logger = log
	if _, err := s.Send(context.Background()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("session ")) || !bytes.Contains(buf.Bytes(), []byte("report http://x/5")) {
		t.Errorf("log output missing session lines:\n%s", buf.String())
	}
}

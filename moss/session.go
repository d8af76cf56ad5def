package moss

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	mosserr "gomoss/internal/errors"
	"gomoss/internal/metrics"
	"gomoss/internal/transport"
	"gomoss/util"
)

// Errors returned by Send.  They alias the internal taxonomy so
// callers outside this module can match on them.
var (
	// ErrRejected means the server answered the preamble with "no".
	ErrRejected = mosserr.ErrRejected
)

type (
	// FileError reports a file that could not be read for upload.
	FileError = mosserr.FileError

	// NetworkError reports a failed dial, read or write.
	NetworkError = mosserr.NetworkError
)

// FileRef is one file to upload.  An empty DisplayName is derived
// from Path at upload time.
type FileRef struct {
	Path        string
	DisplayName string
}

// Session holds everything needed for one comparison request.  It is
// not safe for concurrent use.
type Session struct {
	UserID string
	Host   string
	Port   int

	// Dialer opens the connection.  Nil means a plain TCP dialer.
	Dialer transport.Dialer

	// Reader loads file contents.  Nil means OSReader.
	Reader FileReader

	// ReadPolicy decides what an unreadable file does to the request.
	ReadPolicy ReadPolicy

	Logger  *util.Logger
	Metrics *metrics.Collector

	opts      Options
	baseFiles []FileRef
	files     []FileRef
	readErrs  []error
}

// New returns a Session for userID aimed at the public server with
// default options.
func New(userID string) *Session {
	return &Session{
		UserID: userID,
		Host:   DefaultHost,
		Port:   DefaultPort,
		opts:   DefaultOptions(),
	}
}

// ── options ──────────────────────────────────────────────────────────

// SetLanguage selects the source language.  An unsupported value
// clears the language instead of failing; check IsSupportedLanguage
// first when that matters.
func (s *Session) SetLanguage(lang string) {
	if !IsSupportedLanguage(lang) {
		lang = ""
	}
	s.opts.Language = lang
}

// SetIgnoreLimit sets maxmatches.
func (s *Session) SetIgnoreLimit(n int) { s.opts.IgnoreLimit = n }

// SetCommentString sets the comment attached to the report.
func (s *Session) SetCommentString(c string) { s.opts.Comment = c }

// SetDirectoryMode toggles per-directory grouping of submissions.
func (s *Session) SetDirectoryMode(on bool) { s.opts.DirectoryMode = on }

// SetExperimentalServer toggles the experimental server.
func (s *Session) SetExperimentalServer(on bool) { s.opts.ExperimentalServer = on }

// SetNumberOfMatchingFiles sets how many matches the report shows.
// Values of 1 or less are ignored.
func (s *Session) SetNumberOfMatchingFiles(n int) {
	if n > 1 {
		s.opts.MatchesToShow = n
	}
}

// Options returns the current option values.
func (s *Session) Options() Options { return s.opts }

// SupportedLanguages is the package-level [SupportedLanguages].
func (s *Session) SupportedLanguages() []string { return SupportedLanguages() }

// ── files ────────────────────────────────────────────────────────────

// AddBaseFile queues a base (starter code) file.  Nothing is checked
// until Send.
func (s *Session) AddBaseFile(path string) { s.AddBaseFileAs(path, "") }

// AddBaseFileAs queues a base file under an explicit display name.
func (s *Session) AddBaseFileAs(path, displayName string) {
	s.baseFiles = append(s.baseFiles, FileRef{Path: path, DisplayName: displayName})
}

// AddFile queues a submission file.
func (s *Session) AddFile(path string) { s.AddFileAs(path, "") }

// AddFileAs queues a submission file under an explicit display name.
func (s *Session) AddFileAs(path, displayName string) {
	s.files = append(s.files, FileRef{Path: path, DisplayName: displayName})
}

// BaseFiles returns the queued base files in upload order.
func (s *Session) BaseFiles() []FileRef { return slices.Clone(s.baseFiles) }

// Files returns the queued submission files in upload order.
func (s *Session) Files() []FileRef { return slices.Clone(s.files) }

// ReadErrors returns the *FileError values recorded by the last Send.
func (s *Session) ReadErrors() []error { return slices.Clone(s.readErrs) }

// ── send ─────────────────────────────────────────────────────────────

// Send runs the whole exchange and returns the report URL.
//
// A "no" from the server yields "" and ErrRejected.  Dial, read and
// write failures yield "" and a *NetworkError.  Either way "end" is
// sent (when the socket still allows it) and the connection closed
// before Send returns.  A ctx deadline bounds every socket operation.
func (s *Session) Send(ctx context.Context) (result string, err error) {
	log := s.Logger
	if log == nil {
		log = util.Discard()
	}
	id := uuid.NewString()
	s.readErrs = nil
	s.Metrics.SessionStarted(id)

	addr := util.FormatAddr(s.Host, s.Port)
	log.Verbose("session %s: connecting to %s", id, addr)

	conn, err := s.dialer().Dial(ctx, "tcp", addr)
	if err != nil {
		err = mosserr.Wrap("dial", addr, err)
		s.Metrics.RecordError(err.Error())
		return "", err
	}
	s.Metrics.ConnectionOpened()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline) //nolint:errcheck
	}
	// Cancellation unblocks whatever read or write is in flight.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now()) //nolint:errcheck
	})

	c := newWire(conn, addr, s.Metrics, log)
	defer func() {
		stop()
		c.close()
		s.Metrics.ConnectionClosed()
		if err != nil && !mosserr.IsRejected(err) {
			s.Metrics.RecordError(err.Error())
		}
		log.Verbose("session %s: closed", id)
	}()

	if err := s.preamble(c); err != nil {
		return "", err
	}

	confirm, err := c.readLine()
	if err != nil {
		return "", err
	}
	if confirm == "no" {
		s.Metrics.Rejected()
		log.Warn("session %s: server rejected the request (language %q)", id, s.opts.Language)
		return "", fmt.Errorf("%w (language %q)", ErrRejected, s.opts.Language)
	}
	log.Debug("session %s: confirmation %q", id, confirm)

	log.Verbose("session %s: uploading %d base and %d submission files",
		id, len(s.baseFiles), len(s.files))
	for _, f := range s.baseFiles {
		if err := s.upload(c, f, 0, log); err != nil {
			return "", err
		}
	}
	for i, f := range s.files {
		if err := s.upload(c, f, i+1, log); err != nil {
			return "", err
		}
	}

	if err := c.line("query 0 %s", s.opts.Comment); err != nil {
		return "", err
	}
	log.Verbose("session %s: waiting for results", id)

	result, err = c.readLine()
	if err != nil {
		return "", err
	}
	s.Metrics.RecordResult(result)
	log.Info("session %s: report %s", id, result)
	return result, nil
}

func (s *Session) preamble(c *wire) error {
	lines := []struct {
		format string
		arg    interface{}
	}{
		{"moss %s", s.UserID},
		{"directory %d", flag(s.opts.DirectoryMode)},
		{"X %d", flag(s.opts.ExperimentalServer)},
		{"maxmatches %d", s.opts.IgnoreLimit},
		{"show %d", s.opts.MatchesToShow},
		{"language %s", s.opts.Language},
	}
	for _, l := range lines {
		if err := c.line(l.format, l.arg); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) dialer() transport.Dialer {
	if s.Dialer != nil {
		return s.Dialer
	}
	return &transport.TCPDialer{}
}

func (s *Session) reader() FileReader {
	if s.Reader != nil {
		return s.Reader
	}
	return OSReader{}
}

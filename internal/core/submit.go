package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"gomoss/config"
	mosserr "gomoss/internal/errors"
	"gomoss/internal/files"
	"gomoss/internal/metrics"
	"gomoss/internal/report"
	"gomoss/internal/transport"
	"gomoss/moss"
	"gomoss/util"
)

// SubmitMode uploads the configured files, prints the report URL and
// optionally saves the report page.  This is the default mode.
type SubmitMode struct {
	Config     *config.Config
	Dialer     transport.Dialer
	Reader     moss.FileReader // nil reads from disk
	ReadPolicy moss.ReadPolicy
	Fetcher    *report.Fetcher // nil unless -o was given
	Metrics    *metrics.Collector
	Logger     *util.Logger

	// Stdout receives the report URL (or the dry-run plan); Stderr
	// receives --stats output.  Both default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

func (m *SubmitMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

func (m *SubmitMode) stderr() io.Writer {
	if m.Stderr != nil {
		return m.Stderr
	}
	return os.Stderr
}

// Run expands the file arguments, performs the exchange and reports
// the outcome.  The dialer is closed when Run returns.
func (m *SubmitMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()
	cfg := m.Config

	opts := files.Options{Recursive: cfg.Recursive, Language: cfg.Language}
	base, err := files.Collect(cfg.BaseFiles, opts)
	if err != nil {
		return fmt.Errorf("base files: %w", err)
	}
	subs, err := files.Collect(cfg.Files, opts)
	if err != nil {
		return fmt.Errorf("submission files: %w", err)
	}

	s := m.session(base, subs)

	if cfg.DryRun {
		return m.plan(s)
	}

	m.Logger.Verbose("submitting %d base and %d submission files to %s",
		len(base), len(subs), util.FormatAddr(s.Host, s.Port))

	url, err := s.Send(ctx)
	if cfg.Stats {
		defer func() { fmt.Fprintln(m.stderr(), m.Metrics.JSON()) }()
	}
	if err != nil {
		if mosserr.IsRejected(err) {
			return fmt.Errorf("%w\n  hint: check -l %q against gomoss --languages and your user id",
				err, cfg.Language)
		}
		if mosserr.IsTimeout(err) {
			return fmt.Errorf("%w\n  hint: %s did not answer in time; check --server and --port or try -T",
				err, util.FormatAddr(s.Host, s.Port))
		}
		return err
	}

	if n := len(s.ReadErrors()); n > 0 {
		m.Logger.Warn("%d file(s) could not be read and were uploaded empty", n)
	}
	if url == "" {
		return mosserr.ErrEmptyResult
	}

	fmt.Fprintln(m.stdout(), url)

	if m.Fetcher != nil && cfg.OutputPath != "" {
		if err := m.Fetcher.Save(ctx, url, cfg.OutputPath); err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
	}
	return nil
}

// session builds a moss.Session from the config and the expanded
// file lists.
func (m *SubmitMode) session(base, subs []string) *moss.Session {
	cfg := m.Config

	s := moss.New(cfg.UserID)
	s.Host = cfg.Host
	s.Port = cfg.Port
	s.Dialer = m.Dialer
	s.Reader = m.Reader
	s.ReadPolicy = m.ReadPolicy
	s.Logger = m.Logger
	s.Metrics = m.Metrics

	s.SetLanguage(cfg.Language)
	s.SetIgnoreLimit(cfg.IgnoreLimit)
	s.SetCommentString(cfg.Comment)
	s.SetDirectoryMode(cfg.DirectoryMode)
	s.SetExperimentalServer(cfg.Experimental)
	s.SetNumberOfMatchingFiles(cfg.MatchesToShow)

	for _, p := range base {
		s.AddBaseFile(p)
	}
	for _, p := range subs {
		s.AddFile(p)
	}
	return s
}

// plan prints what Send would upload without connecting.
func (m *SubmitMode) plan(s *moss.Session) error {
	out := m.stdout()
	o := s.Options()
	fmt.Fprintf(out, "server   %s\n", util.FormatAddr(s.Host, s.Port))
	fmt.Fprintf(out, "language %s  maxmatches %d  show %d  directory %v  experimental %v\n",
		o.Language, o.IgnoreLimit, o.MatchesToShow, o.DirectoryMode, o.ExperimentalServer)
	if o.Comment != "" {
		fmt.Fprintf(out, "comment  %s\n", o.Comment)
	}
	for _, f := range s.BaseFiles() {
		fmt.Fprintf(out, "file 0 %s\n", moss.DisplayName(f.Path))
	}
	for i, f := range s.Files() {
		fmt.Fprintf(out, "file %d %s\n", i+1, moss.DisplayName(f.Path))
	}
	return nil
}

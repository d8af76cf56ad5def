// Package config defines the runtime configuration for gomoss and
// loads it from defaults, a .env file, a TOML file, MOSS_* variables
// and finally the command line.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	mosserr "gomoss/internal/errors"
	"gomoss/moss"
)

// Config holds every tuneable for a single gomoss run.
type Config struct {
	// ── Account and server ───────────────────────────────────────────
	UserID  string
	Host    string
	Port    int
	Timeout time.Duration // dial timeout; 0 waits for the OS
	NoDNS   bool

	// ── MOSS options ─────────────────────────────────────────────────
	Language      string
	IgnoreLimit   int
	Comment       string
	DirectoryMode bool
	Experimental  bool
	MatchesToShow int

	// ── Files ────────────────────────────────────────────────────────
	BaseFiles   []string // -b arguments: paths, globs or directories
	Files       []string // positional arguments
	Recursive   bool
	StrictFiles bool // abort on the first unreadable file

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw [user@]host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	OutputPath    string // -o: save the HTML report here
	ReportTimeout time.Duration
	Verbose       int
	Stats         bool
	DryRun        bool
	ListLanguages bool
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q, expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ResolveTunnel parses TunnelSpec into the Tunnel* fields.  An empty
// spec disables the tunnel.
func (c *Config) ResolveTunnel() error {
	if c.TunnelSpec == "" {
		c.TunnelEnabled = false
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return &mosserr.ConfigError{
			Field:   "tunnel",
			Value:   c.TunnelSpec,
			Message: err.Error(),
			Hint:    "use -T user@gateway.example.edu[:port]",
		}
	}
	c.TunnelEnabled = true
	c.TunnelUser = user
	c.TunnelHost = host
	c.TunnelPort = port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration can produce a request the
// server will accept.
func (c *Config) Validate() error {
	if c.ListLanguages {
		return nil
	}

	if c.UserID == "" {
		return &mosserr.ConfigError{
			Field:   "user",
			Message: "a MOSS user id is required",
			Hint:    "pass -u <id>, set MOSS_USERID, or put MOSS_USERID in .env",
		}
	}
	if strings.ContainsAny(c.UserID, " \t\r\n") {
		return &mosserr.ConfigError{Field: "user", Value: c.UserID, Message: "user id must not contain whitespace"}
	}

	if c.Language == "" {
		return &mosserr.ConfigError{
			Field:   "language",
			Message: "a language is required",
			Hint:    "run gomoss --languages for the accepted values",
		}
	}
	if !moss.IsSupportedLanguage(c.Language) {
		return &mosserr.ConfigError{
			Field:   "language",
			Value:   c.Language,
			Message: "unsupported language",
			Hint:    "accepted: " + strings.Join(moss.SupportedLanguages(), " "),
		}
	}

	if c.Host == "" {
		return &mosserr.ConfigError{Field: "server", Message: "server host is required"}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &mosserr.ConfigError{Field: "port", Value: c.Port, Message: "port out of range 1-65535"}
	}
	if c.IgnoreLimit < 1 {
		return &mosserr.ConfigError{
			Field:   "max-matches",
			Value:   c.IgnoreLimit,
			Message: "must be at least 1",
		}
	}
	if c.MatchesToShow < 2 {
		return &mosserr.ConfigError{
			Field:   "show",
			Value:   c.MatchesToShow,
			Message: "must be greater than 1",
		}
	}
	// The comment travels on a single protocol line.
	if strings.ContainsAny(c.Comment, "\r\n") {
		return &mosserr.ConfigError{
			Field:   "comment",
			Message: "comment must fit on one line",
		}
	}
	if c.Timeout < 0 {
		return &mosserr.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	}

	if len(c.Files) == 0 {
		return &mosserr.ConfigError{
			Field:   "files",
			Message: "no submission files given",
			Hint:    "list files, globs or (with -r) directories after the options",
		}
	}

	if c.TunnelEnabled && c.TunnelHost == "" {
		return &mosserr.ConfigError{Field: "tunnel", Value: c.TunnelSpec, Message: "tunnel host is required"}
	}
	if c.SSHKeyPath != "" && !c.TunnelEnabled {
		return &mosserr.ConfigError{
			Field:   "ssh-key",
			Value:   c.SSHKeyPath,
			Message: "only meaningful with a tunnel",
			Hint:    "add -T user@gateway",
		}
	}

	return nil
}

package config

// loader.go - configuration loading from files and the environment.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. MOSS_* environment variables  (LoadFromEnv)
//   3. TOML config file  (LoadFile)
//   4. .env file  (LoadEnvFile)
//   5. Defaults   (defaults.go)

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported variable uses the MOSS_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).  Durations accept Go
// syntax ("90s") or a bare number of seconds.

// LoadFromEnv overlays process environment variables onto cfg.  Only
// non-empty variables override the existing value.  Call it BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	loadVars(cfg, os.Getenv)
}

// LoadEnvFile overlays the MOSS_* entries of a dotenv file onto cfg.
// The process environment is left untouched so that real variables
// still win when LoadFromEnv runs afterwards.  A missing file is not
// an error unless required is set.
func LoadEnvFile(cfg *Config, path string, required bool) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	loadVars(cfg, func(key string) string { return vars[key] })
	return nil
}

func loadVars(cfg *Config, get func(string) string) {
	if v := get("MOSS_USERID"); v != "" {
		cfg.UserID = v
	}
	if v := get("MOSS_SERVER"); v != "" {
		cfg.Host = v
	}
	if v := envInt(get, "MOSS_PORT"); v > 0 {
		cfg.Port = v
	}
	if v := envDuration(get, "MOSS_TIMEOUT"); v > 0 {
		cfg.Timeout = v
	}
	if envBool(get, "MOSS_NO_DNS") {
		cfg.NoDNS = true
	}

	// MOSS options
	if v := get("MOSS_LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := envInt(get, "MOSS_MAX_MATCHES"); v > 0 {
		cfg.IgnoreLimit = v
	}
	if v := get("MOSS_COMMENT"); v != "" {
		cfg.Comment = v
	}
	if envBool(get, "MOSS_DIRECTORY") {
		cfg.DirectoryMode = true
	}
	if envBool(get, "MOSS_EXPERIMENTAL") {
		cfg.Experimental = true
	}
	if v := envInt(get, "MOSS_SHOW"); v > 0 {
		cfg.MatchesToShow = v
	}
	if envBool(get, "MOSS_STRICT_FILES") {
		cfg.StrictFiles = true
	}

	// SSH tunnel
	if v := get("MOSS_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := get("MOSS_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool(get, "MOSS_SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool(get, "MOSS_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool(get, "MOSS_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := get("MOSS_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Output
	if v := get("MOSS_OUTPUT"); v != "" {
		cfg.OutputPath = v
	}
	if v := envInt(get, "MOSS_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── TOML file ────────────────────────────────────────────────────────

type fileConfig struct {
	UserID        string   `toml:"userid"`
	Server        string   `toml:"server"`
	Port          int      `toml:"port"`
	Timeout       string   `toml:"timeout"`
	NoDNS         bool     `toml:"no_dns"`
	Language      string   `toml:"language"`
	MaxMatches    int      `toml:"max_matches"`
	Comment       string   `toml:"comment"`
	Directory     bool     `toml:"directory"`
	Experimental  bool     `toml:"experimental"`
	Show          int      `toml:"show"`
	Base          []string `toml:"base"`
	Recursive     bool     `toml:"recursive"`
	StrictFiles   bool     `toml:"strict_files"`
	Tunnel        string   `toml:"tunnel"`
	SSHKey        string   `toml:"ssh_key"`
	SSHAgent      bool     `toml:"ssh_agent"`
	StrictHostKey bool     `toml:"strict_hostkey"`
	KnownHosts    string   `toml:"known_hosts"`
	Output        string   `toml:"output"`
	ReportTimeout string   `toml:"report_timeout"`
	Verbose       int      `toml:"verbose"`
}

// LoadFile overlays the keys present in a TOML file onto cfg.  Keys
// that are absent leave the current value alone, so a file can set
// false or zero explicitly.
func LoadFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("userid") {
		cfg.UserID = strings.TrimSpace(raw.UserID)
	}
	if meta.IsDefined("server") {
		cfg.Host = strings.TrimSpace(raw.Server)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("timeout") {
		d, err := parseDuration(raw.Timeout)
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if meta.IsDefined("no_dns") {
		cfg.NoDNS = raw.NoDNS
	}

	if meta.IsDefined("language") {
		cfg.Language = strings.TrimSpace(raw.Language)
	}
	if meta.IsDefined("max_matches") {
		cfg.IgnoreLimit = raw.MaxMatches
	}
	if meta.IsDefined("comment") {
		cfg.Comment = raw.Comment
	}
	if meta.IsDefined("directory") {
		cfg.DirectoryMode = raw.Directory
	}
	if meta.IsDefined("experimental") {
		cfg.Experimental = raw.Experimental
	}
	if meta.IsDefined("show") {
		cfg.MatchesToShow = raw.Show
	}

	if meta.IsDefined("base") {
		cfg.BaseFiles = append([]string(nil), raw.Base...)
	}
	if meta.IsDefined("recursive") {
		cfg.Recursive = raw.Recursive
	}
	if meta.IsDefined("strict_files") {
		cfg.StrictFiles = raw.StrictFiles
	}

	if meta.IsDefined("tunnel") {
		cfg.TunnelSpec = strings.TrimSpace(raw.Tunnel)
	}
	if meta.IsDefined("ssh_key") {
		cfg.SSHKeyPath = raw.SSHKey
	}
	if meta.IsDefined("ssh_agent") {
		cfg.UseSSHAgent = raw.SSHAgent
	}
	if meta.IsDefined("strict_hostkey") {
		cfg.StrictHostKey = raw.StrictHostKey
	}
	if meta.IsDefined("known_hosts") {
		cfg.KnownHostsPath = raw.KnownHosts
	}

	if meta.IsDefined("output") {
		cfg.OutputPath = raw.Output
	}
	if meta.IsDefined("report_timeout") {
		d, err := parseDuration(raw.ReportTimeout)
		if err != nil {
			return fmt.Errorf("parse report_timeout: %w", err)
		}
		cfg.ReportTimeout = d
	}
	if meta.IsDefined("verbose") {
		cfg.Verbose = raw.Verbose
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(get func(string) string, key string) int {
	v := get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(get func(string) string, key string) bool {
	v := strings.ToLower(get(key))
	return v == "1" || v == "true" || v == "yes"
}

func envDuration(get func(string) string, key string) time.Duration {
	v := get(key)
	if v == "" {
		return 0
	}
	d, err := parseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

// parseDuration accepts "90s", "2m" or a bare number of seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

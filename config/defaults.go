package config

import (
	"time"

	"gomoss/moss"
)

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, the TOML file and environment variable loading.

const (
	// DefaultServer is the public MOSS host.
	DefaultServer = moss.DefaultHost

	// DefaultPort is the MOSS submission port.
	DefaultPort = moss.DefaultPort

	// DefaultIgnoreLimit is the maxmatches value sent when -m is absent.
	DefaultIgnoreLimit = moss.DefaultIgnoreLimit

	// DefaultMatchesToShow is the show value sent when -n is absent.
	DefaultMatchesToShow = moss.DefaultMatchesToShow

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnTimeout bounds the TCP or SSH dial.
	DefaultConnTimeout = 30 * time.Second

	// DefaultReportTimeout bounds each HTTP request made for -o.
	DefaultReportTimeout = 60 * time.Second

	// DefaultEnvFile is read when present and --env-file is not given.
	DefaultEnvFile = ".env"
)

// Default returns a Config populated with the defaults above.
func Default() *Config {
	return &Config{
		Host:          DefaultServer,
		Port:          DefaultPort,
		Timeout:       DefaultConnTimeout,
		IgnoreLimit:   DefaultIgnoreLimit,
		MatchesToShow: DefaultMatchesToShow,
		ReportTimeout: DefaultReportTimeout,
	}
}

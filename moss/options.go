package moss

import "slices"

const (
	// DefaultHost is the public MOSS server.
	DefaultHost = "moss.stanford.edu"

	// DefaultPort is the MOSS submission port.
	DefaultPort = 7690

	// DefaultIgnoreLimit is the default maxmatches value: passages
	// appearing in more programs than this are treated as shared code.
	DefaultIgnoreLimit = 10

	// DefaultMatchesToShow is the default number of matching file
	// pairs listed in the report.
	DefaultMatchesToShow = 250
)

// supportedLanguages is the fixed, ordered set accepted by the server.
var supportedLanguages = []string{
	"c", "cc", "java", "ml", "pascal", "ada", "lisp", "scheme",
	"haskell", "fortran", "ascii", "vhdl", "verilog", "perl",
	"matlab", "python", "mips", "prolog", "spice", "vb",
	"csharp", "modula2", "a8086", "javascript", "plsql",
}

// SupportedLanguages returns a copy of the languages MOSS understands,
// in the server's canonical order.
func SupportedLanguages() []string {
	return slices.Clone(supportedLanguages)
}

// IsSupportedLanguage reports whether lang is accepted by the server.
func IsSupportedLanguage(lang string) bool {
	return slices.Contains(supportedLanguages, lang)
}

// Options are the per-request settings sent in the option preamble.
type Options struct {
	// Language is the source language of every uploaded file.  Empty
	// means unset, which the server rejects.
	Language string

	// IgnoreLimit is the maximum number of programs a passage may
	// appear in before it is ignored (maxmatches).
	IgnoreLimit int

	// Comment is attached to the generated report.
	Comment string

	// DirectoryMode groups files by directory: every file in one
	// directory belongs to the same program.
	DirectoryMode bool

	// ExperimentalServer routes the query to the experimental server.
	ExperimentalServer bool

	// MatchesToShow is the number of matching files in the report.
	MatchesToShow int
}

// DefaultOptions returns the options a fresh Session starts with.
func DefaultOptions() Options {
	return Options{
		IgnoreLimit:   DefaultIgnoreLimit,
		MatchesToShow: DefaultMatchesToShow,
	}
}

func flag(on bool) int {
	if on {
		return 1
	}
	return 0
}

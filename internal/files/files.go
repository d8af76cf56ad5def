// Package files turns command-line arguments into the ordered list of
// paths handed to a MOSS session.
package files

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// extensions lists the source suffixes picked up when walking a
// directory for a given language.  Languages without an entry accept
// every regular file.
var extensions = map[string][]string{
	"c":          {".c", ".h"},
	"cc":         {".cc", ".cpp", ".cxx", ".c++", ".h", ".hh", ".hpp"},
	"java":       {".java"},
	"ml":         {".ml", ".mli"},
	"pascal":     {".pas", ".pp"},
	"ada":        {".ada", ".adb", ".ads"},
	"lisp":       {".lisp", ".lsp", ".cl"},
	"scheme":     {".scm", ".ss", ".rkt"},
	"haskell":    {".hs", ".lhs"},
	"fortran":    {".f", ".for", ".f90", ".f95"},
	"vhdl":       {".vhd", ".vhdl"},
	"verilog":    {".v", ".sv"},
	"perl":       {".pl", ".pm"},
	"matlab":     {".m"},
	"python":     {".py"},
	"mips":       {".s", ".asm"},
	"prolog":     {".pl", ".pro"},
	"spice":      {".sp", ".cir"},
	"vb":         {".vb", ".bas"},
	"csharp":     {".cs"},
	"modula2":    {".mod", ".def"},
	"a8086":      {".asm", ".s"},
	"javascript": {".js", ".mjs", ".cjs"},
	"plsql":      {".sql", ".pls", ".plb"},
}

// Extensions returns the suffixes used for lang, or nil when every
// file is accepted.
func Extensions(lang string) []string {
	return extensions[lang]
}

// Options control how arguments are expanded.
type Options struct {
	// Recursive walks directory arguments.  Without it a directory is
	// an error.
	Recursive bool

	// Language filters walked files by extension.  Explicit file
	// arguments and glob matches are never filtered.
	Language string
}

// Collect expands args in order.  Globs are expanded and sorted, and
// directories are walked in lexical order when Recursive is set.
// Plain paths are kept even if they do not exist; the upload reports
// them.
func Collect(args []string, opts Options) ([]string, error) {
	var out []string
	for _, arg := range args {
		if hasMeta(arg) {
			matches, err := filepath.Glob(arg)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("pattern %q matched no files", arg)
			}
			sort.Strings(matches)
			for _, m := range matches {
				if info, err := os.Stat(m); err == nil && info.IsDir() {
					continue
				}
				out = append(out, m)
			}
			continue
		}

		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			out = append(out, arg)
			continue
		}
		if !opts.Recursive {
			return nil, fmt.Errorf("%s is a directory (use -r to include its files)", arg)
		}
		walked, err := walk(arg, Extensions(opts.Language))
		if err != nil {
			return nil, err
		}
		out = append(out, walked...)
	}
	return out, nil
}

func walk(root string, exts []string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(name, ".") {
			return nil
		}
		if len(exts) > 0 && !hasExt(name, exts) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return out, nil
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[")
}

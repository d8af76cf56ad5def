// Package core is the orchestration layer.  It turns a Config into a
// complete operational mode and runs it.
//
// Architecture layers (bottom → top):
//
//	transport  →  moss  →  core  →  cmd (CLI)
//
// The builder in this package is the single dispatch point between
// the CLI and the protocol client.
package core

import "context"

// Mode represents a complete operational mode of gomoss (submit or
// list languages).  Each mode owns its full lifecycle, including any
// connection it opens.
type Mode interface {
	Run(ctx context.Context) error
}

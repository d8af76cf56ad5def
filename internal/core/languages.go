package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"gomoss/moss"
)

// LanguagesMode prints the accepted language names, one per line.
type LanguagesMode struct {
	Stdout io.Writer
}

// Run writes the list.  It never touches the network.
func (m *LanguagesMode) Run(_ context.Context) error {
	out := m.Stdout
	if out == nil {
		out = os.Stdout
	}
	for _, lang := range moss.SupportedLanguages() {
		if _, err := fmt.Fprintln(out, lang); err != nil {
			return err
		}
	}
	return nil
}

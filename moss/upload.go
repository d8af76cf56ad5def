package moss

import (
	"strings"

	"gomoss/util"
)

// displayNamer turns a local path into something the server's parser
// accepts: no spaces, forward slashes only.
var displayNamer = strings.NewReplacer(" ", "_", `\`, "/")

// DisplayName derives the report name for path.
func DisplayName(path string) string {
	return displayNamer.Replace(path)
}

// upload sends one file header followed by its raw content.  The
// declared size is the byte length of exactly what is written.
func (s *Session) upload(c *wire, f FileRef, id int, log *util.Logger) error {
	name := f.DisplayName
	if name == "" {
		name = DisplayName(f.Path)
	}

	content, err := s.reader().ReadFile(f.Path)
	if err != nil {
		ferr := &FileError{Path: f.Path, DisplayName: name, ID: id, Err: err}
		s.readErrs = append(s.readErrs, ferr)
		s.Metrics.ReadFailure()
		if s.ReadPolicy == AbortOnReadError {
			return ferr
		}
		log.Warn("%v; uploading it empty", ferr)
		content = nil
	}

	if err := c.line("file %d %s %d %s", id, s.opts.Language, len(content), name); err != nil {
		return err
	}
	if err := c.raw(content); err != nil {
		return err
	}
	s.Metrics.FileUploaded(id)
	log.Debug("uploaded %s as %q (id %d, %d bytes)", f.Path, name, id, len(content))
	return nil
}

package moss

import (
	"io/fs"
	"os"
)

// FileReader loads the content of a file to upload.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// FileReaderFunc adapts a plain function to FileReader.
type FileReaderFunc func(path string) ([]byte, error)

// ReadFile calls f(path).
func (f FileReaderFunc) ReadFile(path string) ([]byte, error) { return f(path) }

// OSReader reads from the local filesystem.
type OSReader struct{}

// ReadFile is [os.ReadFile].
func (OSReader) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// FSReader reads from an fs.FS, e.g. an embedded tree or a
// testing/fstest.MapFS.
type FSReader struct {
	FS fs.FS
}

// ReadFile is [fs.ReadFile] on r.FS.
func (r FSReader) ReadFile(path string) ([]byte, error) { return fs.ReadFile(r.FS, path) }

// ReadPolicy decides what happens when a file cannot be read.
type ReadPolicy int

const (
	// UploadEmpty records the failure and uploads the file with zero
	// bytes of content so the rest of the request still goes through.
	UploadEmpty ReadPolicy = iota

	// AbortOnReadError stops the exchange at the first unreadable
	// file and returns its *FileError from Send.
	AbortOnReadError
)

func (p ReadPolicy) String() string {
	switch p {
	case UploadEmpty:
		return "upload-empty"
	case AbortOnReadError:
		return "abort"
	default:
		return "unknown"
	}
}

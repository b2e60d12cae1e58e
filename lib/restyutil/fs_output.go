// Package restyutil holds helpers around resty clients shared by the cli and the tests.
package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemOutput writes each request/response dump of an instrumented client
// into its own file, it implements telemetry.MessageOutput.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput creates a fresh "http-*" directory inside dir for the dumps of one run,
// existing contents of dir are left untouched.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0700)
	if err != nil {
		return FilesystemOutput{}, err
	}
	run, err := os.MkdirTemp(dir, "http-*")
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: run}, nil
}

func (o FilesystemOutput) Dir() string {
	return o.directory
}

func (o FilesystemOutput) Write(id string, contents string) {
	// ids are generated but must never escape the directory
	name := strings.ReplaceAll(filepath.Base(id), string(filepath.Separator), "_")
	err := os.WriteFile(filepath.Join(o.directory, name+".http"), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message info file", "id", id, "err", err)
	}
}

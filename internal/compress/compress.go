// Package compress turns CLI options into per-file compression requests
// and runs them sequentially against the external encoder.
package compress

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"vidsqueeze/internal/ffmpeg"
	"vidsqueeze/internal/probe"
)

// Category classifies a failed result.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryEncoder    Category = "encoder"
)

// Request is one validated unit of work: one input file, one output file.
type Request struct {
	Input   string
	Output  string
	Options ffmpeg.Options
	Info    *probe.VideoInfo
}

// Result is the outcome of running one request.
type Result struct {
	Input      string
	Output     string
	InputSize  int64
	OutputSize int64
	Elapsed    time.Duration
	Category   Category
	Err        error
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// OutputPath derives the output file name from the input and the chosen
// options. The option suffix guarantees the output never shadows the input.
func OutputPath(input, outputDir string, opts ffmpeg.Options) string {
	dir := filepath.Dir(input)

	if outputDir != "" {
		dir = outputDir
	}

	base := filepath.Base(input)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]

	return filepath.Join(dir, stem+opts.Suffix()+ext)
}

// checkSource rejects missing, irregular, and empty input files before any
// child process is launched.
func checkSource(path string) error {
	stat, err := os.Stat(path)

	if err != nil {
		if os.IsNotExist(err) {
			return errors.Errorf("file does not exist: %s", path)
		}

		return errors.Wrapf(err, "checking '%s'", path)
	}

	if !stat.Mode().IsRegular() {
		return errors.Errorf("not a regular file: %s", path)
	}

	if stat.Size() == 0 {
		return errors.Errorf("file is empty: %s", path)
	}

	return nil
}

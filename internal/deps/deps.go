package deps

import (
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"vidsqueeze/internal/executor"
)

// Requirement names one external binary the compressor relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status reports where (or whether) a required binary was found.
type Status struct {
	Requirement
	Available bool
	Path      string
	Version   string
	Detail    string
}

// Required lists the binaries that must be on PATH before any file is processed.
func Required() []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: "ffmpeg", Description: "video encoder"},
		{Name: "FFprobe", Command: "ffprobe", Description: "media inspector"},
	}
}

// Check resolves every requirement on PATH and records version banners.
func Check(ctx context.Context, logger *log.Entry, requirements []Requirement) []Status {
	exe := executor.NewExecutor(logger)
	results := make([]Status, 0, len(requirements))

	for _, req := range requirements {
		status := Status{Requirement: req}

		path, err := exec.LookPath(req.Command)

		if err != nil {
			status.Detail = "binary not found on PATH"
			results = append(results, status)
			continue
		}

		status.Available = true
		status.Path = path
		status.Version = versionBanner(ctx, exe, req.Command)

		results = append(results, status)
	}

	return results
}

// Verify returns an error describing every missing requirement, or nil.
func Verify(ctx context.Context, logger *log.Entry) error {
	var missing []string

	for _, status := range Check(ctx, logger, Required()) {
		if !status.Available {
			missing = append(missing, status.Command)
		}
	}

	if len(missing) > 0 {
		return errors.Errorf("required binaries missing from PATH: %s", strings.Join(missing, ", "))
	}

	return nil
}

func versionBanner(ctx context.Context, exe *executor.Executor, binary string) string {
	cmd := &executor.Cmd{Binary: binary}
	cmd.Add("-version")

	out, err := exe.Run(ctx, cmd)

	if err != nil {
		return ""
	}

	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}

	return strings.TrimSpace(out)
}

// Package transcode owns the ffmpeg child-process lifecycle: launch,
// incremental progress parsing, graceful stop, and exit-status capture.
package transcode

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"vidsqueeze/internal/executor"
	"vidsqueeze/internal/util"
)

// Progress is one parsed block of the ffmpeg -progress stream.
type Progress struct {
	Frame   int64
	FPS     float64
	Bitrate string
	OutTime float64 // seconds of output written so far
	Speed   float64 // encode speed relative to realtime
	Done    bool
}

type Transcoder struct {
	command *executor.Cmd
	process *exec.Cmd
	stdin   io.WriteCloser
	output  chan Progress
	stderr  bytes.Buffer
}

func New(command *executor.Cmd) *Transcoder {
	return &Transcoder{command: command}
}

// Run launches ffmpeg and returns a channel that yields the final process
// error once. The Output channel must be drained: the child is reaped only
// after its progress stream hits EOF, so Wait never races the reader.
func (t *Transcoder) Run(ctx context.Context) (<-chan error, error) {
	proc := exec.CommandContext(ctx, t.command.Binary, t.command.Command()...)
	proc.Env = append(os.Environ(), t.command.Environ()...)
	proc.Stderr = &t.stderr

	stdout, err := proc.StdoutPipe()

	if err != nil {
		return nil, errors.Wrap(err, "opening progress pipe")
	}

	// stdin stays open so a "q" can end the encode cleanly
	stdin, err := proc.StdinPipe()

	if err != nil {
		return nil, errors.Wrap(err, "opening stdin pipe")
	}

	if err := proc.Start(); err != nil {
		return nil, errors.Wrapf(err, "starting '%s'", t.command.Binary)
	}

	t.process = proc
	t.stdin = stdin
	t.output = make(chan Progress)

	done := make(chan error, 1)

	go func() {
		defer close(done)

		// drain progress to EOF first; Wait closes the pipe and would
		// discard the final block otherwise
		scanProgress(stdout, t.output)
		close(t.output)

		err := proc.Wait()

		if err != nil {
			diag := strings.TrimSpace(t.stderr.String())

			if diag != "" {
				err = errors.Wrapf(err, "encoder reported:\n%s", tail(diag, 20))
			} else {
				err = errors.Wrap(err, "encoder failed")
			}
		}

		done <- err
	}()

	return done, nil
}

// Output returns the progress channel; it closes when ffmpeg closes its
// progress pipe.
func (t *Transcoder) Output() <-chan Progress {
	if t.output == nil {
		out := make(chan Progress)
		close(out)
		return out
	}

	return t.output
}

// Stop asks ffmpeg to finish the current output and exit.
func (t *Transcoder) Stop() error {
	if t.stdin == nil {
		return nil
	}

	_, err := t.stdin.Write([]byte("q\n"))

	return err
}

// ParseProgress reads "-progress pipe:1" key=value blocks and emits one
// Progress per block (blocks are terminated by a "progress=" line).
func ParseProgress(r io.Reader) <-chan Progress {
	out := make(chan Progress)

	go func() {
		defer close(out)
		scanProgress(r, out)
	}()

	return out
}

func scanProgress(r io.Reader, out chan<- Progress) {
	scanner := bufio.NewScanner(r)
	scanner.Split(scanLines)

	var current Progress

	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")

		if !ok {
			continue
		}

		value = strings.TrimSpace(value)

		switch key {
		case "frame":
			current.Frame, _ = strconv.ParseInt(value, 10, 64)
		case "fps":
			current.FPS, _ = strconv.ParseFloat(value, 64)
		case "bitrate":
			current.Bitrate = value
		case "out_time_ms":
			// despite the name, ffmpeg reports microseconds here
			micros, _ := strconv.ParseInt(value, 10, 64)
			current.OutTime = float64(micros) / 1e6
		case "out_time":
			if current.OutTime == 0 {
				current.OutTime = util.DurationToSec(value)
			}
		case "speed":
			current.Speed, _ = strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64)
		case "progress":
			current.Done = value == "end"
			out <- current
			current = Progress{}
		}
	}
}

// scanLines splits on both LF and CR so carriage-return status updates
// are seen as they arrive.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}

	return 0, nil, nil
}

func tail(s string, lines int) string {
	split := strings.Split(s, "\n")

	if len(split) <= lines {
		return s
	}

	return strings.Join(split[len(split)-lines:], "\n")
}

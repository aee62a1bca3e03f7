package compress

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"vidsqueeze/internal/ffmpeg"
	"vidsqueeze/internal/probe"
	"vidsqueeze/internal/transcode"
)

// Encoder runs one compression request to completion, reporting progress
// through the callback.
type Encoder interface {
	Encode(ctx context.Context, req *Request, onProgress func(transcode.Progress)) error
}

// Prober resolves the video metadata the runner needs for validation and
// progress scaling.
type Prober interface {
	Video(ctx context.Context, path string) (*probe.VideoInfo, error)
}

// Meter renders per-file progress. Implementations must tolerate being
// fed from the runner goroutine only.
type Meter interface {
	Start(input string, totalBytes int64)
	Advance(input string, doneBytes int64)
	Done(input string, err error)
}

// Runner processes input files one at a time, one child process per file,
// synchronously waited on. A failing file does not abort the batch; a
// canceled context does.
type Runner struct {
	Encoder   Encoder
	Prober    Prober
	Meter     Meter
	Logger    *log.Entry
	OutputDir string
}

func (r *Runner) Process(ctx context.Context, inputs []string, opts ffmpeg.Options) []Result {
	results := make([]Result, 0, len(inputs))

	for _, input := range inputs {
		results = append(results, r.processOne(ctx, input, opts))

		if ctx.Err() != nil {
			r.Logger.Warn("interrupted, stopping batch")
			break
		}
	}

	return results
}

func (r *Runner) processOne(ctx context.Context, input string, opts ffmpeg.Options) Result {
	result := Result{Input: input}

	if err := checkSource(input); err != nil {
		result.Category = CategoryValidation
		result.Err = err
		return result
	}

	info, err := r.Prober.Video(ctx, input)

	if err != nil {
		result.Category = CategoryValidation
		result.Err = err
		return result
	}

	result.InputSize = info.Size
	result.Output = OutputPath(input, r.OutputDir, opts)

	req := &Request{
		Input:   input,
		Output:  result.Output,
		Options: opts,
		Info:    info,
	}

	r.Logger.WithFields(log.Fields{
		"input":  req.Input,
		"output": req.Output,
	}).Debug("compressing file")

	r.meterStart(input, info.Size)

	start := time.Now()
	err = r.Encoder.Encode(ctx, req, func(update transcode.Progress) {
		r.meterAdvance(input, scaleProgress(update, info))
	})
	result.Elapsed = time.Since(start)

	r.meterDone(input, err)

	if err != nil {
		result.Category = CategoryEncoder
		result.Err = err
		return result
	}

	if stat, statErr := os.Stat(result.Output); statErr == nil {
		result.OutputSize = stat.Size()
	}

	return result
}

// scaleProgress maps encoder time progress onto input bytes so the meter
// can render a byte-denominated bar.
func scaleProgress(update transcode.Progress, info *probe.VideoInfo) int64 {
	if update.Done {
		return info.Size
	}

	if info.Duration <= 0 {
		return 0
	}

	done := int64(update.OutTime / info.Duration * float64(info.Size))

	if done > info.Size {
		done = info.Size
	}

	return done
}

func (r *Runner) meterStart(input string, total int64) {
	if r.Meter != nil {
		r.Meter.Start(input, total)
	}
}

func (r *Runner) meterAdvance(input string, done int64) {
	if r.Meter != nil {
		r.Meter.Advance(input, done)
	}
}

func (r *Runner) meterDone(input string, err error) {
	if r.Meter != nil {
		r.Meter.Done(input, err)
	}
}
